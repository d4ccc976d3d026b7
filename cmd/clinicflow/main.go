package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/config"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/calendar"
	v1 "github.com/dmehra2102/prod-golang-projects/clinicflow/internal/handler/v1"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/middleware"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/service"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/logger"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/metrics"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/tracer"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "clinicflow",
		Short:        "Clinic appointment timeline and doctor session billing API",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), seed)
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "load demo doctors and appointments (memory backend only)")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the postgres schemas, tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Log, cfg.App)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			if cfg.Store.Backend != config.BackendPostgres {
				return fmt.Errorf("migrate requires STORE_BACKEND=postgres, got %q", cfg.Store.Backend)
			}
			db, err := database.Connect(cfg.Database)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			return database.Migrate(db, log)
		},
	}
}

func runServer(ctx context.Context, seed bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log, cfg.App)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracer.Init(ctx, cfg.Tracing, cfg.App)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	gridCfg, err := cfg.Schedule.Grid()
	if err != nil {
		return err
	}
	grid, err := calendar.New(gridCfg)
	if err != nil {
		return err
	}

	m := metrics.NewCollector(cfg.App.Name, prometheus.DefaultRegisterer)

	st, err := openStores(ctx, cfg, m, log)
	if err != nil {
		return err
	}
	defer st.close()

	if seed {
		if st.memory == nil {
			return errors.New("--seed is only supported with STORE_BACKEND=memory")
		}
		if err := seedDemo(ctx, st.memory, grid); err != nil {
			return fmt.Errorf("seeding demo data: %w", err)
		}
		log.Info("demo data loaded")
	}

	notifier, err := newNotifier(ctx, cfg, st, log)
	if err != nil {
		return err
	}

	auditSvc := service.NewAuditService(st.audit, m, log)
	defer auditSvc.Shutdown()

	fees := service.NewFeeReconciler(st.appts, st.sessions, st.ledger, cfg.Billing.DoctorFeeCategory, m, log)
	h := v1.NewHandler(
		st.appts,
		grid,
		service.NewRescheduleController(st.appts, grid, notifier, auditSvc, m, log),
		service.NewSessionService(st.sessions, st.appts, st.doctors, fees, auditSvc, m, log),
		log,
	)

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recovery(log),
		middleware.Metrics(m),
		middleware.CORS(cfg.CORS),
	)
	r.GET("/healthz", func(c *gin.Context) {
		if err := st.ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "store": cfg.Store.Backend})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "store": cfg.Store.Backend, "version": cfg.App.Version})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler(prometheus.DefaultGatherer)))

	api := r.Group("/api/v1", middleware.NewRateLimit(ctx, cfg.RateLimit))
	h.Register(api)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("store", cfg.Store.Backend),
			zap.String("env", cfg.App.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
