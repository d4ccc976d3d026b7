package main

import (
	"context"
	"fmt"

	fb "firebase.google.com/go"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/config"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/ledger"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/session"
	fsrepo "github.com/dmehra2102/prod-golang-projects/clinicflow/internal/repository/firestore"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/repository/memory"
	pgrepo "github.com/dmehra2102/prod-golang-projects/clinicflow/internal/repository/postgres"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/service"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/firebase"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/metrics"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/notify"
	"go.uber.org/zap"
)

type memoryStores struct {
	appts   *memory.AppointmentRepository
	doctors *memory.DoctorRegistry
}

// stores is the repository set for the configured backend.
type stores struct {
	appts    appointment.Repository
	sessions session.Repository
	ledger   ledger.Repository
	doctors  doctor.Registry
	audit    service.AuditRepository

	// Set only for the memory backend.
	memory *memoryStores
	// Set when a firebase app was initialised, shared with push notifications.
	firebaseApp *fb.App

	ping    func(ctx context.Context) error
	closers []func() error
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
}

func openStores(ctx context.Context, cfg *config.Config, m *metrics.Collector, log *zap.Logger) (*stores, error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("getting sql.DB: %w", err)
		}
		log.Info("connected to postgres", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.Name))
		return &stores{
			appts:    pgrepo.NewAppointmentRepository(db, m),
			sessions: pgrepo.NewSessionRepository(db, m),
			ledger:   pgrepo.NewLedgerRepository(db, m),
			doctors:  pgrepo.NewDoctorRegistry(db),
			audit:    pgrepo.NewAuditRepository(db),
			ping:     sqlDB.PingContext,
			closers:  []func() error{sqlDB.Close},
		}, nil

	case config.BackendFirestore:
		app, err := firebase.NewApp(ctx, cfg.Firebase)
		if err != nil {
			return nil, err
		}
		client, err := firebase.Firestore(ctx, app)
		if err != nil {
			return nil, err
		}
		log.Info("connected to firestore", zap.String("project", cfg.Firebase.ProjectID))
		return &stores{
			appts:       fsrepo.NewAppointmentRepository(client, m),
			sessions:    fsrepo.NewSessionRepository(client, m),
			ledger:      fsrepo.NewLedgerRepository(client, m),
			doctors:     fsrepo.NewDoctorRegistry(client),
			audit:       fsrepo.NewAuditRepository(client),
			firebaseApp: app,
			ping:        func(context.Context) error { return nil },
			closers:     []func() error{client.Close},
		}, nil

	case config.BackendMemory:
		appts := memory.NewAppointmentRepository()
		doctors := memory.NewDoctorRegistry()
		log.Warn("using the in-memory store; data is lost on restart")
		return &stores{
			appts:    appts,
			sessions: memory.NewSessionRepository(),
			ledger:   memory.NewLedgerRepository(),
			doctors:  doctors,
			audit:    memory.NewAuditRepository(),
			memory:   &memoryStores{appts: appts, doctors: doctors},
			ping:     func(context.Context) error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// newNotifier publishes through FCM when push is enabled, otherwise it only logs.
func newNotifier(ctx context.Context, cfg *config.Config, st *stores, log *zap.Logger) (service.Notifier, error) {
	if !cfg.Notify.PushEnabled {
		return notify.NewLogNotifier(log), nil
	}

	app := st.firebaseApp
	if app == nil {
		var err error
		if app, err = firebase.NewApp(ctx, cfg.Firebase); err != nil {
			return nil, err
		}
	}
	client, err := firebase.Messaging(ctx, app)
	if err != nil {
		return nil, err
	}
	return notify.NewPushNotifier(client, cfg.Notify, log), nil
}
