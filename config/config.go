package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/calendar"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/clock"
	"github.com/joho/godotenv"
)

const (
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
	BackendMemory    = "memory"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Firebase  FirebaseConfig
	Schedule  ScheduleConfig
	Billing   BillingConfig
	Notify    NotifyConfig
	Log       LogConfig
	Tracing   TracingConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Version     string
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type StoreConfig struct {
	// Backend is one of postgres, firestore, memory.
	Backend string
}

type DatabaseConfig struct {
	Host               string
	Port               int
	Name               string
	User               string
	Password           string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	SlowQueryThreshold time.Duration
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
}

// ScheduleConfig holds the raw working-hours grid settings; Grid converts them.
type ScheduleConfig struct {
	WorkStart   string
	WorkEnd     string
	SlotMinutes int
	SlotHeight  float64
	MarginLeft  float64
	MarginRight float64
	ColumnGap   float64
}

func (s ScheduleConfig) Grid() (calendar.Config, error) {
	start, err := clock.Parse(s.WorkStart)
	if err != nil {
		return calendar.Config{}, fmt.Errorf("SCHEDULE_WORK_START: %w", err)
	}
	end, err := clock.Parse(s.WorkEnd)
	if err != nil {
		return calendar.Config{}, fmt.Errorf("SCHEDULE_WORK_END: %w", err)
	}
	return calendar.Config{
		WorkStart:   start,
		WorkEnd:     end,
		SlotMinutes: s.SlotMinutes,
		SlotHeight:  s.SlotHeight,
		MarginLeft:  s.MarginLeft,
		MarginRight: s.MarginRight,
		ColumnGap:   s.ColumnGap,
	}, nil
}

type BillingConfig struct {
	DoctorFeeCategory string
}

type NotifyConfig struct {
	// PushEnabled sends reschedule notices through Firebase Cloud Messaging.
	PushEnabled     bool
	TopicPrefix     string
	BreakerTimeout  time.Duration
	BreakerFailures uint32
}

type LogConfig struct {
	Level      string
	Format     string
	OutputPath string
}

type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	SampleRate  float64
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         time.Duration
}

type RateLimitConfig struct {
	// Per client IP
	RequestsPerSecond float64
	BurstSize         int
}

// Load reads a .env file when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "clinicflow"),
			Environment: getEnv("APP_ENV", "development"),
			Version:     getEnv("APP_VERSION", "0.0.0"),
		},
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", BackendPostgres)),
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			Name:               getEnv("DB_NAME", "clinicflow"),
			User:               getEnv("DB_USER", "clinicflow"),
			Password:           getEnv("DB_PASSWORD", ""),
			SSLMode:            getEnv("DB_SSLMODE", "require"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime:    getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime:    getEnvDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			SlowQueryThreshold: getEnvDuration("DB_SLOW_QUERY_THRESHOLD", 200*time.Millisecond),
		},
		Firebase: FirebaseConfig{
			ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
			CredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		},
		Schedule: ScheduleConfig{
			WorkStart:   getEnv("SCHEDULE_WORK_START", "08:00"),
			WorkEnd:     getEnv("SCHEDULE_WORK_END", "18:00"),
			SlotMinutes: getEnvInt("SCHEDULE_SLOT_MINUTES", 30),
			SlotHeight:  getEnvFloat("SCHEDULE_SLOT_HEIGHT", 60),
			MarginLeft:  getEnvFloat("SCHEDULE_MARGIN_LEFT", 2),
			MarginRight: getEnvFloat("SCHEDULE_MARGIN_RIGHT", 2),
			ColumnGap:   getEnvFloat("SCHEDULE_COLUMN_GAP", 1),
		},
		Billing: BillingConfig{
			DoctorFeeCategory: getEnv("BILLING_DOCTOR_FEE_CATEGORY", "Doctor Fees"),
		},
		Notify: NotifyConfig{
			PushEnabled:     getEnvBool("NOTIFY_PUSH_ENABLED", false),
			TopicPrefix:     getEnv("NOTIFY_TOPIC_PREFIX", "doctor-"),
			BreakerTimeout:  getEnvDuration("NOTIFY_BREAKER_TIMEOUT", 30*time.Second),
			BreakerFailures: uint32(getEnvInt("NOTIFY_BREAKER_FAILURES", 5)),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			OutputPath: getEnv("LOG_OUTPUT", "stdout"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvBool("TRACING_ENABLED", false),
			ServiceName: getEnv("TRACING_SERVICE_NAME", "clinicflow"),
			Endpoint:    getEnv("OTLP_ENDPOINT", "otel-collector:4318"),
			SampleRate:  getEnvFloat("TRACING_SAMPLE_RATE", 0.1),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods: getEnvSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
			AllowedHeaders: getEnvSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "X-Request-ID", "X-Actor"}),
			MaxAge:         getEnvDuration("CORS_MAX_AGE", 12*time.Hour),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvFloat("RATE_LIMIT_RPS", 20),
			BurstSize:         getEnvInt("RATE_LIMIT_BURST", 40),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	var errs []string

	switch cfg.Store.Backend {
	case BackendPostgres:
		if cfg.Database.Password == "" && cfg.App.Environment != "development" {
			errs = append(errs, "DB_PASSWORD is required in non-development environments")
		}
		if cfg.Database.SSLMode == "disable" && cfg.App.Environment == "production" {
			errs = append(errs, "DB_SSLMODE=disable is not allowed in production")
		}
	case BackendFirestore:
		if cfg.Firebase.ProjectID == "" {
			errs = append(errs, "FIREBASE_PROJECT_ID is required for the firestore backend")
		}
	case BackendMemory:
		if cfg.App.Environment == "production" {
			errs = append(errs, "STORE_BACKEND=memory is not allowed in production")
		}
	default:
		errs = append(errs, fmt.Sprintf("STORE_BACKEND must be one of postgres, firestore, memory (got %q)", cfg.Store.Backend))
	}

	if cfg.Notify.PushEnabled && cfg.Firebase.ProjectID == "" {
		errs = append(errs, "FIREBASE_PROJECT_ID is required when NOTIFY_PUSH_ENABLED is set")
	}

	if gridCfg, err := cfg.Schedule.Grid(); err != nil {
		errs = append(errs, err.Error())
	} else if _, err := calendar.New(gridCfg); err != nil {
		errs = append(errs, err.Error())
	}

	if cfg.Billing.DoctorFeeCategory == "" {
		errs = append(errs, "BILLING_DOCTOR_FEE_CATEGORY must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				result = append(result, t)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
