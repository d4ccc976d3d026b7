package config

import (
	"strings"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/clock"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Address() != "0.0.0.0:8080" {
		t.Errorf("unexpected address %q", cfg.Server.Address())
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("unexpected shutdown timeout %v", cfg.Server.ShutdownTimeout)
	}
	grid, err := cfg.Schedule.Grid()
	if err != nil {
		t.Fatalf("unexpected grid error: %v", err)
	}
	if grid.WorkStart != clock.MustParse("08:00") || grid.WorkEnd != clock.MustParse("18:00") {
		t.Errorf("unexpected working hours %s-%s", grid.WorkStart, grid.WorkEnd)
	}
	if grid.SlotMinutes != 30 || grid.SlotHeight != 60 {
		t.Errorf("unexpected slot geometry %d/%v", grid.SlotMinutes, grid.SlotHeight)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "MEMORY")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SCHEDULE_SLOT_MINUTES", "15")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Backend != BackendMemory {
		t.Errorf("expected backend to be lower-cased, got %q", cfg.Store.Backend)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Schedule.SlotMinutes != 15 {
		t.Errorf("expected 15-minute slots, got %d", cfg.Schedule.SlotMinutes)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins %v", cfg.CORS.AllowedOrigins)
	}
}

func TestFromEnv_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "unknown backend",
			env:  map[string]string{"STORE_BACKEND": "redis"},
			want: "STORE_BACKEND must be one of",
		},
		{
			name: "firestore without project",
			env:  map[string]string{"STORE_BACKEND": "firestore"},
			want: "FIREBASE_PROJECT_ID is required",
		},
		{
			name: "postgres password outside development",
			env:  map[string]string{"STORE_BACKEND": "postgres", "APP_ENV": "staging"},
			want: "DB_PASSWORD is required",
		},
		{
			name: "bad working hours",
			env:  map[string]string{"STORE_BACKEND": "memory", "SCHEDULE_WORK_START": "8am"},
			want: "SCHEDULE_WORK_START",
		},
		{
			name: "window not a whole number of slots",
			env:  map[string]string{"STORE_BACKEND": "memory", "SCHEDULE_SLOT_MINUTES": "45"},
			want: "whole number of slots",
		},
		{
			name: "memory in production",
			env:  map[string]string{"STORE_BACKEND": "memory", "APP_ENV": "production"},
			want: "not allowed in production",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
