package main

import (
	"context"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/calendar"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/config"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/clock"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/notify"
	"go.uber.org/zap"
)

func TestOpenStores_MemorySeed(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Store: config.StoreConfig{Backend: config.BackendMemory}}

	st, err := openStores(ctx, cfg, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.close()
	if st.memory == nil {
		t.Fatal("memory backend should expose its stores for seeding")
	}

	grid, _ := calendar.New(calendar.DefaultConfig())
	if err := seedDemo(ctx, st.memory, grid); err != nil {
		t.Fatalf("seed: %v", err)
	}

	today := time.Now().UTC().Format(clock.DateLayout)
	for _, d := range demoDoctors {
		got, err := st.doctors.GetByID(ctx, d.ID)
		if err != nil || got.Name != d.Name {
			t.Errorf("doctor %s not seeded: %v", d.ID, err)
		}
		appts, err := st.appts.ListByDoctorAndDate(ctx, d.ID, today)
		if err != nil || len(appts) != len(demoBookings) {
			t.Errorf("expected %d appointments for %s, got %d (%v)", len(demoBookings), d.Name, len(appts), err)
		}
		for _, a := range appts {
			if !grid.Contains(a.StartTime, a.DurationMins) {
				t.Errorf("seeded appointment %s-%s outside working hours", a.StartTime, a.EndTime)
			}
		}
	}
}

func TestOpenStores_UnknownBackend(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Backend: "redis"}}
	if _, err := openStores(context.Background(), cfg, nil, zap.NewNop()); err == nil {
		t.Fatal("expected an error for an unknown backend")
	}
}

func TestNewNotifier_LogsWhenPushDisabled(t *testing.T) {
	n, err := newNotifier(context.Background(), &config.Config{}, &stores{}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := n.(*notify.LogNotifier); !ok {
		t.Errorf("expected a log notifier, got %T", n)
	}
}
