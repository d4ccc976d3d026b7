package session

import (
	"errors"
	"testing"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/clock"
	"github.com/google/uuid"
)

func TestKey_RoundTrip(t *testing.T) {
	doctorID := uuid.MustParse("3b0b7a8e-4c1d-4f0e-9a55-0c1f2d3e4f50")
	key, err := NewKey(doctorID, "2026-03-02", clock.MustParse("08:00"), clock.MustParse("12:30"))
	if err != nil {
		t.Fatalf("new key: %v", err)
	}

	want := "3b0b7a8e-4c1d-4f0e-9a55-0c1f2d3e4f50_2026-03-02_0800_1230"
	if key.String() != want {
		t.Fatalf("got %q, want %q", key.String(), want)
	}
	parsed, err := ParseKey(key.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != key {
		t.Errorf("round trip gave %+v", parsed)
	}
}

func TestNewKey_Invalid(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name       string
		doctorID   uuid.UUID
		date       string
		start, end string
	}{
		{"nil doctor", uuid.Nil, "2026-03-02", "08:00", "12:00"},
		{"bad date", id, "2026-13-02", "08:00", "12:00"},
		{"empty block", id, "2026-03-02", "12:00", "12:00"},
		{"inverted block", id, "2026-03-02", "13:00", "12:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewKey(tt.doctorID, tt.date, clock.MustParse(tt.start), clock.MustParse(tt.end))
			if !errors.Is(err, ErrInvalidKey) {
				t.Errorf("expected invalid key, got %v", err)
			}
		})
	}

	for _, s := range []string{"", "not-a-uuid_2026-03-02_0800_1200", id.String() + "_2026-03-02_0800", id.String() + "_2026-03-02_0800_12:00"} {
		if _, err := ParseKey(s); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("%q: expected invalid key, got %v", s, err)
		}
	}
}

func TestKey_Contains(t *testing.T) {
	id := uuid.New()
	key, _ := NewKey(id, "2026-03-02", clock.MustParse("08:00"), clock.MustParse("12:00"))

	at := func(doctorID uuid.UUID, date, start string) *appointment.Appointment {
		return &appointment.Appointment{DoctorID: doctorID, Date: date, StartTime: clock.MustParse(start)}
	}
	if !key.Contains(at(id, "2026-03-02", "08:00")) {
		t.Error("block start should be inside")
	}
	if key.Contains(at(id, "2026-03-02", "12:00")) {
		t.Error("block end should be outside")
	}
	if key.Contains(at(uuid.New(), "2026-03-02", "09:00")) {
		t.Error("other doctor should be outside")
	}
	if key.Contains(at(id, "2026-03-03", "09:00")) {
		t.Error("other date should be outside")
	}
}

func TestComputeStats(t *testing.T) {
	appts := []*appointment.Appointment{
		{IsPatientArrived: true, Payment: appointment.Payment{IsPaid: true}, ManualAppointmentAmount: 500},
		{IsPatientArrived: true, Payment: appointment.Payment{IsPaid: true, Refunded: true}, ManualAppointmentAmount: 300},
		{IsPatientArrived: true, ManualAppointmentAmount: 200},
		{Payment: appointment.Payment{IsPaid: true}, ManualAppointmentAmount: 100},
	}
	got := ComputeStats(appts)
	want := Stats{TotalPatients: 4, ArrivedPatients: 3, TotalDoctorFees: 500}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if (ComputeStats(nil) != Stats{}) {
		t.Error("expected zero stats for an empty block")
	}
}

func TestApply_CopiesAndBumpsVersion(t *testing.T) {
	key, _ := NewKey(uuid.New(), "2026-03-02", clock.MustParse("08:00"), clock.MustParse("12:00"))
	s := New(key, "Dr. Silva")
	if s.Stage() != StageNotArrived || s.Version != 1 {
		t.Fatalf("unexpected new session %+v", s)
	}

	arrived := true
	ids := []string{"a"}
	s.Apply(&UpdateSessionCommand{IsArrived: &arrived, AdditionalExpenseIDs: &ids})
	ids[0] = "mutated"

	if s.Stage() != StageArrived || s.Version != 2 {
		t.Errorf("unexpected session after apply %+v", s)
	}
	if s.AdditionalExpenseIDs[0] != "a" {
		t.Error("apply aliased the caller's slice")
	}

	c := s.Clone()
	c.AdditionalExpenseIDs[0] = "changed"
	if s.AdditionalExpenseIDs[0] != "a" {
		t.Error("clone aliased the expense id slice")
	}
	if c.Key() != key {
		t.Errorf("clone key %+v, want %+v", c.Key(), key)
	}
}
