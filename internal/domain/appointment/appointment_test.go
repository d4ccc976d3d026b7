package appointment

import (
	"errors"
	"testing"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/clock"
)

func TestValidate(t *testing.T) {
	start := clock.MustParse("09:00")
	tests := []struct {
		name string
		a    Appointment
		want error
	}{
		{"ok", Appointment{StartTime: start, EndTime: start.Add(30), DurationMins: 30}, nil},
		{"zero duration", Appointment{StartTime: start, EndTime: start, DurationMins: 0}, ErrInvalidDuration},
		{"end mismatch", Appointment{StartTime: start, EndTime: start.Add(45), DurationMins: 30}, ErrEndTimeMismatch},
		{"past midnight", Appointment{StartTime: clock.MustParse("23:30"), EndTime: clock.MustParse("23:30").Add(60), DurationMins: 60}, ErrInvalidDuration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.a.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestIsBillable(t *testing.T) {
	tests := []struct {
		arrived bool
		payment Payment
		want    bool
	}{
		{true, Payment{IsPaid: true}, true},
		{true, Payment{IsPaid: true, Refunded: true}, false},
		{false, Payment{IsPaid: true}, false},
		{true, Payment{}, false},
	}
	for _, tt := range tests {
		a := Appointment{IsPatientArrived: tt.arrived, Payment: tt.payment}
		if got := a.IsBillable(); got != tt.want {
			t.Errorf("arrived=%v payment=%+v: got %v", tt.arrived, tt.payment, got)
		}
	}
}

func TestStatus(t *testing.T) {
	if Status("pending").IsValid() {
		t.Error("unknown status reported valid")
	}
	for _, s := range []Status{StatusScheduled, StatusCompleted} {
		if !s.OccupiesGrid() {
			t.Errorf("%s should occupy the grid", s)
		}
	}
	for _, s := range []Status{StatusCancelled, StatusNoShow} {
		if s.OccupiesGrid() {
			t.Errorf("%s should free its slot", s)
		}
	}
}

func TestUpdateCommand(t *testing.T) {
	start := clock.MustParse("10:00")
	end := start.Add(30)
	cmd := &UpdateAppointmentCommand{StartTime: &start, EndTime: &end}

	a := &Appointment{StartTime: clock.MustParse("09:00"), EndTime: clock.MustParse("09:30"), DurationMins: 30, PatientName: "kept"}
	a.Apply(cmd)
	if a.StartTime != start || a.EndTime != end || a.PatientName != "kept" {
		t.Errorf("unexpected appointment after apply %+v", a)
	}

	fields := cmd.Fields()
	if len(fields) != 2 || fields["start_time"] != start || fields["end_time"] != end {
		t.Errorf("unexpected fields %v", fields)
	}
}
