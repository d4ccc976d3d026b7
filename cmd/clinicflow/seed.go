package main

import (
	"context"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/calendar"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/clock"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/doctor"
	"github.com/google/uuid"
)

// Fixed ids so demo URLs stay stable across restarts.
var demoDoctors = []doctor.Doctor{
	{ID: uuid.MustParse("0b8e5f4a-6a0c-4d3b-9a61-1f2e3d4c5b60"), Name: "Dr. Amara Silva", Specialty: "General practice"},
	{ID: uuid.MustParse("5d2c7e19-3b84-4f6a-8c0d-7e1f2a3b4c51"), Name: "Dr. Kenji Ito", Specialty: "Dermatology"},
}

type demoBooking struct {
	start   int // slot index from the start of working hours
	dur     int
	patient string
	fee     int64
	arrived bool
	paid    bool
}

var demoBookings = []demoBooking{
	{0, 30, "Noor Haddad", 2500, true, true},
	{1, 45, "Luis Ortega", 2500, true, true},
	{1, 30, "Priya Nair", 3000, false, true},
	{4, 15, "Tomás Novak", 1500, true, false},
	{6, 60, "Ada Mensah", 4000, false, false},
	{10, 30, "Jonas Berg", 2500, false, false},
}

// seedDemo books today's demo appointments for every demo doctor.
func seedDemo(ctx context.Context, st *memoryStores, grid *calendar.Grid) error {
	cfg := grid.Config()
	today := time.Now().UTC().Format(clock.DateLayout)
	created := time.Now().UTC().Add(-24 * time.Hour)

	for _, d := range demoDoctors {
		st.doctors.Add(d)
		for _, b := range demoBookings {
			start := cfg.WorkStart.Add(b.start * cfg.SlotMinutes)
			a := &appointment.Appointment{
				DoctorID:                d.ID,
				PatientName:             b.patient,
				Date:                    today,
				StartTime:               start,
				EndTime:                 start.Add(b.dur),
				DurationMins:            b.dur,
				IsPatientArrived:        b.arrived,
				Payment:                 appointment.Payment{IsPaid: b.paid},
				ManualAppointmentAmount: b.fee,
				CreatedAt:               created,
			}
			if err := st.appts.Create(ctx, a); err != nil {
				return err
			}
		}
	}
	return nil
}
