package appointment

import (
	"context"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/clock"
	"github.com/google/uuid"
)

// Block identifies a doctor's working block; appointments whose start time falls
// in [Start, End) on Date belong to it.
type Block struct {
	DoctorID uuid.UUID
	Date     string
	Start    clock.TimeOfDay
	End      clock.TimeOfDay
}

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// ListByDoctorAndDate returns the doctor's appointments for one day ordered by start time.
	ListByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date string) ([]*Appointment, error)

	// ListByBlock returns the appointments of one doctor session, ordered by start time.
	ListByBlock(ctx context.Context, b Block) ([]*Appointment, error)

	// Update applies cmd as a single write. Returns ErrAppointmentNotFound for unknown ids.
	Update(ctx context.Context, id uuid.UUID, cmd *UpdateAppointmentCommand) (*Appointment, error)
}
