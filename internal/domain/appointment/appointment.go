package appointment

import (
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/clock"
	"github.com/google/uuid"
)

// Status transitions are driven by the booking and front-desk flows:
//
//	scheduled → completed
//	scheduled → cancelled
//	scheduled → no_show
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// OccupiesGrid reports whether an appointment in this status still blocks its time slot.
func (s Status) OccupiesGrid() bool {
	return s != StatusCancelled && s != StatusNoShow
}

type Payment struct {
	IsPaid   bool `gorm:"column:is_paid;default:false" json:"is_paid"`
	Refunded bool `gorm:"column:refunded;default:false" json:"refunded"`
}

type Appointment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	DoctorID       uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index:idx_appointments_doctor_day" json:"doctor_id"`
	PatientName    string    `gorm:"column:patient_name;type:varchar(200);not null" json:"patient_name"`
	PatientContact string    `gorm:"column:patient_contact;type:varchar(50)" json:"patient_contact"`

	Date         string          `gorm:"column:date;type:varchar(10);not null;index:idx_appointments_doctor_day" json:"date"`
	StartTime    clock.TimeOfDay `gorm:"column:start_time;not null" json:"start_time"`
	EndTime      clock.TimeOfDay `gorm:"column:end_time;not null" json:"end_time"`
	DurationMins int             `gorm:"column:duration_mins;not null" json:"duration_mins"`
	Status       Status          `gorm:"column:status;type:varchar(20);not null;default:'scheduled'" json:"status"`

	IsPatientArrived bool    `gorm:"column:is_patient_arrived;default:false" json:"is_patient_arrived"`
	Payment          Payment `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`

	// Fee owed to the doctor for this appointment, in minor currency units.
	ManualAppointmentAmount int64 `gorm:"column:manual_appointment_amount;not null;default:0" json:"manual_appointment_amount"`

	// Composite key of the doctor session this appointment belongs to, once stamped.
	SessionID string `gorm:"column:session_id;type:varchar(128);index" json:"session_id,omitempty"`
}

func (Appointment) TableName() string {
	return "clinical.appointments"
}

// Validate checks the duration and end-time invariants.
func (a *Appointment) Validate() error {
	if a.DurationMins <= 0 {
		return ErrInvalidDuration
	}
	if a.EndTime != a.StartTime.Add(a.DurationMins) {
		return ErrEndTimeMismatch
	}
	if !a.StartTime.Valid() || !a.EndTime.Valid() {
		return ErrInvalidDuration
	}
	return nil
}

// IsBillable reports whether the doctor is owed this appointment's fee.
func (a *Appointment) IsBillable() bool {
	return a.Payment.IsPaid && a.IsPatientArrived && !a.Payment.Refunded
}

// Overlaps tests the half-open intervals [StartTime, EndTime) and [start, end).
func (a *Appointment) Overlaps(start, end clock.TimeOfDay) bool {
	return start < a.EndTime && a.StartTime < end
}

// Clone returns a shallow copy; Appointment has no reference fields.
func (a *Appointment) Clone() *Appointment {
	c := *a
	return &c
}

type CreateAppointmentCommand struct {
	DoctorID                uuid.UUID
	PatientName             string
	PatientContact          string
	Date                    string
	StartTime               clock.TimeOfDay
	DurationMins            int
	ManualAppointmentAmount int64
}

// UpdateAppointmentCommand carries the fields a single store update may change.
// Nil fields are left untouched.
type UpdateAppointmentCommand struct {
	StartTime        *clock.TimeOfDay
	EndTime          *clock.TimeOfDay
	DurationMins     *int
	Status           *Status
	IsPatientArrived *bool
	Payment          *Payment
	SessionID        *string
}

// Apply copies the non-nil fields of cmd onto a.
func (a *Appointment) Apply(cmd *UpdateAppointmentCommand) {
	if cmd.StartTime != nil {
		a.StartTime = *cmd.StartTime
	}
	if cmd.EndTime != nil {
		a.EndTime = *cmd.EndTime
	}
	if cmd.DurationMins != nil {
		a.DurationMins = *cmd.DurationMins
	}
	if cmd.Status != nil {
		a.Status = *cmd.Status
	}
	if cmd.IsPatientArrived != nil {
		a.IsPatientArrived = *cmd.IsPatientArrived
	}
	if cmd.Payment != nil {
		a.Payment = *cmd.Payment
	}
	if cmd.SessionID != nil {
		a.SessionID = *cmd.SessionID
	}
}

// Fields renders cmd as column → value pairs for partial updates.
func (cmd *UpdateAppointmentCommand) Fields() map[string]any {
	fields := make(map[string]any)
	if cmd.StartTime != nil {
		fields["start_time"] = *cmd.StartTime
	}
	if cmd.EndTime != nil {
		fields["end_time"] = *cmd.EndTime
	}
	if cmd.DurationMins != nil {
		fields["duration_mins"] = *cmd.DurationMins
	}
	if cmd.Status != nil {
		fields["status"] = *cmd.Status
	}
	if cmd.IsPatientArrived != nil {
		fields["is_patient_arrived"] = *cmd.IsPatientArrived
	}
	if cmd.Payment != nil {
		fields["payment_is_paid"] = cmd.Payment.IsPaid
		fields["payment_refunded"] = cmd.Payment.Refunded
	}
	if cmd.SessionID != nil {
		fields["session_id"] = *cmd.SessionID
	}
	return fields
}
