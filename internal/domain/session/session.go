package session

import (
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/clock"
	"github.com/google/uuid"
)

// UnknownDoctorName is stored when the doctor registry has no record for the session's doctor.
const UnknownDoctorName = "Unknown doctor"

// Stage is the arrival/departure position of a session:
//
//	not_arrived → arrived → departed
//
// Payment is orthogonal and only settles during the departure step.
type Stage string

const (
	StageNotArrived Stage = "not_arrived"
	StageArrived    Stage = "arrived"
	StageDeparted   Stage = "departed"
)

type DoctorSession struct {
	// ID is Key.String().
	ID        string    `gorm:"column:id;type:varchar(128);primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	DoctorID   uuid.UUID       `gorm:"column:doctor_id;type:uuid;not null;index" json:"doctor_id"`
	DoctorName string          `gorm:"column:doctor_name;type:varchar(200)" json:"doctor_name"`
	Date       string          `gorm:"column:date;type:varchar(10);not null;index" json:"date"`
	StartTime  clock.TimeOfDay `gorm:"column:start_time;not null" json:"start_time"`
	EndTime    clock.TimeOfDay `gorm:"column:end_time;not null" json:"end_time"`

	IsArrived  bool       `gorm:"column:is_arrived;default:false" json:"is_arrived"`
	ArrivedAt  *time.Time `gorm:"column:arrived_at" json:"arrived_at,omitempty"`
	IsDeparted bool       `gorm:"column:is_departed;default:false" json:"is_departed"`
	DepartedAt *time.Time `gorm:"column:departed_at" json:"departed_at,omitempty"`
	IsPaid     bool       `gorm:"column:is_paid;default:false" json:"is_paid"`
	PaidAt     *time.Time `gorm:"column:paid_at" json:"paid_at,omitempty"`

	TotalDoctorFees int64 `gorm:"column:total_doctor_fees;not null;default:0" json:"total_doctor_fees"`
	TotalPatients   int   `gorm:"column:total_patients;not null;default:0" json:"total_patients"`
	ArrivedPatients int   `gorm:"column:arrived_patients;not null;default:0" json:"arrived_patients"`

	// Settlement expense created at departure.
	ExpenseID *uuid.UUID `gorm:"column:expense_id;type:uuid" json:"expense_id,omitempty"`
	// Top-up expenses billed after departure, oldest first.
	AdditionalExpenseIDs      []string `gorm:"column:additional_expense_ids;type:text;serializer:json" json:"additional_expense_ids"`
	TotalAdditionalDoctorFees int64    `gorm:"column:total_additional_doctor_fees;not null;default:0" json:"total_additional_doctor_fees"`

	// Version increments on every write and guards read-modify-write cycles.
	Version int `gorm:"column:version;not null;default:1" json:"version"`
}

func (DoctorSession) TableName() string {
	return "clinical.doctor_sessions"
}

// New returns a zeroed session for key.
func New(key Key, doctorName string) *DoctorSession {
	return &DoctorSession{
		ID:                   key.String(),
		DoctorID:             key.DoctorID,
		DoctorName:           doctorName,
		Date:                 key.Date,
		StartTime:            key.Start,
		EndTime:              key.End,
		AdditionalExpenseIDs: []string{},
		Version:              1,
	}
}

func (s *DoctorSession) Key() Key {
	return Key{DoctorID: s.DoctorID, Date: s.Date, Start: s.StartTime, End: s.EndTime}
}

func (s *DoctorSession) Stage() Stage {
	switch {
	case s.IsDeparted:
		return StageDeparted
	case s.IsArrived:
		return StageArrived
	default:
		return StageNotArrived
	}
}

func (s *DoctorSession) NotArrivedPatients() int {
	return s.TotalPatients - s.ArrivedPatients
}

func (s *DoctorSession) Clone() *DoctorSession {
	c := *s
	c.AdditionalExpenseIDs = append([]string(nil), s.AdditionalExpenseIDs...)
	if c.AdditionalExpenseIDs == nil {
		c.AdditionalExpenseIDs = []string{}
	}
	return &c
}

// Stats are the appointment-derived counters of a session.
type Stats struct {
	TotalPatients   int
	ArrivedPatients int
	TotalDoctorFees int64
}

// ComputeStats counts every appointment as a patient; only billable ones contribute fees.
func ComputeStats(appts []*appointment.Appointment) Stats {
	var st Stats
	for _, a := range appts {
		st.TotalPatients++
		if a.IsPatientArrived {
			st.ArrivedPatients++
		}
		if a.IsBillable() {
			st.TotalDoctorFees += a.ManualAppointmentAmount
		}
	}
	return st
}

// UpdateSessionCommand is a partial write guarded by ExpectedVersion.
type UpdateSessionCommand struct {
	ExpectedVersion int

	IsArrived  *bool
	ArrivedAt  *time.Time
	IsDeparted *bool
	DepartedAt *time.Time
	IsPaid     *bool
	PaidAt     *time.Time

	TotalDoctorFees *int64
	TotalPatients   *int
	ArrivedPatients *int

	ExpenseID                 *uuid.UUID
	AdditionalExpenseIDs      *[]string
	TotalAdditionalDoctorFees *int64
}

// Apply copies the non-nil fields of cmd onto s and bumps the version.
func (s *DoctorSession) Apply(cmd *UpdateSessionCommand) {
	if cmd.IsArrived != nil {
		s.IsArrived = *cmd.IsArrived
	}
	if cmd.ArrivedAt != nil {
		t := *cmd.ArrivedAt
		s.ArrivedAt = &t
	}
	if cmd.IsDeparted != nil {
		s.IsDeparted = *cmd.IsDeparted
	}
	if cmd.DepartedAt != nil {
		t := *cmd.DepartedAt
		s.DepartedAt = &t
	}
	if cmd.IsPaid != nil {
		s.IsPaid = *cmd.IsPaid
	}
	if cmd.PaidAt != nil {
		t := *cmd.PaidAt
		s.PaidAt = &t
	}
	if cmd.TotalDoctorFees != nil {
		s.TotalDoctorFees = *cmd.TotalDoctorFees
	}
	if cmd.TotalPatients != nil {
		s.TotalPatients = *cmd.TotalPatients
	}
	if cmd.ArrivedPatients != nil {
		s.ArrivedPatients = *cmd.ArrivedPatients
	}
	if cmd.ExpenseID != nil {
		id := *cmd.ExpenseID
		s.ExpenseID = &id
	}
	if cmd.AdditionalExpenseIDs != nil {
		s.AdditionalExpenseIDs = append([]string{}, (*cmd.AdditionalExpenseIDs)...)
	}
	if cmd.TotalAdditionalDoctorFees != nil {
		s.TotalAdditionalDoctorFees = *cmd.TotalAdditionalDoctorFees
	}
	s.Version++
}
