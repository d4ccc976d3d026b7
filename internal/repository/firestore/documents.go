// Package firestore implements the domain repositories on Cloud Firestore.
// Times of day are stored as "HH:MM" strings and dates as "YYYY-MM-DD".
package firestore

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/clock"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/session"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	colAppointments = "appointments"
	colSessions     = "doctorSessions"
	colExpenses     = "expenses"
	colCategories   = "expenseCategories"
	colDoctors      = "doctors"
	colAuditLogs    = "auditLogs"
)

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func isAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}

type paymentDoc struct {
	IsPaid   bool `firestore:"isPaid"`
	Refunded bool `firestore:"refunded"`
}

type appointmentDoc struct {
	DoctorID                string     `firestore:"doctorId"`
	PatientName             string     `firestore:"patientName"`
	PatientContact          string     `firestore:"patientContact"`
	Date                    string     `firestore:"date"`
	StartTime               string     `firestore:"startTime"`
	EndTime                 string     `firestore:"endTime"`
	Duration                int        `firestore:"duration"`
	Status                  string     `firestore:"status"`
	IsPatientArrived        bool       `firestore:"isPatientArrived"`
	Payment                 paymentDoc `firestore:"payment"`
	ManualAppointmentAmount int64      `firestore:"manualAppointmentAmount"`
	SessionID               string     `firestore:"sessionId,omitempty"`
	CreatedAt               time.Time  `firestore:"createdAt"`
	UpdatedAt               time.Time  `firestore:"updatedAt"`
}

func toAppointmentDoc(a *appointment.Appointment) appointmentDoc {
	return appointmentDoc{
		DoctorID:                a.DoctorID.String(),
		PatientName:             a.PatientName,
		PatientContact:          a.PatientContact,
		Date:                    a.Date,
		StartTime:               a.StartTime.String(),
		EndTime:                 a.EndTime.String(),
		Duration:                a.DurationMins,
		Status:                  string(a.Status),
		IsPatientArrived:        a.IsPatientArrived,
		Payment:                 paymentDoc{IsPaid: a.Payment.IsPaid, Refunded: a.Payment.Refunded},
		ManualAppointmentAmount: a.ManualAppointmentAmount,
		SessionID:               a.SessionID,
		CreatedAt:               a.CreatedAt,
		UpdatedAt:               a.UpdatedAt,
	}
}

func (d appointmentDoc) toDomain(id string) (*appointment.Appointment, error) {
	apptID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("appointment %q: %w", id, err)
	}
	doctorID, err := uuid.Parse(d.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("appointment %s doctor id: %w", id, err)
	}
	start, errStart := clock.Parse(d.StartTime)
	end, errEnd := clock.Parse(d.EndTime)
	if err := errors.Join(errStart, errEnd); err != nil {
		return nil, fmt.Errorf("appointment %s times: %w", id, err)
	}
	return &appointment.Appointment{
		ID:                      apptID,
		CreatedAt:               d.CreatedAt,
		UpdatedAt:               d.UpdatedAt,
		DoctorID:                doctorID,
		PatientName:             d.PatientName,
		PatientContact:          d.PatientContact,
		Date:                    d.Date,
		StartTime:               start,
		EndTime:                 end,
		DurationMins:            d.Duration,
		Status:                  appointment.Status(d.Status),
		IsPatientArrived:        d.IsPatientArrived,
		Payment:                 appointment.Payment{IsPaid: d.Payment.IsPaid, Refunded: d.Payment.Refunded},
		ManualAppointmentAmount: d.ManualAppointmentAmount,
		SessionID:               d.SessionID,
	}, nil
}

type sessionDoc struct {
	DoctorID   string `firestore:"doctorId"`
	DoctorName string `firestore:"doctorName"`
	Date       string `firestore:"date"`
	StartTime  string `firestore:"startTime"`
	EndTime    string `firestore:"endTime"`

	IsArrived  bool       `firestore:"isArrived"`
	ArrivedAt  *time.Time `firestore:"arrivedAt"`
	IsDeparted bool       `firestore:"isDeparted"`
	DepartedAt *time.Time `firestore:"departedAt"`
	IsPaid     bool       `firestore:"isPaid"`
	PaidAt     *time.Time `firestore:"paidAt"`

	TotalDoctorFees int64 `firestore:"totalDoctorFees"`
	TotalPatients   int   `firestore:"totalPatients"`
	ArrivedPatients int   `firestore:"arrivedPatients"`

	ExpenseID                 string   `firestore:"expenseId,omitempty"`
	AdditionalExpenseIDs      []string `firestore:"additionalExpenseIds"`
	TotalAdditionalDoctorFees int64    `firestore:"totalAdditionalDoctorFees"`

	Version   int       `firestore:"version"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func toSessionDoc(s *session.DoctorSession) sessionDoc {
	d := sessionDoc{
		DoctorID:                  s.DoctorID.String(),
		DoctorName:                s.DoctorName,
		Date:                      s.Date,
		StartTime:                 s.StartTime.String(),
		EndTime:                   s.EndTime.String(),
		IsArrived:                 s.IsArrived,
		ArrivedAt:                 s.ArrivedAt,
		IsDeparted:                s.IsDeparted,
		DepartedAt:                s.DepartedAt,
		IsPaid:                    s.IsPaid,
		PaidAt:                    s.PaidAt,
		TotalDoctorFees:           s.TotalDoctorFees,
		TotalPatients:             s.TotalPatients,
		ArrivedPatients:           s.ArrivedPatients,
		AdditionalExpenseIDs:      s.AdditionalExpenseIDs,
		TotalAdditionalDoctorFees: s.TotalAdditionalDoctorFees,
		Version:                   s.Version,
		CreatedAt:                 s.CreatedAt,
		UpdatedAt:                 s.UpdatedAt,
	}
	if s.ExpenseID != nil {
		d.ExpenseID = s.ExpenseID.String()
	}
	if d.AdditionalExpenseIDs == nil {
		d.AdditionalExpenseIDs = []string{}
	}
	return d
}

func (d sessionDoc) toDomain(id string) (*session.DoctorSession, error) {
	key, err := session.ParseKey(id)
	if err != nil {
		return nil, err
	}
	s := &session.DoctorSession{
		ID:                        id,
		CreatedAt:                 d.CreatedAt,
		UpdatedAt:                 d.UpdatedAt,
		DoctorID:                  key.DoctorID,
		DoctorName:                d.DoctorName,
		Date:                      key.Date,
		StartTime:                 key.Start,
		EndTime:                   key.End,
		IsArrived:                 d.IsArrived,
		ArrivedAt:                 d.ArrivedAt,
		IsDeparted:                d.IsDeparted,
		DepartedAt:                d.DepartedAt,
		IsPaid:                    d.IsPaid,
		PaidAt:                    d.PaidAt,
		TotalDoctorFees:           d.TotalDoctorFees,
		TotalPatients:             d.TotalPatients,
		ArrivedPatients:           d.ArrivedPatients,
		AdditionalExpenseIDs:      append([]string{}, d.AdditionalExpenseIDs...),
		TotalAdditionalDoctorFees: d.TotalAdditionalDoctorFees,
		Version:                   d.Version,
	}
	if d.ExpenseID != "" {
		expenseID, err := uuid.Parse(d.ExpenseID)
		if err != nil {
			return nil, fmt.Errorf("session %s expense id: %w", id, err)
		}
		s.ExpenseID = &expenseID
	}
	return s, nil
}
