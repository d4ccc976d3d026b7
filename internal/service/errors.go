package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
)

var (
	// ErrStoreWriteFailed wraps any persistence failure on a committing write.
	// The record is left at its prior state.
	ErrStoreWriteFailed = errors.New("store write failed")
	ErrDragInProgress   = errors.New("another drag is already in progress")
	ErrDragNotActive    = errors.New("drag session is not active")
)

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

// ConflictError reports the appointment occupying a requested slot.
type ConflictError struct {
	Conflict *appointment.Appointment
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s-%s held by appointment %s",
		appointment.ErrSlotOccupied, e.Conflict.StartTime, e.Conflict.EndTime, e.Conflict.ID)
}

func (e *ConflictError) Unwrap() error {
	return appointment.ErrSlotOccupied
}

func storeWriteFailed(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreWriteFailed, err)
}

type AuditEntry struct {
	Actor        string
	Action       string
	ResourceType string
	ResourceID   string
	IPAddress    string
	RequestID    string
	Changes      string
}
