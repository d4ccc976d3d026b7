package session

import (
	"fmt"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/clock"
	"github.com/google/uuid"
)

const keySeparator = "_"

// Key is the deterministic identity of a doctor's working block. Repeated
// lookups for the same doctor, date and block always resolve to the same session.
type Key struct {
	DoctorID uuid.UUID
	Date     string
	Start    clock.TimeOfDay
	End      clock.TimeOfDay
}

func NewKey(doctorID uuid.UUID, date string, start, end clock.TimeOfDay) (Key, error) {
	if doctorID == uuid.Nil {
		return Key{}, fmt.Errorf("%w: doctor id is required", ErrInvalidKey)
	}
	d, err := clock.ParseDate(date)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	if !start.Valid() || !end.Valid() || start >= end {
		return Key{}, fmt.Errorf("%w: block %s-%s", ErrInvalidKey, start, end)
	}
	return Key{DoctorID: doctorID, Date: d, Start: start, End: end}, nil
}

// String renders doctorID_date_HHMM_HHMM.
func (k Key) String() string {
	return strings.Join([]string{k.DoctorID.String(), k.Date, k.Start.Compact(), k.End.Compact()}, keySeparator)
}

// ParseKey is the inverse of Key.String.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, keySeparator)
	if len(parts) != 4 {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	doctorID, err := uuid.Parse(parts[0])
	if err != nil {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	start, err := clock.ParseCompact(parts[2])
	if err != nil {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	end, err := clock.ParseCompact(parts[3])
	if err != nil {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	return NewKey(doctorID, parts[1], start, end)
}

func (k Key) Block() appointment.Block {
	return appointment.Block{DoctorID: k.DoctorID, Date: k.Date, Start: k.Start, End: k.End}
}

// Contains reports whether the appointment starts inside this block.
func (k Key) Contains(a *appointment.Appointment) bool {
	return a.DoctorID == k.DoctorID && a.Date == k.Date && a.StartTime >= k.Start && a.StartTime < k.End
}
