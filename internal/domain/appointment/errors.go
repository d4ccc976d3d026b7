package appointment

import "errors"

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrSlotOccupied        = errors.New("appointment time slot is already booked")
	ErrOutOfHours          = errors.New("appointment window falls outside working hours")
	ErrInvalidDuration     = errors.New("appointment duration must be positive and within the day")
	ErrEndTimeMismatch     = errors.New("appointment end time must equal start time plus duration")
	ErrInvalidStatus       = errors.New("invalid appointment status")
)
