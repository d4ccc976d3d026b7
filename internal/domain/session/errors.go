package session

import "errors"

var (
	ErrSessionNotFound = errors.New("doctor session not found")
	ErrInvalidKey      = errors.New("invalid doctor session key")
	ErrNotArrived      = errors.New("doctor has not arrived for this session")
	ErrNoUnpaidFees    = errors.New("no unpaid post-departure fees to bill")
	ErrVersionConflict = errors.New("doctor session was modified concurrently")
)
