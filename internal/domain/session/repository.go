package session

import "context"

type Repository interface {
	// GetByKey returns ErrSessionNotFound when no session exists for key.
	GetByKey(ctx context.Context, key Key) (*DoctorSession, error)

	// CreateIfAbsent atomically inserts s unless a session with the same ID exists.
	// It returns the stored session and whether this call created it.
	CreateIfAbsent(ctx context.Context, s *DoctorSession) (*DoctorSession, bool, error)

	// Update applies cmd when the stored version equals cmd.ExpectedVersion.
	// Returns ErrVersionConflict on mismatch and ErrSessionNotFound for unknown keys.
	Update(ctx context.Context, key Key, cmd *UpdateSessionCommand) (*DoctorSession, error)
}
