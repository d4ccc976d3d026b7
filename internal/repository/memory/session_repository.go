package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/session"
)

type SessionRepository struct {
	mu    sync.Mutex
	byKey map[string]*session.DoctorSession
	now   func() time.Time
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		byKey: make(map[string]*session.DoctorSession),
		now:   time.Now,
	}
}

func (r *SessionRepository) GetByKey(_ context.Context, key session.Key) (*session.DoctorSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byKey[key.String()]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (r *SessionRepository) CreateIfAbsent(_ context.Context, s *session.DoctorSession) (*session.DoctorSession, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byKey[s.ID]; ok {
		return existing.Clone(), false, nil
	}

	stored := s.Clone()
	now := r.now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if stored.Version == 0 {
		stored.Version = 1
	}
	r.byKey[stored.ID] = stored
	return stored.Clone(), true, nil
}

func (r *SessionRepository) Update(_ context.Context, key session.Key, cmd *session.UpdateSessionCommand) (*session.DoctorSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byKey[key.String()]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	if stored.Version != cmd.ExpectedVersion {
		return nil, session.ErrVersionConflict
	}

	next := stored.Clone()
	next.Apply(cmd)
	next.UpdatedAt = r.now().UTC()
	r.byKey[next.ID] = next
	return next.Clone(), nil
}

// Len reports the number of stored sessions.
func (r *SessionRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byKey)
}
