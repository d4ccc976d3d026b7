package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/session"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/metrics"
)

type SessionRepository struct {
	client  *firestore.Client
	metrics *metrics.Collector
}

func NewSessionRepository(client *firestore.Client, m *metrics.Collector) *SessionRepository {
	return &SessionRepository{client: client, metrics: m}
}

func (r *SessionRepository) doc(id string) *firestore.DocumentRef {
	return r.client.Collection(colSessions).Doc(id)
}

func (r *SessionRepository) GetByKey(ctx context.Context, key session.Key) (*session.DoctorSession, error) {
	defer r.metrics.ObserveStore("get", colSessions, time.Now())
	return r.get(ctx, key.String())
}

func (r *SessionRepository) get(ctx context.Context, id string) (*session.DoctorSession, error) {
	snap, err := r.doc(id).Get(ctx)
	if isNotFound(err) {
		return nil, session.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading doctor session %s: %w", id, err)
	}
	return decodeSession(snap)
}

// CreateIfAbsent uses DocumentRef.Create, which fails with AlreadyExists
// when the document is present.
func (r *SessionRepository) CreateIfAbsent(ctx context.Context, s *session.DoctorSession) (*session.DoctorSession, bool, error) {
	defer r.metrics.ObserveStore("create_if_absent", colSessions, time.Now())

	row := s.Clone()
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	if row.Version == 0 {
		row.Version = 1
	}

	_, err := r.doc(row.ID).Create(ctx, toSessionDoc(row))
	switch {
	case err == nil:
		return row, true, nil
	case isAlreadyExists(err):
		stored, err := r.get(ctx, row.ID)
		if err != nil {
			return nil, false, err
		}
		return stored, false, nil
	default:
		return nil, false, fmt.Errorf("creating doctor session %s: %w", row.ID, err)
	}
}

func (r *SessionRepository) Update(ctx context.Context, key session.Key, cmd *session.UpdateSessionCommand) (*session.DoctorSession, error) {
	defer r.metrics.ObserveStore("update", colSessions, time.Now())

	ref := r.doc(key.String())
	var updated *session.DoctorSession
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if isNotFound(err) {
			return session.ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		s, err := decodeSession(snap)
		if err != nil {
			return err
		}
		if s.Version != cmd.ExpectedVersion {
			return session.ErrVersionConflict
		}
		s.Apply(cmd)
		s.UpdatedAt = time.Now().UTC()
		updated = s
		return tx.Set(ref, toSessionDoc(s))
	})
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) || errors.Is(err, session.ErrVersionConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("updating doctor session %s: %w", key, err)
	}
	return updated, nil
}

func decodeSession(snap *firestore.DocumentSnapshot) (*session.DoctorSession, error) {
	var d sessionDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("decoding doctor session %s: %w", snap.Ref.ID, err)
	}
	return d.toDomain(snap.Ref.ID)
}
