package firestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/metrics"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

type AppointmentRepository struct {
	client  *firestore.Client
	metrics *metrics.Collector
}

func NewAppointmentRepository(client *firestore.Client, m *metrics.Collector) *AppointmentRepository {
	return &AppointmentRepository{client: client, metrics: m}
}

func (r *AppointmentRepository) doc(id uuid.UUID) *firestore.DocumentRef {
	return r.client.Collection(colAppointments).Doc(id.String())
}

func (r *AppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	defer r.metrics.ObserveStore("create", colAppointments, time.Now())

	if err := a.Validate(); err != nil {
		return err
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = appointment.StatusScheduled
	}

	if _, err := r.doc(a.ID).Create(ctx, toAppointmentDoc(a)); err != nil {
		return fmt.Errorf("creating appointment %s: %w", a.ID, err)
	}
	return nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	defer r.metrics.ObserveStore("get", colAppointments, time.Now())

	snap, err := r.doc(id).Get(ctx)
	if isNotFound(err) {
		return nil, appointment.ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading appointment %s: %w", id, err)
	}
	return decodeAppointment(snap)
}

func (r *AppointmentRepository) ListByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date string) ([]*appointment.Appointment, error) {
	defer r.metrics.ObserveStore("list_day", colAppointments, time.Now())

	q := r.client.Collection(colAppointments).
		Where("doctorId", "==", doctorID.String()).
		Where("date", "==", date)
	return r.query(ctx, q, func(*appointment.Appointment) bool { return true })
}

func (r *AppointmentRepository) ListByBlock(ctx context.Context, b appointment.Block) ([]*appointment.Appointment, error) {
	defer r.metrics.ObserveStore("list_block", colAppointments, time.Now())

	// Equality filters only, so no composite index is required; the block
	// bounds are applied after decoding.
	q := r.client.Collection(colAppointments).
		Where("doctorId", "==", b.DoctorID.String()).
		Where("date", "==", b.Date)
	return r.query(ctx, q, func(a *appointment.Appointment) bool {
		return a.StartTime >= b.Start && a.StartTime < b.End
	})
}

func (r *AppointmentRepository) query(ctx context.Context, q firestore.Query, keep func(*appointment.Appointment) bool) ([]*appointment.Appointment, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	out := make([]*appointment.Appointment, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("querying appointments: %w", err)
		}
		a, err := decodeAppointment(snap)
		if err != nil {
			return nil, err
		}
		if keep(a) {
			out = append(out, a)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Update validates the patched appointment inside a transaction and writes it once.
func (r *AppointmentRepository) Update(ctx context.Context, id uuid.UUID, cmd *appointment.UpdateAppointmentCommand) (*appointment.Appointment, error) {
	defer r.metrics.ObserveStore("update", colAppointments, time.Now())

	ref := r.doc(id)
	var updated *appointment.Appointment
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if isNotFound(err) {
			return appointment.ErrAppointmentNotFound
		}
		if err != nil {
			return err
		}
		a, err := decodeAppointment(snap)
		if err != nil {
			return err
		}
		a.Apply(cmd)
		if err := a.Validate(); err != nil {
			return err
		}
		a.UpdatedAt = time.Now().UTC()
		updated = a
		return tx.Set(ref, toAppointmentDoc(a))
	})
	if err != nil {
		if errors.Is(err, appointment.ErrAppointmentNotFound) ||
			errors.Is(err, appointment.ErrEndTimeMismatch) ||
			errors.Is(err, appointment.ErrInvalidDuration) {
			return nil, err
		}
		return nil, fmt.Errorf("updating appointment %s: %w", id, err)
	}
	return updated, nil
}

func decodeAppointment(snap *firestore.DocumentSnapshot) (*appointment.Appointment, error) {
	var d appointmentDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("decoding appointment %s: %w", snap.Ref.ID, err)
	}
	return d.toDomain(snap.Ref.ID)
}
