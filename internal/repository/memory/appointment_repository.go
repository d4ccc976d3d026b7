// Package memory holds mutex-guarded in-process stores. They back the
// memory STORE_BACKEND and the service tests; every read and write copies
// records so callers never share state with the store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/google/uuid"
)

type AppointmentRepository struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*appointment.Appointment
	order []uuid.UUID
	now   func() time.Time
}

func NewAppointmentRepository() *AppointmentRepository {
	return &AppointmentRepository{
		byID: make(map[uuid.UUID]*appointment.Appointment),
		now:  time.Now,
	}
}

func (r *AppointmentRepository) Create(_ context.Context, a *appointment.Appointment) error {
	if err := a.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := r.now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = appointment.StatusScheduled
	}

	if _, exists := r.byID[a.ID]; !exists {
		r.order = append(r.order, a.ID)
	}
	r.byID[a.ID] = a.Clone()
	return nil
}

func (r *AppointmentRepository) GetByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return a.Clone(), nil
}

func (r *AppointmentRepository) ListByDoctorAndDate(_ context.Context, doctorID uuid.UUID, date string) ([]*appointment.Appointment, error) {
	return r.filter(func(a *appointment.Appointment) bool {
		return a.DoctorID == doctorID && a.Date == date
	}), nil
}

func (r *AppointmentRepository) ListByBlock(_ context.Context, b appointment.Block) ([]*appointment.Appointment, error) {
	return r.filter(func(a *appointment.Appointment) bool {
		return a.DoctorID == b.DoctorID && a.Date == b.Date && a.StartTime >= b.Start && a.StartTime < b.End
	}), nil
}

func (r *AppointmentRepository) Update(_ context.Context, id uuid.UUID, cmd *appointment.UpdateAppointmentCommand) (*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}

	next := stored.Clone()
	next.Apply(cmd)
	if err := next.Validate(); err != nil {
		return nil, err
	}
	next.UpdatedAt = r.now().UTC()
	r.byID[id] = next
	return next.Clone(), nil
}

// filter returns matches ordered by start time, then by insertion.
func (r *AppointmentRepository) filter(match func(*appointment.Appointment) bool) []*appointment.Appointment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*appointment.Appointment, 0)
	for _, id := range r.order {
		if a := r.byID[id]; match(a) {
			out = append(out, a.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime < out[j].StartTime
	})
	return out
}
