// Package postgres implements the domain repositories on gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository struct {
	db      *gorm.DB
	metrics *metrics.Collector
}

func NewAppointmentRepository(db *gorm.DB, m *metrics.Collector) *AppointmentRepository {
	return &AppointmentRepository{db: db, metrics: m}
}

func (r *AppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	defer r.metrics.ObserveStore("create", "appointments", time.Now())

	if err := a.Validate(); err != nil {
		return err
	}
	if a.Status == "" {
		a.Status = appointment.StatusScheduled
	}
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("inserting appointment: %w", err)
	}
	return nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	defer r.metrics.ObserveStore("get", "appointments", time.Now())

	var a appointment.Appointment
	err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, appointment.ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading appointment %s: %w", id, err)
	}
	return &a, nil
}

func (r *AppointmentRepository) ListByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date string) ([]*appointment.Appointment, error) {
	defer r.metrics.ObserveStore("list_day", "appointments", time.Now())

	var out []*appointment.Appointment
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND date = ?", doctorID, date).
		Order("start_time ASC, created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing appointments for doctor %s on %s: %w", doctorID, date, err)
	}
	return out, nil
}

func (r *AppointmentRepository) ListByBlock(ctx context.Context, b appointment.Block) ([]*appointment.Appointment, error) {
	defer r.metrics.ObserveStore("list_block", "appointments", time.Now())

	var out []*appointment.Appointment
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND date = ? AND start_time >= ? AND start_time < ?",
			b.DoctorID, b.Date, int(b.Start), int(b.End)).
		Order("start_time ASC, created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing appointments for block %s %s-%s: %w", b.Date, b.Start, b.End, err)
	}
	return out, nil
}

// Update writes every field of cmd in one UPDATE statement.
func (r *AppointmentRepository) Update(ctx context.Context, id uuid.UUID, cmd *appointment.UpdateAppointmentCommand) (*appointment.Appointment, error) {
	defer r.metrics.ObserveStore("update", "appointments", time.Now())

	fields := cmd.Fields()
	if len(fields) == 0 {
		return r.GetByID(ctx, id)
	}
	fields["updated_at"] = time.Now().UTC()

	res := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return nil, fmt.Errorf("updating appointment %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, appointment.ErrAppointmentNotFound
	}
	return r.GetByID(ctx, id)
}
