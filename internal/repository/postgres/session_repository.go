package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/session"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/metrics"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepository struct {
	db      *gorm.DB
	metrics *metrics.Collector
}

func NewSessionRepository(db *gorm.DB, m *metrics.Collector) *SessionRepository {
	return &SessionRepository{db: db, metrics: m}
}

func (r *SessionRepository) GetByKey(ctx context.Context, key session.Key) (*session.DoctorSession, error) {
	defer r.metrics.ObserveStore("get", "doctor_sessions", time.Now())
	return r.get(ctx, key.String())
}

func (r *SessionRepository) get(ctx context.Context, id string) (*session.DoctorSession, error) {
	var s session.DoctorSession
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, session.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading doctor session %s: %w", id, err)
	}
	if s.AdditionalExpenseIDs == nil {
		s.AdditionalExpenseIDs = []string{}
	}
	return &s, nil
}

// CreateIfAbsent relies on the primary key: INSERT ... ON CONFLICT (id) DO NOTHING
// affects zero rows when another writer got there first.
func (r *SessionRepository) CreateIfAbsent(ctx context.Context, s *session.DoctorSession) (*session.DoctorSession, bool, error) {
	defer r.metrics.ObserveStore("create_if_absent", "doctor_sessions", time.Now())

	row := s.Clone()
	if row.Version == 0 {
		row.Version = 1
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return nil, false, fmt.Errorf("inserting doctor session %s: %w", s.ID, res.Error)
	}

	stored, err := r.get(ctx, s.ID)
	if err != nil {
		return nil, false, err
	}
	return stored, res.RowsAffected == 1, nil
}

// Update is a compare-and-set on the version column.
func (r *SessionRepository) Update(ctx context.Context, key session.Key, cmd *session.UpdateSessionCommand) (*session.DoctorSession, error) {
	defer r.metrics.ObserveStore("update", "doctor_sessions", time.Now())

	id := key.String()
	fields := sessionFields(cmd)
	fields["version"] = gorm.Expr("version + 1")
	fields["updated_at"] = time.Now().UTC()

	res := r.db.WithContext(ctx).
		Model(&session.DoctorSession{}).
		Where("id = ? AND version = ?", id, cmd.ExpectedVersion).
		Updates(fields)
	if res.Error != nil {
		return nil, fmt.Errorf("updating doctor session %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.get(ctx, id); err != nil {
			return nil, err
		}
		return nil, session.ErrVersionConflict
	}
	return r.get(ctx, id)
}

func sessionFields(cmd *session.UpdateSessionCommand) map[string]any {
	fields := make(map[string]any)
	if cmd.IsArrived != nil {
		fields["is_arrived"] = *cmd.IsArrived
	}
	if cmd.ArrivedAt != nil {
		fields["arrived_at"] = *cmd.ArrivedAt
	}
	if cmd.IsDeparted != nil {
		fields["is_departed"] = *cmd.IsDeparted
	}
	if cmd.DepartedAt != nil {
		fields["departed_at"] = *cmd.DepartedAt
	}
	if cmd.IsPaid != nil {
		fields["is_paid"] = *cmd.IsPaid
	}
	if cmd.PaidAt != nil {
		fields["paid_at"] = *cmd.PaidAt
	}
	if cmd.TotalDoctorFees != nil {
		fields["total_doctor_fees"] = *cmd.TotalDoctorFees
	}
	if cmd.TotalPatients != nil {
		fields["total_patients"] = *cmd.TotalPatients
	}
	if cmd.ArrivedPatients != nil {
		fields["arrived_patients"] = *cmd.ArrivedPatients
	}
	if cmd.ExpenseID != nil {
		fields["expense_id"] = *cmd.ExpenseID
	}
	if cmd.AdditionalExpenseIDs != nil {
		// The column uses gorm's json serializer, which map updates bypass.
		fields["additional_expense_ids"] = jsonStrings(*cmd.AdditionalExpenseIDs)
	}
	if cmd.TotalAdditionalDoctorFees != nil {
		fields["total_additional_doctor_fees"] = *cmd.TotalAdditionalDoctorFees
	}
	return fields
}
