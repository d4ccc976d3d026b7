package postgres

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/ledger"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LedgerRepository struct {
	db      *gorm.DB
	metrics *metrics.Collector
}

func NewLedgerRepository(db *gorm.DB, m *metrics.Collector) *LedgerRepository {
	return &LedgerRepository{db: db, metrics: m}
}

func (r *LedgerRepository) EnsureCategory(ctx context.Context, name string) (uuid.UUID, error) {
	defer r.metrics.ObserveStore("ensure_category", "categories", time.Now())

	c := ledger.Category{ID: ledger.CategoryID(name), Name: name}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&c).Error
	if err != nil {
		return uuid.Nil, fmt.Errorf("ensuring category %q: %w", name, err)
	}

	var stored ledger.Category
	if err := r.db.WithContext(ctx).First(&stored, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, ledger.ErrCategoryNotFound
		}
		return uuid.Nil, fmt.Errorf("loading category %q: %w", name, err)
	}
	return stored.ID, nil
}

func (r *LedgerRepository) CreateExpense(ctx context.Context, e *ledger.Expense) (*ledger.Expense, bool, error) {
	defer r.metrics.ObserveStore("create", "expenses", time.Now())

	if err := e.Validate(); err != nil {
		return nil, false, err
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(e)
	if result.Error != nil {
		return nil, false, fmt.Errorf("inserting expense %s: %w", e.ID, result.Error)
	}
	if result.RowsAffected > 0 {
		stored := *e
		return &stored, true, nil
	}

	var stored ledger.Expense
	if err := r.db.WithContext(ctx).First(&stored, "id = ?", e.ID).Error; err != nil {
		return nil, false, fmt.Errorf("loading existing expense %s: %w", e.ID, err)
	}
	return &stored, false, nil
}

// jsonStrings encodes a string slice for the json-serialized text columns.
type jsonStrings []string

func (s jsonStrings) Value() (driver.Value, error) {
	if s == nil {
		s = jsonStrings{}
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
