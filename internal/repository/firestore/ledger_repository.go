package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/ledger"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/metrics"
	"github.com/google/uuid"
)

type categoryDoc struct {
	Name      string    `firestore:"name"`
	CreatedAt time.Time `firestore:"createdAt"`
}

type expenseDoc struct {
	Date       string    `firestore:"date"`
	Amount     int64     `firestore:"amount"`
	Details    string    `firestore:"details"`
	CategoryID string    `firestore:"categoryId"`
	SessionID  string    `firestore:"sessionId,omitempty"`
	Kind       string    `firestore:"kind,omitempty"`
	CreatedAt  time.Time `firestore:"createdAt"`
}

type LedgerRepository struct {
	client  *firestore.Client
	metrics *metrics.Collector
}

func NewLedgerRepository(client *firestore.Client, m *metrics.Collector) *LedgerRepository {
	return &LedgerRepository{client: client, metrics: m}
}

// EnsureCategory keys categories by their name-derived id so concurrent
// callers converge on one document.
func (r *LedgerRepository) EnsureCategory(ctx context.Context, name string) (uuid.UUID, error) {
	defer r.metrics.ObserveStore("ensure_category", colCategories, time.Now())

	id := ledger.CategoryID(name)
	_, err := r.client.Collection(colCategories).Doc(id.String()).
		Create(ctx, categoryDoc{Name: name, CreatedAt: time.Now().UTC()})
	if err != nil && !isAlreadyExists(err) {
		return uuid.Nil, fmt.Errorf("ensuring category %q: %w", name, err)
	}
	return id, nil
}

func (r *LedgerRepository) CreateExpense(ctx context.Context, e *ledger.Expense) (*ledger.Expense, bool, error) {
	defer r.metrics.ObserveStore("create", colExpenses, time.Now())

	if err := e.Validate(); err != nil {
		return nil, false, err
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	ref := r.client.Collection(colExpenses).Doc(e.ID.String())
	_, err := ref.Create(ctx, expenseDoc{
		Date:       e.Date,
		Amount:     e.Amount,
		Details:    e.Details,
		CategoryID: e.CategoryID.String(),
		SessionID:  e.SessionID,
		Kind:       string(e.Kind),
		CreatedAt:  e.CreatedAt,
	})
	if err == nil {
		stored := *e
		return &stored, true, nil
	}
	if !isAlreadyExists(err) {
		return nil, false, fmt.Errorf("creating expense %s: %w", e.ID, err)
	}

	snap, err := ref.Get(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("loading existing expense %s: %w", e.ID, err)
	}
	var doc expenseDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, false, fmt.Errorf("decoding expense %s: %w", e.ID, err)
	}
	return doc.toExpense(e.ID), false, nil
}

func (d expenseDoc) toExpense(id uuid.UUID) *ledger.Expense {
	categoryID, _ := uuid.Parse(d.CategoryID)
	return &ledger.Expense{
		ID:         id,
		CreatedAt:  d.CreatedAt,
		Date:       d.Date,
		Amount:     d.Amount,
		Details:    d.Details,
		CategoryID: categoryID,
		SessionID:  d.SessionID,
		Kind:       ledger.Kind(d.Kind),
	}
}

type doctorDoc struct {
	Name      string    `firestore:"name"`
	Specialty string    `firestore:"specialty"`
	CreatedAt time.Time `firestore:"createdAt"`
}

type DoctorRegistry struct {
	client *firestore.Client
}

func NewDoctorRegistry(client *firestore.Client) *DoctorRegistry {
	return &DoctorRegistry{client: client}
}

func (r *DoctorRegistry) GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	snap, err := r.client.Collection(colDoctors).Doc(id.String()).Get(ctx)
	if isNotFound(err) {
		return nil, doctor.ErrDoctorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading doctor %s: %w", id, err)
	}
	var d doctorDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("decoding doctor %s: %w", id, err)
	}
	return &doctor.Doctor{ID: id, Name: d.Name, Specialty: d.Specialty, CreatedAt: d.CreatedAt}, nil
}

type AuditRepository struct {
	client *firestore.Client
}

func NewAuditRepository(client *firestore.Client) *AuditRepository {
	return &AuditRepository{client: client}
}

func (r *AuditRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}
	_, err := r.client.Collection(colAuditLogs).Doc(entry.ID.String()).Set(ctx, map[string]any{
		"occurredAt":   entry.OccurredAt,
		"actor":        entry.Actor,
		"ipAddress":    entry.IPAddress,
		"action":       string(entry.Action),
		"resourceType": entry.ResourceType,
		"resourceId":   entry.ResourceID,
		"requestId":    entry.RequestID,
		"changes":      entry.Changes,
	})
	return err
}
