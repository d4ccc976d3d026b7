package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/ledger"
	"github.com/google/uuid"
)

type LedgerRepository struct {
	mu         sync.Mutex
	categories map[string]ledger.Category
	expenses   map[uuid.UUID]ledger.Expense
	now        func() time.Time
}

func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{
		categories: make(map[string]ledger.Category),
		expenses:   make(map[uuid.UUID]ledger.Expense),
		now:        time.Now,
	}
}

func (r *LedgerRepository) EnsureCategory(_ context.Context, name string) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.categories[name]; ok {
		return c.ID, nil
	}
	c := ledger.Category{ID: ledger.CategoryID(name), Name: name, CreatedAt: r.now().UTC()}
	r.categories[name] = c
	return c.ID, nil
}

func (r *LedgerRepository) CreateExpense(_ context.Context, e *ledger.Expense) (*ledger.Expense, bool, error) {
	if err := e.Validate(); err != nil {
		return nil, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if stored, ok := r.expenses[e.ID]; ok {
		return &stored, false, nil
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now().UTC()
	}
	r.expenses[e.ID] = *e
	stored := *e
	return &stored, true, nil
}

// Expenses returns every stored expense for sessionID, oldest first.
func (r *LedgerRepository) Expenses(sessionID string) []ledger.Expense {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []ledger.Expense
	for _, e := range r.expenses {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Expense returns the expense with id, if stored.
func (r *LedgerRepository) Expense(id uuid.UUID) (ledger.Expense, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.expenses[id]
	return e, ok
}
