package ledger

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// DoctorFeesCategory is the expense category used for doctor fee settlements.
const DoctorFeesCategory = "Doctor Fees"

var (
	ErrInvalidExpense   = errors.New("expense requires a positive amount, a date and a category")
	ErrCategoryNotFound = errors.New("expense category not found")
)

type Kind string

const (
	KindSettlement    Kind = "settlement"
	KindPostDeparture Kind = "post_departure"
)

// namespace seeds name-based UUIDs so replays of the same billing write share an id.
var namespace = uuid.MustParse("6f1c8a52-0d39-4c38-9a7e-2b1f6d0c4e11")

// CategoryID derives the id of a category from its name.
func CategoryID(name string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte("category/"+name))
}

// SettlementExpenseID derives the id of the settlement expense of a session.
func SettlementExpenseID(sessionID string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte("settlement/"+sessionID))
}

// SettlementAdjustmentID derives the id of the seq-th settlement adjustment of a
// session, 1-based. Adjustments bill fees that grew between departure attempts.
func SettlementAdjustmentID(sessionID string, seq int) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte("settlement/"+sessionID+"/"+strconv.Itoa(seq)))
}

// TopUpExpenseID derives the id of the seq-th post-departure expense of a session, 1-based.
func TopUpExpenseID(sessionID string, seq int) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte("top-up/"+sessionID+"/"+strconv.Itoa(seq)))
}

type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	Name      string    `gorm:"column:name;type:varchar(100);uniqueIndex;not null" json:"name"`
}

func (Category) TableName() string {
	return "ledger.categories"
}

type Expense struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	Date       string    `gorm:"column:date;type:varchar(10);not null;index" json:"date"`
	Amount     int64     `gorm:"column:amount;not null" json:"amount"`
	Details    string    `gorm:"column:details;type:text" json:"details"`
	CategoryID uuid.UUID `gorm:"column:category_id;type:uuid;not null;index" json:"category_id"`
	SessionID  string    `gorm:"column:session_id;type:varchar(128);index" json:"session_id,omitempty"`
	Kind       Kind      `gorm:"column:kind;type:varchar(20)" json:"kind,omitempty"`
}

func (Expense) TableName() string {
	return "ledger.expenses"
}

func (e *Expense) Validate() error {
	if e.Amount <= 0 || e.Date == "" || e.CategoryID == uuid.Nil {
		return ErrInvalidExpense
	}
	return nil
}

type Repository interface {
	// EnsureCategory returns the id of the named category, creating it if needed.
	EnsureCategory(ctx context.Context, name string) (uuid.UUID, error)

	// CreateExpense stores e unless its id is taken, and returns the stored
	// expense and whether this call created it. A replayed id keeps the first
	// write, so a retried billing call never records the same expense twice;
	// callers account for the returned Amount, not the one they asked for.
	CreateExpense(ctx context.Context, e *Expense) (stored *Expense, created bool, err error)
}
