package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/ledger"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/session"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PostDepartureInfo summarizes appointments booked after the doctor left.
type PostDepartureInfo struct {
	PostDeparturePatients   int   `json:"post_departure_patients"`
	BillablePatients        int   `json:"billable_patients"`
	PostDepartureFees       int64 `json:"post_departure_fees"`
	BilledFees              int64 `json:"billed_fees"`
	UnpaidPostDepartureFees int64 `json:"unpaid_post_departure_fees"`
}

// ComputePostDeparture partitions appts by creation time against the session's
// departure. A session that has not departed yields the zero value.
func ComputePostDeparture(s *session.DoctorSession, appts []*appointment.Appointment) PostDepartureInfo {
	var info PostDepartureInfo
	if !s.IsDeparted || s.DepartedAt == nil {
		return info
	}

	key := s.Key()
	for _, a := range appts {
		if !key.Contains(a) || !a.CreatedAt.After(*s.DepartedAt) {
			continue
		}
		info.PostDeparturePatients++
		if a.IsBillable() {
			info.BillablePatients++
			info.PostDepartureFees += a.ManualAppointmentAmount
		}
	}
	info.BilledFees = s.TotalAdditionalDoctorFees
	info.UnpaidPostDepartureFees = max(0, info.PostDepartureFees-s.TotalAdditionalDoctorFees)
	return info
}

type FeeReconciler struct {
	appts    appointment.Repository
	sessions session.Repository
	ledger   ledger.Repository
	category string
	metrics  *metrics.Collector
	log      *zap.Logger
}

func NewFeeReconciler(
	appts appointment.Repository,
	sessions session.Repository,
	ledgerRepo ledger.Repository,
	category string,
	m *metrics.Collector,
	log *zap.Logger,
) *FeeReconciler {
	if category == "" {
		category = ledger.DoctorFeesCategory
	}
	return &FeeReconciler{
		appts:    appts,
		sessions: sessions,
		ledger:   ledgerRepo,
		category: category,
		metrics:  m,
		log:      log,
	}
}

// Settlement is the outcome of settling a session's fees.
type Settlement struct {
	// ExpenseID is the session's primary settlement expense.
	ExpenseID uuid.UUID
	// Billed is the ledger total across the settlement and its adjustments.
	Billed int64
}

// SettlementExpense bills the session's full fee total. Expense ids derive from
// the session, so a retried departure replays the earlier writes; fees that
// grew since the last attempt are billed as adjustments until the ledger holds
// TotalDoctorFees. Billed can exceed the total when fees shrank between attempts.
func (f *FeeReconciler) SettlementExpense(ctx context.Context, s *session.DoctorSession) (Settlement, error) {
	out := Settlement{ExpenseID: ledger.SettlementExpenseID(s.ID)}
	for seq := 0; seq == 0 || out.Billed < s.TotalDoctorFees; seq++ {
		e := &ledger.Expense{
			ID:        out.ExpenseID,
			Date:      s.Date,
			Amount:    s.TotalDoctorFees - out.Billed,
			Details:   fmt.Sprintf("Doctor fees: %s, %s %s-%s, %d patients arrived", s.DoctorName, s.Date, s.StartTime, s.EndTime, s.ArrivedPatients),
			SessionID: s.ID,
			Kind:      ledger.KindSettlement,
		}
		if seq > 0 {
			e.ID = ledger.SettlementAdjustmentID(s.ID, seq)
			e.Details = "Adjustment. " + e.Details
		}
		stored, err := f.record(ctx, e)
		if err != nil {
			return Settlement{}, err
		}
		out.Billed += stored.Amount
	}

	if out.Billed != s.TotalDoctorFees {
		f.log.Warn("settlement differs from session fees",
			zap.String("session_id", s.ID),
			zap.Int64("total_doctor_fees", s.TotalDoctorFees),
			zap.Int64("billed", out.Billed),
		)
	}
	return out, nil
}

func (f *FeeReconciler) PostDepartureInfo(ctx context.Context, s *session.DoctorSession) (PostDepartureInfo, error) {
	if !s.IsDeparted {
		return PostDepartureInfo{}, nil
	}
	appts, err := f.appts.ListByBlock(ctx, s.Key().Block())
	if err != nil {
		return PostDepartureInfo{}, fmt.Errorf("loading session appointments: %w", err)
	}
	return ComputePostDeparture(s, appts), nil
}

// CreatePostDepartureExpense bills only the unbilled delta of post-departure
// fees and records it on the session in a single write. The session is credited
// with the amount the ledger stored: a retry whose delta grew since a failed
// attempt replays that attempt's expense, and the rest stays unpaid for the
// next top-up.
func (f *FeeReconciler) CreatePostDepartureExpense(ctx context.Context, s *session.DoctorSession) (*session.DoctorSession, uuid.UUID, int64, error) {
	info, err := f.PostDepartureInfo(ctx, s)
	if err != nil {
		return nil, uuid.Nil, 0, err
	}
	amount := info.UnpaidPostDepartureFees
	if amount <= 0 {
		return nil, uuid.Nil, 0, session.ErrNoUnpaidFees
	}

	seq := len(s.AdditionalExpenseIDs) + 1
	e := &ledger.Expense{
		ID:        ledger.TopUpExpenseID(s.ID, seq),
		Date:      s.Date,
		Amount:    amount,
		Details:   fmt.Sprintf("Post-departure doctor fees: %s, %s %s-%s, %d patients", s.DoctorName, s.Date, s.StartTime, s.EndTime, info.BillablePatients),
		SessionID: s.ID,
		Kind:      ledger.KindPostDeparture,
	}
	stored, err := f.record(ctx, e)
	if err != nil {
		return nil, uuid.Nil, 0, err
	}
	amount = stored.Amount

	ids := append(append([]string{}, s.AdditionalExpenseIDs...), stored.ID.String())
	total := s.TotalAdditionalDoctorFees + amount
	updated, err := f.sessions.Update(ctx, s.Key(), &session.UpdateSessionCommand{
		ExpectedVersion:           s.Version,
		AdditionalExpenseIDs:      &ids,
		TotalAdditionalDoctorFees: &total,
	})
	if err != nil {
		if errors.Is(err, session.ErrVersionConflict) || errors.Is(err, session.ErrSessionNotFound) {
			return nil, uuid.Nil, 0, err
		}
		return nil, uuid.Nil, 0, storeWriteFailed("recording top-up on session", err)
	}

	f.log.Info("post-departure fees billed",
		zap.String("session_id", s.ID),
		zap.String("expense_id", stored.ID.String()),
		zap.Int64("amount", amount),
	)
	return updated, stored.ID, amount, nil
}

// record returns the expense as stored, which is an earlier write when e.ID
// was already used.
func (f *FeeReconciler) record(ctx context.Context, e *ledger.Expense) (*ledger.Expense, error) {
	categoryID, err := f.ledger.EnsureCategory(ctx, f.category)
	if err != nil {
		return nil, storeWriteFailed("ensuring expense category", err)
	}
	e.CategoryID = categoryID
	stored, created, err := f.ledger.CreateExpense(ctx, e)
	if err != nil {
		return nil, storeWriteFailed("creating expense", err)
	}
	if created {
		f.metrics.Expense(string(stored.Kind), stored.Amount)
	} else {
		f.log.Info("expense replayed",
			zap.String("expense_id", stored.ID.String()),
			zap.Int64("stored_amount", stored.Amount),
			zap.Int64("requested_amount", e.Amount),
		)
	}
	return stored, nil
}
