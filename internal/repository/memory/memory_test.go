package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/clock"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/ledger"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/session"
	"github.com/google/uuid"
)

func newAppt(doctorID uuid.UUID, start string, dur int) *appointment.Appointment {
	s := clock.MustParse(start)
	return &appointment.Appointment{
		DoctorID:     doctorID,
		PatientName:  "patient " + start,
		Date:         "2026-03-02",
		StartTime:    s,
		EndTime:      s.Add(dur),
		DurationMins: dur,
	}
}

func TestAppointmentRepository_ListOrderingAndBlock(t *testing.T) {
	ctx := context.Background()
	repo := NewAppointmentRepository()
	doc := uuid.New()

	for _, a := range []*appointment.Appointment{
		newAppt(doc, "11:00", 30),
		newAppt(doc, "09:00", 30),
		newAppt(doc, "13:00", 30),
		newAppt(uuid.New(), "09:00", 30),
	} {
		if err := repo.Create(ctx, a); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	day, err := repo.ListByDoctorAndDate(ctx, doc, "2026-03-02")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(day) != 3 || day[0].StartTime != clock.MustParse("09:00") || day[2].StartTime != clock.MustParse("13:00") {
		t.Fatalf("unexpected day listing %+v", day)
	}

	block, err := repo.ListByBlock(ctx, appointment.Block{
		DoctorID: doc, Date: "2026-03-02",
		Start: clock.MustParse("08:00"), End: clock.MustParse("12:00"),
	})
	if err != nil {
		t.Fatalf("list block: %v", err)
	}
	if len(block) != 2 {
		t.Fatalf("expected 2 appointments in the morning block, got %d", len(block))
	}
}

func TestAppointmentRepository_UpdateCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewAppointmentRepository()
	a := newAppt(uuid.New(), "10:00", 30)
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}

	start := clock.MustParse("10:30")
	end := start.Add(30)
	got, err := repo.Update(ctx, a.ID, &appointment.UpdateAppointmentCommand{StartTime: &start, EndTime: &end})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	got.PatientName = "mutated"

	stored, _ := repo.GetByID(ctx, a.ID)
	if stored.StartTime != start || stored.PatientName == "mutated" {
		t.Errorf("unexpected stored appointment %+v", stored)
	}

	bad := clock.MustParse("11:00")
	if _, err := repo.Update(ctx, a.ID, &appointment.UpdateAppointmentCommand{StartTime: &bad}); !errors.Is(err, appointment.ErrEndTimeMismatch) {
		t.Errorf("expected end time mismatch, got %v", err)
	}
	if _, err := repo.Update(ctx, uuid.New(), &appointment.UpdateAppointmentCommand{}); !errors.Is(err, appointment.ErrAppointmentNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestSessionRepository_CreateIfAbsentConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()
	key, err := session.NewKey(uuid.New(), "2026-03-02", clock.MustParse("08:00"), clock.MustParse("12:00"))
	if err != nil {
		t.Fatalf("key: %v", err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := repo.CreateIfAbsent(ctx, session.New(key, "Dr. Rao"))
			if err != nil {
				t.Errorf("create: %v", err)
				return
			}
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Errorf("expected exactly one creator, got %d", created)
	}
	if repo.Len() != 1 {
		t.Errorf("expected one stored session, got %d", repo.Len())
	}
}

func TestSessionRepository_VersionConflict(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()
	key, _ := session.NewKey(uuid.New(), "2026-03-02", clock.MustParse("08:00"), clock.MustParse("12:00"))
	s, _, _ := repo.CreateIfAbsent(ctx, session.New(key, "Dr. Rao"))

	arrived := true
	updated, err := repo.Update(ctx, key, &session.UpdateSessionCommand{ExpectedVersion: s.Version, IsArrived: &arrived})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Version != s.Version+1 {
		t.Errorf("expected version %d, got %d", s.Version+1, updated.Version)
	}

	if _, err := repo.Update(ctx, key, &session.UpdateSessionCommand{ExpectedVersion: s.Version, IsArrived: &arrived}); !errors.Is(err, session.ErrVersionConflict) {
		t.Errorf("expected version conflict, got %v", err)
	}

	other, _ := session.NewKey(uuid.New(), "2026-03-02", clock.MustParse("08:00"), clock.MustParse("12:00"))
	if _, err := repo.Update(ctx, other, &session.UpdateSessionCommand{ExpectedVersion: 1}); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestLedgerRepository_IdempotentExpense(t *testing.T) {
	ctx := context.Background()
	repo := NewLedgerRepository()

	cat, err := repo.EnsureCategory(ctx, ledger.DoctorFeesCategory)
	if err != nil {
		t.Fatalf("ensure category: %v", err)
	}
	again, _ := repo.EnsureCategory(ctx, ledger.DoctorFeesCategory)
	if cat != again {
		t.Fatalf("category ids differ: %s vs %s", cat, again)
	}

	id := ledger.SettlementExpenseID("s1")
	for _, amount := range []int64{1000, 1300} {
		e := &ledger.Expense{ID: id, Date: "2026-03-02", Amount: amount, CategoryID: cat, SessionID: "s1"}
		stored, created, err := repo.CreateExpense(ctx, e)
		if err != nil {
			t.Fatalf("create expense: %v", err)
		}
		if created != (amount == 1000) {
			t.Errorf("amount %d: created = %v", amount, created)
		}
		// A replay returns the first write, not the requested amount.
		if stored.Amount != 1000 || stored.ID != id {
			t.Errorf("expected stored 1000 under %s, got %+v", id, stored)
		}
	}
	if n := len(repo.Expenses("s1")); n != 1 {
		t.Errorf("expected one expense, got %d", n)
	}

	if _, _, err := repo.CreateExpense(ctx, &ledger.Expense{Date: "2026-03-02", CategoryID: cat}); !errors.Is(err, ledger.ErrInvalidExpense) {
		t.Errorf("expected invalid expense, got %v", err)
	}
}
