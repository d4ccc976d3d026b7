package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/clock"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/session"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/keylock"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type DepartureResult struct {
	Session *session.DoctorSession `json:"session"`
	// ExpenseID is the settlement expense, when fees were owed.
	ExpenseID *uuid.UUID `json:"expense_id,omitempty"`
	// AlreadyDeparted is set when the call found the session departed and changed nothing.
	AlreadyDeparted bool `json:"already_departed"`
}

type TopUpResult struct {
	Session   *session.DoctorSession `json:"session"`
	ExpenseID uuid.UUID              `json:"expense_id"`
	Amount    int64                  `json:"amount"`
}

// SessionService drives a doctor session through arrival, stat refreshes,
// departure and top-up billing. Writes to one session are serialized in
// process by a per-key lock and across processes by the session version.
type SessionService struct {
	sessions session.Repository
	appts    appointment.Repository
	doctors  doctor.Registry
	fees     *FeeReconciler
	auditSvc *AuditService
	metrics  *metrics.Collector
	locks    *keylock.Locker
	ensure   singleflight.Group
	tracer   trace.Tracer
	log      *zap.Logger
	now      func() time.Time
}

func NewSessionService(
	sessions session.Repository,
	appts appointment.Repository,
	doctors doctor.Registry,
	fees *FeeReconciler,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *SessionService {
	return &SessionService{
		sessions: sessions,
		appts:    appts,
		doctors:  doctors,
		fees:     fees,
		auditSvc: auditSvc,
		metrics:  m,
		locks:    keylock.New(),
		tracer:   otel.Tracer("clinicflow/service/session"),
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Ensure returns the session for the working block, creating a zeroed one on
// first reference. Concurrent callers for one key share a single create.
func (s *SessionService) Ensure(ctx context.Context, doctorID uuid.UUID, date string, start, end clock.TimeOfDay) (*session.DoctorSession, error) {
	key, err := session.NewKey(doctorID, date, start, end)
	if err != nil {
		return nil, err
	}

	existing, err := s.sessions.GetByKey(ctx, key)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, session.ErrSessionNotFound) {
		return nil, fmt.Errorf("loading doctor session: %w", err)
	}

	// The shared create outlives any one caller, so one cancellation does not
	// fail every waiter.
	v, err, _ := s.ensure.Do(key.String(), func() (any, error) {
		return s.create(context.WithoutCancel(ctx), key)
	})
	if err != nil {
		return nil, err
	}
	return v.(*session.DoctorSession).Clone(), nil
}

func (s *SessionService) create(ctx context.Context, key session.Key) (*session.DoctorSession, error) {
	ctx, span := s.tracer.Start(ctx, "SessionService.Ensure",
		trace.WithAttributes(attribute.String("session.key", key.String())))
	defer span.End()

	name, err := s.doctorName(ctx, key.DoctorID)
	if err != nil {
		return nil, err
	}

	stored, created, err := s.sessions.CreateIfAbsent(ctx, session.New(key, name))
	if err != nil {
		span.RecordError(err)
		return nil, storeWriteFailed("creating doctor session", err)
	}
	if created {
		s.metrics.SessionTransition("created")
		s.auditSvc.LogAsync(ctx, AuditEntry{
			Action:       string(domain.ActionEnsure),
			ResourceType: "doctor_session",
			ResourceID:   stored.ID,
		})
		s.log.Info("doctor session created", zap.String("session_id", stored.ID))
	}
	return stored, nil
}

// doctorName falls back to session.UnknownDoctorName only when the registry
// has no such doctor; other lookup failures are returned.
func (s *SessionService) doctorName(ctx context.Context, id uuid.UUID) (string, error) {
	if s.doctors == nil {
		return session.UnknownDoctorName, nil
	}
	d, err := s.doctors.GetByID(ctx, id)
	if errors.Is(err, doctor.ErrDoctorNotFound) {
		s.log.Warn("doctor not found for session, using placeholder name", zap.String("doctor_id", id.String()))
		return session.UnknownDoctorName, nil
	}
	if err != nil {
		return "", fmt.Errorf("resolving doctor name: %w", err)
	}
	return d.Name, nil
}

func (s *SessionService) Get(ctx context.Context, key session.Key) (*session.DoctorSession, error) {
	return s.sessions.GetByKey(ctx, key)
}

// MarkArrival records the first arrival; later calls return the session unchanged.
func (s *SessionService) MarkArrival(ctx context.Context, key session.Key) (*session.DoctorSession, error) {
	unlock := s.locks.Lock(key.String())
	defer unlock()

	cur, err := s.sessions.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if cur.IsArrived {
		return cur, nil
	}

	arrived := true
	now := s.now()
	updated, err := s.write(ctx, key, &session.UpdateSessionCommand{
		ExpectedVersion: cur.Version,
		IsArrived:       &arrived,
		ArrivedAt:       &now,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SessionTransition("arrived")
	s.auditSvc.LogAsync(ctx, AuditEntry{
		Action:       string(domain.ActionArrive),
		ResourceType: "doctor_session",
		ResourceID:   key.String(),
	})
	return updated, nil
}

// UpdateStats recomputes the session counters from appts. Appointments outside
// the session's block are ignored. An unchanged result is not written.
func (s *SessionService) UpdateStats(ctx context.Context, key session.Key, appts []*appointment.Appointment) (*session.DoctorSession, error) {
	unlock := s.locks.Lock(key.String())
	defer unlock()

	cur, err := s.sessions.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.updateStatsLocked(ctx, cur, appts)
}

func (s *SessionService) updateStatsLocked(ctx context.Context, cur *session.DoctorSession, appts []*appointment.Appointment) (*session.DoctorSession, error) {
	key := cur.Key()
	inBlock := make([]*appointment.Appointment, 0, len(appts))
	for _, a := range appts {
		if key.Contains(a) {
			inBlock = append(inBlock, a)
		}
	}

	st := session.ComputeStats(inBlock)
	if st.TotalPatients == cur.TotalPatients &&
		st.ArrivedPatients == cur.ArrivedPatients &&
		st.TotalDoctorFees == cur.TotalDoctorFees {
		return cur, nil
	}

	return s.write(ctx, key, &session.UpdateSessionCommand{
		ExpectedVersion: cur.Version,
		TotalPatients:   &st.TotalPatients,
		ArrivedPatients: &st.ArrivedPatients,
		TotalDoctorFees: &st.TotalDoctorFees,
	})
}

// RefreshStats reloads the block's appointments, recomputes the counters and
// then stamps the appointments with the session id.
func (s *SessionService) RefreshStats(ctx context.Context, key session.Key) (*session.DoctorSession, error) {
	unlock := s.locks.Lock(key.String())
	defer unlock()

	cur, err := s.sessions.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	updated, err := s.refreshLocked(ctx, cur)
	if err != nil {
		return nil, err
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		Action:       string(domain.ActionRefresh),
		ResourceType: "doctor_session",
		ResourceID:   key.String(),
	})
	return updated, nil
}

func (s *SessionService) refreshLocked(ctx context.Context, cur *session.DoctorSession) (*session.DoctorSession, error) {
	appts, err := s.appts.ListByBlock(ctx, cur.Key().Block())
	if err != nil {
		return nil, fmt.Errorf("loading session appointments: %w", err)
	}

	updated, err := s.updateStatsLocked(ctx, cur, appts)
	if err != nil {
		return nil, err
	}
	s.stamp(ctx, updated.ID, appts)
	return updated, nil
}

// stamp links appointments to their session. It runs after the stats write and
// a failed stamp is only logged; the next refresh retries it.
func (s *SessionService) stamp(ctx context.Context, sessionID string, appts []*appointment.Appointment) {
	for _, a := range appts {
		if a.SessionID == sessionID {
			continue
		}
		id := sessionID
		if _, err := s.appts.Update(ctx, a.ID, &appointment.UpdateAppointmentCommand{SessionID: &id}); err != nil {
			s.log.Warn("stamping appointment session failed",
				zap.String("session_id", sessionID),
				zap.String("appointment_id", a.ID.String()),
				zap.Error(err),
			)
			continue
		}
		a.SessionID = id
	}
}

// MarkDeparture records the departure and, when fees are owed and unpaid,
// settles them. A repeated departure changes nothing.
func (s *SessionService) MarkDeparture(ctx context.Context, key session.Key) (*DepartureResult, error) {
	unlock := s.locks.Lock(key.String())
	defer unlock()

	cur, err := s.sessions.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.departLocked(ctx, cur)
}

// Depart refreshes the stats and departs under one lock, so the settlement
// covers every appointment booked up to the departure.
func (s *SessionService) Depart(ctx context.Context, key session.Key) (*DepartureResult, error) {
	ctx, span := s.tracer.Start(ctx, "SessionService.Depart",
		trace.WithAttributes(attribute.String("session.key", key.String())))
	defer span.End()

	unlock := s.locks.Lock(key.String())
	defer unlock()

	cur, err := s.sessions.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if !cur.IsDeparted {
		if !cur.IsArrived {
			return nil, session.ErrNotArrived
		}
		if cur, err = s.refreshLocked(ctx, cur); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}
	return s.departLocked(ctx, cur)
}

func (s *SessionService) departLocked(ctx context.Context, cur *session.DoctorSession) (*DepartureResult, error) {
	if cur.IsDeparted {
		return &DepartureResult{Session: cur, ExpenseID: cur.ExpenseID, AlreadyDeparted: true}, nil
	}
	if !cur.IsArrived {
		return nil, session.ErrNotArrived
	}

	departed := true
	now := s.now()
	cmd := &session.UpdateSessionCommand{
		ExpectedVersion: cur.Version,
		IsDeparted:      &departed,
		DepartedAt:      &now,
	}

	var (
		expenseID *uuid.UUID
		billed    int64
	)
	if cur.TotalDoctorFees > 0 && !cur.IsPaid {
		st, err := s.fees.SettlementExpense(ctx, cur)
		if err != nil {
			return nil, err
		}
		paid := true
		expenseID = &st.ExpenseID
		billed = st.Billed
		cmd.IsPaid = &paid
		cmd.PaidAt = &now
		cmd.ExpenseID = &st.ExpenseID
	}

	updated, err := s.write(ctx, cur.Key(), cmd)
	if err != nil {
		return nil, err
	}

	s.metrics.SessionTransition("departed")
	if expenseID != nil {
		s.metrics.SessionTransition("paid")
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		Action:       string(domain.ActionDepart),
		ResourceType: "doctor_session",
		ResourceID:   cur.ID,
		Changes: changes(map[string]any{
			"total_doctor_fees": cur.TotalDoctorFees,
			"billed":            billed,
			"settled":           expenseID != nil,
		}),
	})
	s.log.Info("doctor departed",
		zap.String("session_id", cur.ID),
		zap.Int64("total_doctor_fees", cur.TotalDoctorFees),
		zap.Bool("settled", expenseID != nil),
	)
	return &DepartureResult{Session: updated, ExpenseID: expenseID}, nil
}

func (s *SessionService) PostDepartureInfo(ctx context.Context, key session.Key) (PostDepartureInfo, error) {
	cur, err := s.sessions.GetByKey(ctx, key)
	if err != nil {
		return PostDepartureInfo{}, err
	}
	return s.fees.PostDepartureInfo(ctx, cur)
}

// TopUp bills unpaid post-departure fees. It fails with session.ErrNoUnpaidFees
// when nothing is owed, so repeating it never bills twice.
func (s *SessionService) TopUp(ctx context.Context, key session.Key) (*TopUpResult, error) {
	ctx, span := s.tracer.Start(ctx, "SessionService.TopUp",
		trace.WithAttributes(attribute.String("session.key", key.String())))
	defer span.End()

	unlock := s.locks.Lock(key.String())
	defer unlock()

	cur, err := s.sessions.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	updated, expenseID, amount, err := s.fees.CreatePostDepartureExpense(ctx, cur)
	if err != nil {
		return nil, err
	}

	s.metrics.SessionTransition("topped_up")
	s.auditSvc.LogAsync(ctx, AuditEntry{
		Action:       string(domain.ActionTopUp),
		ResourceType: "doctor_session",
		ResourceID:   key.String(),
		Changes: changes(map[string]any{
			"expense_id": expenseID.String(),
			"amount":     amount,
		}),
	})
	return &TopUpResult{Session: updated, ExpenseID: expenseID, Amount: amount}, nil
}

// write applies cmd and classifies failures: not-found and version conflicts
// pass through, anything else is a store write failure.
func (s *SessionService) write(ctx context.Context, key session.Key, cmd *session.UpdateSessionCommand) (*session.DoctorSession, error) {
	updated, err := s.sessions.Update(ctx, key, cmd)
	if err == nil {
		return updated, nil
	}
	if errors.Is(err, session.ErrSessionNotFound) || errors.Is(err, session.ErrVersionConflict) {
		return nil, err
	}
	s.log.Error("doctor session write failed", zap.String("session_id", key.String()), zap.Error(err))
	return nil, storeWriteFailed("updating doctor session", err)
}
