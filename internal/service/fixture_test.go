package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/calendar"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/clock"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/session"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/repository/memory"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const testDate = "2026-03-02"

var errStoreDown = errors.New("store unavailable")

type recordingNotifier struct {
	mu    sync.Mutex
	calls []uuid.UUID
	err   error
}

func (n *recordingNotifier) NotifyRescheduled(_ context.Context, a *appointment.Appointment, _ clock.TimeOfDay) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, a.ID)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

// flakyAppointments fails the next failUpdates calls to Update.
type flakyAppointments struct {
	*memory.AppointmentRepository
	failUpdates int
}

func (f *flakyAppointments) Update(ctx context.Context, id uuid.UUID, cmd *appointment.UpdateAppointmentCommand) (*appointment.Appointment, error) {
	if f.failUpdates > 0 {
		f.failUpdates--
		return nil, errStoreDown
	}
	return f.AppointmentRepository.Update(ctx, id, cmd)
}

// flakySessions fails the next failUpdates calls to Update.
type flakySessions struct {
	*memory.SessionRepository
	failUpdates int
}

func (f *flakySessions) Update(ctx context.Context, key session.Key, cmd *session.UpdateSessionCommand) (*session.DoctorSession, error) {
	if f.failUpdates > 0 {
		f.failUpdates--
		return nil, errStoreDown
	}
	return f.SessionRepository.Update(ctx, key, cmd)
}

// CreateIfAbsent honours cancellation the way a network-backed store does.
func (f *flakySessions) CreateIfAbsent(ctx context.Context, s *session.DoctorSession) (*session.DoctorSession, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	return f.SessionRepository.CreateIfAbsent(ctx, s)
}

type brokenRegistry struct{}

func (brokenRegistry) GetByID(context.Context, uuid.UUID) (*doctor.Doctor, error) {
	return nil, errStoreDown
}

type fixture struct {
	doctorID uuid.UUID
	appts    *flakyAppointments
	sessions *flakySessions
	ledger   *memory.LedgerRepository
	doctors  *memory.DoctorRegistry
	grid     *calendar.Grid
	metrics  *metrics.Collector
	notifier *recordingNotifier
	audit    *AuditService

	reschedule *RescheduleController
	sessionSvc *SessionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	grid, err := calendar.New(calendar.DefaultConfig())
	if err != nil {
		t.Fatalf("grid: %v", err)
	}

	f := &fixture{
		doctorID: uuid.New(),
		appts:    &flakyAppointments{AppointmentRepository: memory.NewAppointmentRepository()},
		sessions: &flakySessions{SessionRepository: memory.NewSessionRepository()},
		ledger:   memory.NewLedgerRepository(),
		grid:     grid,
		metrics:  metrics.NewCollector("clinicflow_test", prometheus.NewRegistry()),
		notifier: &recordingNotifier{},
	}
	f.doctors = memory.NewDoctorRegistry(doctor.Doctor{ID: f.doctorID, Name: "Dr. Silva"})

	log := zap.NewNop()
	f.audit = NewAuditService(memory.NewAuditRepository(), f.metrics, log)
	t.Cleanup(f.audit.Shutdown)

	fees := NewFeeReconciler(f.appts, f.sessions, f.ledger, "", f.metrics, log)
	f.reschedule = NewRescheduleController(f.appts, grid, f.notifier, f.audit, f.metrics, log)
	f.sessionSvc = NewSessionService(f.sessions, f.appts, f.doctors, fees, f.audit, f.metrics, log)
	return f
}

type apptSpec struct {
	start   string
	dur     int
	fee     int64
	paid    bool
	arrived bool
	status  appointment.Status
	created time.Time
}

func (f *fixture) book(t *testing.T, spec apptSpec) *appointment.Appointment {
	t.Helper()
	start := clock.MustParse(spec.start)
	if spec.dur == 0 {
		spec.dur = 30
	}
	if spec.created.IsZero() {
		spec.created = time.Now().UTC().Add(-2 * time.Hour)
	}
	a := &appointment.Appointment{
		DoctorID:                f.doctorID,
		PatientName:             "patient " + spec.start,
		Date:                    testDate,
		StartTime:               start,
		EndTime:                 start.Add(spec.dur),
		DurationMins:            spec.dur,
		Status:                  spec.status,
		IsPatientArrived:        spec.arrived,
		Payment:                 appointment.Payment{IsPaid: spec.paid},
		ManualAppointmentAmount: spec.fee,
		CreatedAt:               spec.created,
	}
	if err := f.appts.Create(context.Background(), a); err != nil {
		t.Fatalf("booking %s: %v", spec.start, err)
	}
	return a
}

func (f *fixture) key(t *testing.T, start, end string) session.Key {
	t.Helper()
	k, err := session.NewKey(f.doctorID, testDate, clock.MustParse(start), clock.MustParse(end))
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	return k
}
