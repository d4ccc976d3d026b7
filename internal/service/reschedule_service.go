package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/calendar"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/clock"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/keylock"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Notifier announces a committed reschedule.
type Notifier interface {
	NotifyRescheduled(ctx context.Context, a *appointment.Appointment, previousStart clock.TimeOfDay) error
}

// DragState is the position of a DragSession:
//
//	Idle → Dragging → (Committing | Cancelled) → Idle
type DragState int

const (
	DragIdle DragState = iota
	DragDragging
	DragCommitting
	DragCancelled
)

func (s DragState) String() string {
	switch s {
	case DragDragging:
		return "dragging"
	case DragCommitting:
		return "committing"
	case DragCancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

// Reschedule outcomes, used as metric labels.
const (
	outcomeCommitted  = "committed"
	outcomeUnmoved    = "unmoved"
	outcomeOutOfHours = "out_of_hours"
	outcomeOccupied   = "slot_occupied"
	outcomeFailed     = "store_failed"
	outcomeCancelled  = "cancelled"
)

type RescheduleResult struct {
	Appointment   *appointment.Appointment `json:"appointment"`
	Moved         bool                     `json:"moved"`
	PreviousStart clock.TimeOfDay          `json:"previous_start"`
	Notified      bool                     `json:"notified"`
}

// Preview is the live feedback for an in-flight drag.
type Preview struct {
	Start   clock.TimeOfDay `json:"start"`
	End     clock.TimeOfDay `json:"end"`
	InHours bool            `json:"in_hours"`
	Moved   bool            `json:"moved"`
}

type RescheduleController struct {
	repo     appointment.Repository
	detector *ConflictDetector
	grid     *calendar.Grid
	notifier Notifier
	auditSvc *AuditService
	metrics  *metrics.Collector
	days     *keylock.Locker
	tracer   trace.Tracer
	log      *zap.Logger

	mu     sync.Mutex
	active *DragSession
}

func NewRescheduleController(
	repo appointment.Repository,
	grid *calendar.Grid,
	notifier Notifier,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *RescheduleController {
	return &RescheduleController{
		repo:     repo,
		detector: NewConflictDetector(repo),
		grid:     grid,
		notifier: notifier,
		auditSvc: auditSvc,
		metrics:  m,
		days:     keylock.New(),
		tracer:   otel.Tracer("clinicflow/service/reschedule"),
		log:      log,
	}
}

// DragSession is one drag of one appointment. It is owned by the caller that
// started it and is spent once released or cancelled.
type DragSession struct {
	ctrl     *RescheduleController
	original *appointment.Appointment
	originY  float64
	claimed  bool

	mu    sync.Mutex
	state DragState
}

// BeginDrag loads the appointment and enters Dragging. Only one drag may be
// active per controller at a time.
func (c *RescheduleController) BeginDrag(ctx context.Context, appointmentID uuid.UUID, originY float64) (*DragSession, error) {
	a, err := c.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("loading appointment for drag: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return nil, ErrDragInProgress
	}
	d := &DragSession{ctrl: c, original: a, originY: originY, claimed: true, state: DragDragging}
	c.active = d
	return d, nil
}

// Reschedule moves an appointment by a vertical pointer delta in one step.
// It does not claim the controller's drag slot, so independent callers may
// reschedule concurrently; commits on the same doctor-day are serialized.
func (c *RescheduleController) Reschedule(ctx context.Context, appointmentID uuid.UUID, pointerDelta float64) (*RescheduleResult, error) {
	a, err := c.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("loading appointment for reschedule: %w", err)
	}
	d := &DragSession{ctrl: c, original: a, state: DragDragging}
	return d.Release(ctx, pointerDelta)
}

func (d *DragSession) State() DragState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *DragSession) Appointment() *appointment.Appointment {
	return d.original.Clone()
}

// candidate snaps the dragged start to the slot grid.
func (d *DragSession) candidate(y float64) clock.TimeOfDay {
	g := d.ctrl.grid
	return g.SnapOffset(g.Offset(d.original.StartTime) + (y - d.originY))
}

// Move previews where the appointment would land at pointer position y.
func (d *DragSession) Move(y float64) (Preview, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != DragDragging {
		return Preview{}, ErrDragNotActive
	}

	start := d.candidate(y)
	return Preview{
		Start:   start,
		End:     start.Add(d.original.DurationMins),
		InHours: d.ctrl.grid.Contains(start, d.original.DurationMins),
		Moved:   start != d.original.StartTime,
	}, nil
}

// Cancel abandons the drag without touching the store.
func (d *DragSession) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != DragDragging {
		return
	}
	d.state = DragCancelled
	d.ctrl.metrics.Reschedule(outcomeCancelled)
	d.finish()
}

// Release validates the drop at pointer position y and commits it with a
// single store update. Validation order is working hours, then conflicts.
// Every path returns the session to Idle.
func (d *DragSession) Release(ctx context.Context, y float64) (*RescheduleResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != DragDragging {
		return nil, ErrDragNotActive
	}
	defer d.finish()

	c := d.ctrl
	a := d.original
	ctx, span := c.tracer.Start(ctx, "RescheduleController.Release",
		trace.WithAttributes(attribute.String("appointment.id", a.ID.String())))
	defer span.End()

	start := d.candidate(y)
	if start == a.StartTime {
		c.metrics.Reschedule(outcomeUnmoved)
		return &RescheduleResult{Appointment: a.Clone(), PreviousStart: a.StartTime}, nil
	}

	if !c.grid.Contains(start, a.DurationMins) {
		d.state = DragCancelled
		c.metrics.Reschedule(outcomeOutOfHours)
		cfg := c.grid.Config()
		return nil, fmt.Errorf("%w: %s-%s is outside %s-%s",
			appointment.ErrOutOfHours, start, start.Add(a.DurationMins), cfg.WorkStart, cfg.WorkEnd)
	}

	unlock := c.days.Lock(a.DoctorID.String() + "/" + a.Date)
	defer unlock()

	conflict, err := c.detector.FindConflict(ctx, a.DoctorID, a.Date, start, a.DurationMins, a.ID)
	if err != nil {
		d.state = DragCancelled
		span.RecordError(err)
		return nil, err
	}
	if conflict != nil {
		d.state = DragCancelled
		c.metrics.Reschedule(outcomeOccupied)
		return nil, &ConflictError{Conflict: conflict}
	}

	d.state = DragCommitting
	end := start.Add(a.DurationMins)
	updated, err := c.repo.Update(ctx, a.ID, &appointment.UpdateAppointmentCommand{
		StartTime: &start,
		EndTime:   &end,
	})
	if err != nil {
		c.metrics.Reschedule(outcomeFailed)
		span.RecordError(err)
		if errors.Is(err, appointment.ErrAppointmentNotFound) {
			return nil, err
		}
		c.log.Error("reschedule write failed",
			zap.String("appointment_id", a.ID.String()),
			zap.Error(err),
		)
		return nil, storeWriteFailed("rescheduling appointment", err)
	}

	c.metrics.Reschedule(outcomeCommitted)
	c.auditSvc.LogAsync(ctx, AuditEntry{
		Action:       string(domain.ActionReschedule),
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		Changes: changes(map[string]any{
			"from": a.StartTime.String(),
			"to":   start.String(),
		}),
	})

	result := &RescheduleResult{Appointment: updated, Moved: true, PreviousStart: a.StartTime}
	result.Notified = c.notify(ctx, updated, a.StartTime)

	c.log.Info("appointment rescheduled",
		zap.String("appointment_id", a.ID.String()),
		zap.String("from", a.StartTime.String()),
		zap.String("to", start.String()),
	)
	return result, nil
}

func (c *RescheduleController) notify(ctx context.Context, a *appointment.Appointment, previousStart clock.TimeOfDay) bool {
	if c.notifier == nil {
		return false
	}
	if err := c.notifier.NotifyRescheduled(ctx, a, previousStart); err != nil {
		c.metrics.Notification("failed")
		c.log.Warn("reschedule notification failed",
			zap.String("appointment_id", a.ID.String()),
			zap.Error(err),
		)
		return false
	}
	c.metrics.Notification("sent")
	return true
}

// finish returns the session to Idle and frees the controller's drag slot.
// Callers hold d.mu.
func (d *DragSession) finish() {
	d.state = DragIdle
	if !d.claimed {
		return
	}
	d.claimed = false
	d.ctrl.mu.Lock()
	if d.ctrl.active == d {
		d.ctrl.active = nil
	}
	d.ctrl.mu.Unlock()
}
