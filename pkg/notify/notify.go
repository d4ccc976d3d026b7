// Package notify delivers reschedule notices to the front desk.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"firebase.google.com/go/messaging"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/config"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/clock"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// ErrUnavailable is returned while the push circuit is open.
var ErrUnavailable = errors.New("push notifications temporarily unavailable")

// Sender is the subset of *messaging.Client used here.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// PushNotifier publishes to a per-doctor FCM topic.
type PushNotifier struct {
	sender      Sender
	topicPrefix string
	breaker     *gobreaker.CircuitBreaker[string]
	log         *zap.Logger
}

func NewPushNotifier(sender Sender, cfg config.NotifyConfig, log *zap.Logger) *PushNotifier {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "fcm",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &PushNotifier{sender: sender, topicPrefix: cfg.TopicPrefix, breaker: breaker, log: log}
}

func (n *PushNotifier) NotifyRescheduled(ctx context.Context, a *appointment.Appointment, previousStart clock.TimeOfDay) error {
	msg := &messaging.Message{
		Topic: n.topicPrefix + a.DoctorID.String(),
		Notification: &messaging.Notification{
			Title: "Appointment rescheduled",
			Body:  fmt.Sprintf("%s moved from %s to %s on %s", a.PatientName, previousStart, a.StartTime, a.Date),
		},
		Data: map[string]string{
			"appointment_id": a.ID.String(),
			"date":           a.Date,
			"start_time":     a.StartTime.String(),
			"end_time":       a.EndTime.String(),
		},
	}

	id, err := n.breaker.Execute(func() (string, error) {
		return n.sender.Send(ctx, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err != nil {
		return fmt.Errorf("sending reschedule notice: %w", err)
	}

	n.log.Debug("reschedule notice sent", zap.String("message_id", id), zap.String("topic", msg.Topic))
	return nil
}

// LogNotifier writes reschedule notices to the log. Used when push is disabled.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyRescheduled(_ context.Context, a *appointment.Appointment, previousStart clock.TimeOfDay) error {
	n.log.Info("appointment rescheduled",
		zap.String("appointment_id", a.ID.String()),
		zap.String("doctor_id", a.DoctorID.String()),
		zap.String("date", a.Date),
		zap.String("from", previousStart.String()),
		zap.String("to", a.StartTime.String()),
		zap.Time("at", time.Now().UTC()),
	)
	return nil
}
