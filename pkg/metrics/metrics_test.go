package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_Helpers(t *testing.T) {
	c := NewCollector("clinicflow_test", prometheus.NewRegistry())

	c.Reschedule("committed")
	c.Reschedule("committed")
	c.Expense("settlement", 1000)
	c.Expense("settlement", 400)
	c.SessionTransition("departed")
	c.ObserveStore("get", "sessions", time.Now())

	if got := testutil.ToFloat64(c.ReschedulesTotal.WithLabelValues("committed")); got != 2 {
		t.Errorf("expected 2 reschedules, got %v", got)
	}
	if got := testutil.ToFloat64(c.ExpenseAmountTotal.WithLabelValues("settlement")); got != 1400 {
		t.Errorf("expected expense amount 1400, got %v", got)
	}
	if got := testutil.ToFloat64(c.ExpensesTotal.WithLabelValues("settlement")); got != 2 {
		t.Errorf("expected 2 expenses, got %v", got)
	}
}

func TestCollector_NilIsSafe(t *testing.T) {
	var c *Collector
	c.Reschedule("committed")
	c.Expense("settlement", 10)
	c.SessionTransition("arrived")
	c.Notification("sent")
	c.ObserveStore("get", "sessions", time.Now())
}

func TestNewCollector_SeparateRegistries(t *testing.T) {
	// Registering twice on one registry panics; separate registries must not.
	NewCollector("clinicflow_test", prometheus.NewRegistry())
	NewCollector("clinicflow_test", prometheus.NewRegistry())
}
