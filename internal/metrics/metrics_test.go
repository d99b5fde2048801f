package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLedgerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLedgerMetricsWithRegisterer(reg)

	m.RecordCommand("cart", "add", 1)
	m.RecordCommand("cart", "add", 2)
	m.RecordCommand("cart", "clear", 0)
	m.RecordPersistFailure("cart")
	m.RecordRehydrate("listings", "corrupt")

	if got := testutil.ToFloat64(m.commands.WithLabelValues("cart", "add")); got != 2 {
		t.Fatalf("expected 2 add commands, got %v", got)
	}
	if got := testutil.ToFloat64(m.items.WithLabelValues("cart")); got != 0 {
		t.Fatalf("expected last size 0, got %v", got)
	}
	if got := testutil.ToFloat64(m.persistFailures.WithLabelValues("cart")); got != 1 {
		t.Fatalf("expected 1 persist failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.rehydrations.WithLabelValues("listings", "corrupt")); got != 1 {
		t.Fatalf("expected 1 corrupt rehydration, got %v", got)
	}
}

func TestLedgerMetrics_ReuseRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewLedgerMetricsWithRegisterer(reg)
	second := NewLedgerMetricsWithRegisterer(reg)

	first.RecordPersistFailure("cart")
	if got := testutil.ToFloat64(second.persistFailures.WithLabelValues("cart")); got != 1 {
		t.Fatalf("expected shared collector, got %v", got)
	}
}

func TestCheckoutMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetricsWithRegisterer(reg)

	m.RecordSessionOpened()
	m.RecordSubmitStarted()
	if got := testutil.ToFloat64(m.inFlight); got != 1 {
		t.Fatalf("expected 1 in flight, got %v", got)
	}
	m.RecordSubmitFinished(150 * time.Millisecond)
	m.RecordSubmit("ok")
	m.RecordConfirmed(35)

	if got := testutil.ToFloat64(m.inFlight); got != 0 {
		t.Fatalf("expected 0 in flight, got %v", got)
	}
	if got := testutil.ToFloat64(m.sessionsOpened); got != 1 {
		t.Fatalf("expected 1 session opened, got %v", got)
	}
	if got := testutil.ToFloat64(m.submits.WithLabelValues("ok")); got != 1 {
		t.Fatalf("expected 1 ok submit, got %v", got)
	}
	if got := testutil.CollectAndCount(m.submitDuration); got != 1 {
		t.Fatalf("expected histogram to be collected, got %d", got)
	}
}
