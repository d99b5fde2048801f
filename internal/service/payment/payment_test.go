package payment

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookcart/internal/domain"
)

func chargeRequest() domain.ChargeRequest {
	return domain.ChargeRequest{
		Reference: "order-1",
		Amount:    35,
		Method:    domain.PaymentMethodCard,
		Buyer:     domain.BuyerInfo{Email: "a@b.co"},
	}
}

func TestSimulatedGateway_Success(t *testing.T) {
	gw := NewSimulatedGateway(0)

	receipt, err := gw.Charge(context.Background(), chargeRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.ExternalID == "" {
		t.Fatal("expected external id")
	}
	if gw.CallCount() != 1 || len(gw.Requests) != 1 {
		t.Fatalf("unexpected call tracking: calls=%d requests=%d", gw.Calls, len(gw.Requests))
	}
}

func TestSimulatedGateway_OutcomesQueue(t *testing.T) {
	gw := NewSimulatedGateway(0)
	gw.Outcomes = []error{domain.ErrPaymentTemporary}
	gw.Err = domain.ErrPaymentDeclined

	if _, err := gw.Charge(context.Background(), chargeRequest()); !errors.Is(err, domain.ErrPaymentTemporary) {
		t.Fatalf("expected temporary error first, got %v", err)
	}
	if _, err := gw.Charge(context.Background(), chargeRequest()); !errors.Is(err, domain.ErrPaymentDeclined) {
		t.Fatalf("expected fallback error, got %v", err)
	}
}

func TestSimulatedGateway_RespectsContext(t *testing.T) {
	gw := NewSimulatedGateway(time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := gw.Charge(ctx, chargeRequest())
	if !errors.Is(err, domain.ErrPaymentTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	if cfg.MaxAttempts != 3 {
		t.Fatalf("unexpected MaxAttempts: %d", cfg.MaxAttempts)
	}
	if cfg.InitialDelay <= 0 || cfg.MaxDelay <= 0 {
		t.Fatalf("delays must be positive: %+v", cfg)
	}
	if cfg.BackoffFactor <= 1 {
		t.Fatalf("backoff factor should be > 1: %f", cfg.BackoffFactor)
	}
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 2}
}

func TestRetryingGateway(t *testing.T) {
	logger := log.New().WithField("test", "retry")

	t.Run("retry then success", func(t *testing.T) {
		sim := NewSimulatedGateway(0)
		sim.Outcomes = []error{domain.ErrPaymentTemporary, domain.ErrPaymentTemporary}
		gw := NewRetryingGateway(sim, fastRetry(), nil, logger)

		if _, err := gw.Charge(context.Background(), chargeRequest()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sim.CallCount() != 3 {
			t.Fatalf("expected 3 attempts, got %d", sim.CallCount())
		}
	})

	t.Run("declined is not retried", func(t *testing.T) {
		sim := NewSimulatedGateway(0)
		sim.Err = domain.ErrPaymentDeclined
		gw := NewRetryingGateway(sim, fastRetry(), nil, logger)

		_, err := gw.Charge(context.Background(), chargeRequest())
		if !errors.Is(err, domain.ErrPaymentDeclined) {
			t.Fatalf("expected declined, got %v", err)
		}
		if sim.CallCount() != 1 {
			t.Fatalf("expected single attempt, got %d", sim.CallCount())
		}
	})

	t.Run("exhausted attempts", func(t *testing.T) {
		sim := NewSimulatedGateway(0)
		sim.Err = domain.ErrPaymentTemporary
		gw := NewRetryingGateway(sim, fastRetry(), nil, logger)

		_, err := gw.Charge(context.Background(), chargeRequest())
		if !errors.Is(err, domain.ErrPaymentTemporary) {
			t.Fatalf("expected temporary error, got %v", err)
		}
		if sim.CallCount() != 3 {
			t.Fatalf("expected 3 attempts, got %d", sim.CallCount())
		}
	})

	t.Run("context cancelled during backoff", func(t *testing.T) {
		sim := NewSimulatedGateway(0)
		sim.Err = domain.ErrPaymentTemporary
		cfg := RetryConfig{MaxAttempts: 5, InitialDelay: time.Second, MaxDelay: time.Second, BackoffFactor: 1}
		gw := NewRetryingGateway(sim, cfg, nil, logger)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := gw.Charge(ctx, chargeRequest())
		if !errors.Is(err, domain.ErrPaymentTimeout) {
			t.Fatalf("expected timeout, got %v", err)
		}
		if sim.CallCount() != 1 {
			t.Fatalf("expected 1 attempt before cancellation, got %d", sim.CallCount())
		}
	})
}

func TestCircuitBreaker(t *testing.T) {
	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(2, time.Minute, nil)
	cb.now = func() time.Time { return current }

	failing := func() error { return domain.ErrPaymentTemporary }

	_ = cb.Execute("charge", failing)
	if cb.State() != CircuitClosed {
		t.Fatalf("expected closed after first failure, got %s", cb.State())
	}
	_ = cb.Execute("charge", failing)
	if cb.State() != CircuitOpen {
		t.Fatalf("expected open, got %s", cb.State())
	}

	called := false
	err := cb.Execute("charge", func() error { called = true; return nil })
	if !errors.Is(err, domain.ErrCircuitOpen) || called {
		t.Fatalf("expected short-circuit, err=%v called=%v", err, called)
	}

	current = current.Add(2 * time.Minute)
	if err := cb.Execute("charge", func() error { return nil }); err != nil {
		t.Fatalf("expected half-open trial call to pass: %v", err)
	}
	if cb.State() != CircuitClosed {
		t.Fatalf("expected closed after successful trial call, got %s", cb.State())
	}
}

func TestCircuitBreaker_DeclineDoesNotTrip(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Minute, nil)

	err := cb.Execute("charge", func() error { return domain.ErrPaymentDeclined })
	if !errors.Is(err, domain.ErrPaymentDeclined) {
		t.Fatalf("expected declined passthrough, got %v", err)
	}
	if cb.State() != CircuitClosed {
		t.Fatalf("declines must not open the breaker, got %s", cb.State())
	}
}

func openBreaker(t *testing.T, current *time.Time) *CircuitBreaker {
	t.Helper()
	cb := NewCircuitBreaker(1, time.Minute, nil)
	cb.now = func() time.Time { return *current }
	_ = cb.Execute("charge", func() error { return domain.ErrPaymentTemporary })
	if cb.State() != CircuitOpen {
		t.Fatalf("expected open, got %s", cb.State())
	}
	return cb
}

func TestCircuitBreaker_HalfOpenAllowsSingleTrial(t *testing.T) {
	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := openBreaker(t, &current)
	current = current.Add(2 * time.Minute)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- cb.Execute("charge", func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	called := false
	err := cb.Execute("charge", func() error { called = true; return nil })
	if !errors.Is(err, domain.ErrCircuitOpen) || called {
		t.Fatalf("expected concurrent call to be rejected during trial, err=%v called=%v", err, called)
	}
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("expected half-open during trial, got %s", cb.State())
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("trial call failed: %v", err)
	}
	if cb.State() != CircuitClosed {
		t.Fatalf("expected closed after successful trial call, got %s", cb.State())
	}
	if err := cb.Execute("charge", func() error { return nil }); err != nil {
		t.Fatalf("expected closed breaker to pass calls: %v", err)
	}
}

func TestCircuitBreaker_CallerContextErrorsDoNotTrip(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Minute, nil)

	for _, ctxErr := range []error{context.Canceled, context.DeadlineExceeded} {
		err := cb.Execute("charge", func() error { return fmt.Errorf("charge: %w", ctxErr) })
		if !errors.Is(err, ctxErr) {
			t.Fatalf("expected %v passthrough, got %v", ctxErr, err)
		}
		if cb.State() != CircuitClosed {
			t.Fatalf("%v must not open the breaker, got %s", ctxErr, cb.State())
		}
	}

	_ = cb.Execute("charge", func() error {
		return fmt.Errorf("%w: %v", domain.ErrPaymentTimeout, context.DeadlineExceeded)
	})
	if cb.State() != CircuitOpen {
		t.Fatalf("gateway timeout must count as failure, got %s", cb.State())
	}
}

func TestCircuitBreaker_CanceledTrialReleasesSlot(t *testing.T) {
	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := openBreaker(t, &current)
	current = current.Add(2 * time.Minute)

	_ = cb.Execute("charge", func() error { return context.Canceled })
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("canceled trial must keep half-open, got %s", cb.State())
	}

	if err := cb.Execute("charge", func() error { return nil }); err != nil {
		t.Fatalf("expected next trial call to run: %v", err)
	}
	if cb.State() != CircuitClosed {
		t.Fatalf("expected closed, got %s", cb.State())
	}
}

func TestRetryingGateway_WithOpenBreaker(t *testing.T) {
	sim := NewSimulatedGateway(0)
	sim.Err = domain.ErrPaymentTemporary
	cb := NewCircuitBreaker(1, time.Hour, nil)
	gw := NewRetryingGateway(sim, fastRetry(), cb, nil)

	_, err := gw.Charge(context.Background(), chargeRequest())
	if !errors.Is(err, domain.ErrCircuitOpen) {
		t.Fatalf("expected circuit open after first failure, got %v", err)
	}
	if sim.CallCount() != 1 {
		t.Fatalf("expected gateway to be called once, got %d", sim.CallCount())
	}
}
