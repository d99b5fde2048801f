package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookcart/internal/domain"
)

// RetryConfig конфигурация повторов списания.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig возвращает конфигурацию по умолчанию.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
	}
}

// RetryingGateway повторяет списание при временных ошибках шлюза
// и прекращает попытки при отмене контекста.
type RetryingGateway struct {
	next    domain.PaymentGateway
	config  RetryConfig
	breaker *CircuitBreaker
	logger  *log.Entry
}

// NewRetryingGateway оборачивает next. breaker может быть nil.
func NewRetryingGateway(next domain.PaymentGateway, config RetryConfig, breaker *CircuitBreaker, logger *log.Entry) *RetryingGateway {
	if logger == nil {
		logger = log.WithField("component", "payment-retry")
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.BackoffFactor < 1 {
		config.BackoffFactor = 1
	}
	return &RetryingGateway{next: next, config: config, breaker: breaker, logger: logger}
}

// Charge выполняет списание с повторами.
func (g *RetryingGateway) Charge(ctx context.Context, req domain.ChargeRequest) (domain.ChargeReceipt, error) {
	var (
		receipt domain.ChargeReceipt
		lastErr error
	)
	delay := g.config.InitialDelay
	entry := g.logger.WithField("reference", req.Reference)

	for attempt := 1; attempt <= g.config.MaxAttempts; attempt++ {
		err := g.attempt(ctx, req, &receipt)
		if err == nil {
			if attempt > 1 {
				entry.WithField("attempt", attempt).Info("charge succeeded after retry")
			}
			return receipt, nil
		}
		lastErr = err

		if !domain.IsPaymentRetryable(err) {
			entry.WithError(err).Warn("charge failed with non-retryable error")
			return domain.ChargeReceipt{}, err
		}
		if attempt == g.config.MaxAttempts {
			break
		}

		entry.WithFields(log.Fields{
			"attempt": attempt,
			"delay":   delay,
		}).WithError(err).Warn("charge failed, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return domain.ChargeReceipt{}, fmt.Errorf("%w: %v", domain.ErrPaymentTimeout, ctx.Err())
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * g.config.BackoffFactor)
		if g.config.MaxDelay > 0 && delay > g.config.MaxDelay {
			delay = g.config.MaxDelay
		}
	}

	entry.WithFields(log.Fields{
		"max_attempts": g.config.MaxAttempts,
	}).WithError(lastErr).Error("charge failed after all retry attempts")
	return domain.ChargeReceipt{}, lastErr
}

func (g *RetryingGateway) attempt(ctx context.Context, req domain.ChargeRequest, out *domain.ChargeReceipt) error {
	call := func() error {
		receipt, err := g.next.Charge(ctx, req)
		if err != nil {
			return err
		}
		*out = receipt
		return nil
	}
	if g.breaker == nil {
		return call()
	}
	return g.breaker.Execute("charge", call)
}

var _ domain.PaymentGateway = (*RetryingGateway)(nil)

// CircuitState — состояние circuit breaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

// String возвращает имя состояния для логов.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker размыкается после maxFailures подряд временных ошибок
// и пропускает один пробный вызов по истечении resetTimeout.
// Отказ банка (ErrPaymentDeclined) не считается сбоем шлюза, а отмена
// или истечение контекста вызывающей стороны не влияет на состояние.
type CircuitBreaker struct {
	mu           sync.Mutex
	maxFailures  int
	resetTimeout time.Duration

	failures    int
	lastFailure time.Time
	state       CircuitState
	trialActive bool
	now         func() time.Time
	logger      *log.Entry
}

// NewCircuitBreaker создаёт circuit breaker.
func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration, logger *log.Entry) *CircuitBreaker {
	if logger == nil {
		logger = log.WithField("component", "circuit-breaker")
	}
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &CircuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        CircuitClosed,
		now:          time.Now,
		logger:       logger,
	}
}

// State возвращает текущее состояние.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Execute выполняет операцию через circuit breaker.
// В полуоткрытом состоянии одновременно выполняется только один пробный вызов,
// остальные получают domain.ErrCircuitOpen.
func (cb *CircuitBreaker) Execute(operation string, fn func() error) error {
	cb.mu.Lock()
	if cb.state == CircuitOpen {
		if cb.now().Sub(cb.lastFailure) < cb.resetTimeout {
			cb.mu.Unlock()
			return domain.ErrCircuitOpen
		}
		cb.state = CircuitHalfOpen
		cb.logger.WithField("operation", operation).Info("circuit breaker half-open")
	}
	trial := false
	if cb.state == CircuitHalfOpen {
		if cb.trialActive {
			cb.mu.Unlock()
			return domain.ErrCircuitOpen
		}
		cb.trialActive = true
		trial = true
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if trial {
		cb.trialActive = false
	}

	switch {
	case err == nil || errors.Is(err, domain.ErrPaymentDeclined):
		if cb.state == CircuitHalfOpen {
			cb.logger.WithField("operation", operation).Info("circuit breaker closed")
		}
		cb.state = CircuitClosed
		cb.failures = 0
	case isCallerContextError(err):
		// Состояние не меняется: пробный вызов освобождён, счётчик не растёт.
	default:
		cb.failures++
		cb.lastFailure = cb.now()
		if cb.state == CircuitHalfOpen || cb.failures >= cb.maxFailures {
			cb.state = CircuitOpen
			cb.logger.WithFields(log.Fields{
				"operation": operation,
				"failures":  cb.failures,
			}).Warn("circuit breaker opened")
		}
	}
	return err
}

// isCallerContextError отделяет отмену и дедлайн вызывающей стороны
// от собственного таймаута шлюза (domain.ErrPaymentTimeout).
func isCallerContextError(err error) bool {
	if errors.Is(err, domain.ErrPaymentTimeout) {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
