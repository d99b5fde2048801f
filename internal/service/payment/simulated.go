// Package payment содержит имитацию платёжного шлюза и обёртки устойчивости над PaymentGateway.
package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/bookcart/internal/domain"
)

// SimulatedGateway — конфигурируемая имитация PaymentGateway.
// Задержка соблюдает отмену контекста; результаты берутся из очереди Outcomes,
// а после её исчерпания возвращается Err.
type SimulatedGateway struct {
	mu sync.Mutex

	Delay    time.Duration
	Err      error
	Outcomes []error

	Calls    int
	Requests []domain.ChargeRequest

	now func() time.Time
}

// NewSimulatedGateway возвращает шлюз, который успешно списывает после delay.
func NewSimulatedGateway(delay time.Duration) *SimulatedGateway {
	return &SimulatedGateway{Delay: delay, now: time.Now}
}

// Charge имитирует списание.
func (g *SimulatedGateway) Charge(ctx context.Context, req domain.ChargeRequest) (domain.ChargeReceipt, error) {
	g.mu.Lock()
	g.Calls++
	g.Requests = append(g.Requests, req)
	outcome := g.Err
	if len(g.Outcomes) > 0 {
		outcome = g.Outcomes[0]
		g.Outcomes = g.Outcomes[1:]
	}
	delay := g.Delay
	now := g.now
	g.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return domain.ChargeReceipt{}, fmt.Errorf("%w: %v", domain.ErrPaymentTimeout, ctx.Err())
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return domain.ChargeReceipt{}, fmt.Errorf("%w: %v", domain.ErrPaymentTimeout, err)
	}

	if outcome != nil {
		return domain.ChargeReceipt{}, outcome
	}
	if now == nil {
		now = time.Now
	}
	return domain.ChargeReceipt{
		ExternalID: "sim-" + uuid.NewString(),
		ChargedAt:  now().UTC(),
	}, nil
}

// CallCount возвращает число вызовов Charge.
func (g *SimulatedGateway) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Calls
}

var _ domain.PaymentGateway = (*SimulatedGateway)(nil)
