package outbox

import (
	"context"
	"fmt"

	"github.com/vladislavdragonenkov/bookcart/internal/domain"
)

// Enqueuer ставит подтверждения в outbox; доставку выполняет Worker.
type Enqueuer struct {
	repo domain.OutboxRepository
}

// NewEnqueuer создаёт Enqueuer поверх repo.
func NewEnqueuer(repo domain.OutboxRepository) *Enqueuer {
	return &Enqueuer{repo: repo}
}

// PublishConfirmation сохраняет подтверждение для последующей доставки воркером.
func (e *Enqueuer) PublishConfirmation(_ context.Context, confirmation domain.OrderConfirmation) error {
	if _, err := e.repo.Enqueue(confirmation); err != nil {
		return fmt.Errorf("enqueue confirmation %s: %w", confirmation.OrderID, err)
	}
	return nil
}

var _ domain.ConfirmationPublisher = (*Enqueuer)(nil)
