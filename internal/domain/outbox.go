package domain

import "time"

// OutboxMessage — подтверждённый заказ, ожидающий доставки во внешнюю систему заказов.
type OutboxMessage struct {
	ID           string
	Confirmation OrderConfirmation
	EnqueuedAt   time.Time
}

// OutboxStats описывает очередь неотправленных сообщений.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// OutboxRepository хранит подтверждения до их успешной публикации.
type OutboxRepository interface {
	Enqueue(confirmation OrderConfirmation) (OutboxMessage, error)
	// PullPending возвращает до limit сообщений в порядке постановки в очередь.
	PullPending(limit int) ([]OutboxMessage, error)
	MarkSent(id string) error
	MarkFailed(id string) error
	Stats() (OutboxStats, error)
}
