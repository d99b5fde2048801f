package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/bookcart/internal/domain"
)

type outboxStatus string

const (
	outboxPending outboxStatus = "pending"
	outboxSent    outboxStatus = "sent"
	outboxFailed  outboxStatus = "failed"
)

type outboxRecord struct {
	msg       domain.OutboxMessage
	status    outboxStatus
	updatedAt time.Time
}

// OutboxRepository — in-memory очередь подтверждений заказов.
type OutboxRepository struct {
	mu      sync.RWMutex
	records map[string]*outboxRecord
	now     func() time.Time
}

// NewOutboxRepository создаёт пустую очередь.
func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{
		records: make(map[string]*outboxRecord),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Enqueue сохраняет подтверждение со статусом pending.
func (r *OutboxRepository) Enqueue(confirmation domain.OrderConfirmation) (domain.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	msg := domain.OutboxMessage{
		ID:           uuid.NewString(),
		Confirmation: confirmation,
		EnqueuedAt:   now,
	}
	r.records[msg.ID] = &outboxRecord{msg: msg, status: outboxPending, updatedAt: now}
	return msg, nil
}

// PullPending возвращает до limit pending-сообщений, старые первыми.
func (r *OutboxRepository) PullPending(limit int) ([]domain.OutboxMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	result := make([]domain.OutboxMessage, 0, len(r.records))
	for _, rec := range r.records {
		if rec.status == outboxPending {
			result = append(result, rec.msg)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].EnqueuedAt.Equal(result[j].EnqueuedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].EnqueuedAt.Before(result[j].EnqueuedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// MarkSent фиксирует успешную публикацию.
func (r *OutboxRepository) MarkSent(id string) error {
	return r.mark(id, outboxSent)
}

// MarkFailed фиксирует исчерпание попыток публикации.
func (r *OutboxRepository) MarkFailed(id string) error {
	return r.mark(id, outboxFailed)
}

func (r *OutboxRepository) mark(id string, status outboxStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return domain.ErrOutboxMessageNotFound
	}
	record.status = status
	record.updatedAt = r.now()
	return nil
}

// Stats возвращает размер очереди и время самого старого pending-сообщения.
func (r *OutboxRepository) Stats() (domain.OutboxStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats domain.OutboxStats
	for _, rec := range r.records {
		if rec.status != outboxPending {
			continue
		}
		stats.PendingCount++
		if stats.OldestPendingAt.IsZero() || rec.msg.EnqueuedAt.Before(stats.OldestPendingAt) {
			stats.OldestPendingAt = rec.msg.EnqueuedAt
		}
	}
	return stats, nil
}

// Prune удаляет отправленные сообщения, обновлённые раньше before.
func (r *OutboxRepository) Prune(before time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, rec := range r.records {
		if rec.status == outboxSent && rec.updatedAt.Before(before) {
			delete(r.records, id)
			removed++
		}
	}
	return removed
}

var _ domain.OutboxRepository = (*OutboxRepository)(nil)
