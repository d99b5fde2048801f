package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/bookcart/internal/domain"
)

func TestOutboxRepository_EnqueueAndPullInOrder(t *testing.T) {
	repo := NewOutboxRepository()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	first, err := repo.Enqueue(domain.OrderConfirmation{OrderID: "order-1"})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected generated id")
	}
	if _, err := repo.Enqueue(domain.OrderConfirmation{OrderID: "order-2"}); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending messages, got %d", len(pending))
	}
	if pending[0].Confirmation.OrderID != "order-1" || pending[1].Confirmation.OrderID != "order-2" {
		t.Fatalf("expected FIFO order, got %s, %s", pending[0].Confirmation.OrderID, pending[1].Confirmation.OrderID)
	}

	limited, _ := repo.PullPending(1)
	if len(limited) != 1 || limited[0].ID != first.ID {
		t.Fatalf("limit must keep the oldest message, got %+v", limited)
	}

	stats, _ := repo.Stats()
	if stats.PendingCount != 2 || !stats.OldestPendingAt.Equal(first.EnqueuedAt) {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestOutboxRepository_MarkSentAndFailed(t *testing.T) {
	repo := NewOutboxRepository()

	sent, _ := repo.Enqueue(domain.OrderConfirmation{OrderID: "order-1"})
	failed, _ := repo.Enqueue(domain.OrderConfirmation{OrderID: "order-2"})

	if err := repo.MarkSent(sent.ID); err != nil {
		t.Fatalf("mark sent failed: %v", err)
	}
	if err := repo.MarkFailed(failed.ID); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if err := repo.MarkFailed("missing"); !errors.Is(err, domain.ErrOutboxMessageNotFound) {
		t.Fatalf("expected ErrOutboxMessageNotFound, got %v", err)
	}

	pending, _ := repo.PullPending(10)
	if len(pending) != 0 {
		t.Fatalf("expected no pending messages, got %d", len(pending))
	}

	if removed := repo.Prune(time.Now().Add(time.Minute)); removed != 1 {
		t.Fatalf("expected one sent message pruned, got %d", removed)
	}
	if removed := repo.Prune(time.Now().Add(time.Minute)); removed != 0 {
		t.Fatalf("failed messages must be kept, got %d pruned", removed)
	}
}
