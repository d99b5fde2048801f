package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookcart/internal/domain"
)

func sampleConfirmation() domain.OrderConfirmation {
	item := domain.CatalogItem{ID: "bk-1", Title: "Dune", Author: "Frank Herbert", Price: 10}
	return domain.OrderConfirmation{
		OrderID:       "order-123",
		Items:         []domain.LineItem{domain.NewLineItem(item, 2)},
		Buyer:         domain.BuyerInfo{Email: "a@b.co", Name: "Ann"},
		PaymentMethod: domain.PaymentMethodCard,
		Total:         20,
		PaymentRef:    "ext-1",
		SubmittedAt:   time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC),
	}
}

func TestProducer_PublishConfirmation(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := NewProducerWithClient(mockProducer, log.WithField("component", "kafka-producer-test"))

	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != TopicOrderEvents {
			return fmt.Errorf("unexpected topic %s", msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != "order-123" {
			return fmt.Errorf("unexpected key %s", key)
		}
		if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != string(EventTypeOrderConfirmed) {
			return fmt.Errorf("unexpected headers %+v", msg.Headers)
		}
		raw, _ := msg.Value.Encode()
		var event OrderEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			return err
		}
		if event.Total != 20 || len(event.Items) != 1 || event.Items[0].LineID != "dune-frank-herbert" {
			return fmt.Errorf("unexpected payload %+v", event)
		}
		return nil
	})

	if err := producer.PublishConfirmation(context.Background(), sampleConfirmation()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := producer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishListing(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := NewProducerWithClient(mockProducer, nil)

	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != TopicListingEvents {
			return fmt.Errorf("unexpected topic %s", msg.Topic)
		}
		return nil
	})

	listing := domain.ListingItem{
		ListingID:    "lst-1",
		CreatedAt:    time.Now(),
		ListingInput: domain.ListingInput{Title: "Dune", Author: "Frank Herbert", Seller: domain.SellerContact{Name: "Ann"}},
	}
	if err := producer.PublishListing(context.Background(), listing); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEvent_Error(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := NewProducerWithClient(mockProducer, nil)

	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	err := producer.PublishConfirmation(context.Background(), sampleConfirmation())
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEvent_CancelledContext(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := NewProducerWithClient(mockProducer, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := producer.PublishConfirmation(ctx, sampleConfirmation()); err == nil {
		t.Fatal("expected context error")
	}
	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestNewOrderEvent(t *testing.T) {
	event := NewOrderEvent(sampleConfirmation())

	if event.EventType != EventTypeOrderConfirmed {
		t.Errorf("expected event type %s, got %s", EventTypeOrderConfirmed, event.EventType)
	}
	if event.BuyerEmail != "a@b.co" {
		t.Errorf("unexpected buyer email %s", event.BuyerEmail)
	}
	if event.Items[0].Quantity != 2 {
		t.Errorf("unexpected quantity %d", event.Items[0].Quantity)
	}
	if event.Timestamp.IsZero() {
		t.Error("timestamp should not be zero")
	}
}

func TestNewListingEvent(t *testing.T) {
	event := NewListingEvent(domain.ListingItem{
		ListingID:    "lst-1",
		ListingInput: domain.ListingInput{Title: "Dune", Seller: domain.SellerContact{Name: "Ann"}},
	})

	if event.EventType != EventTypeListingCreated || event.Seller != "Ann" {
		t.Errorf("unexpected event %+v", event)
	}
}

func TestProducer_DeadLetter(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := NewProducerWithClient(mockProducer, nil)

	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != TopicOrderEventsDLQ {
			return fmt.Errorf("unexpected topic %s", msg.Topic)
		}
		raw, _ := msg.Value.Encode()
		var event OrderEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			return err
		}
		if event.EventType != EventTypeOrderDeadLetter || event.OrderID != "order-123" {
			return fmt.Errorf("unexpected payload %+v", event)
		}
		return nil
	})

	if err := producer.DeadLetter().PublishConfirmation(context.Background(), sampleConfirmation()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := producer.Close(); err != nil {
		t.Fatal(err)
	}
}
