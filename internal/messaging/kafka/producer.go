package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookcart/internal/domain"
)

// Producer публикует события заказов и объявлений в Kafka
type Producer struct {
	producer sarama.SyncProducer
	logger   *log.Entry
}

// NewProducer создает новый Kafka producer
func NewProducer(brokers []string, logger *log.Entry) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewProducerWithClient(producer, logger), nil
}

// NewProducerWithClient оборачивает готовый SyncProducer (используется в тестах с sarama/mocks).
func NewProducerWithClient(producer sarama.SyncProducer, logger *log.Entry) *Producer {
	if logger == nil {
		logger = log.WithField("component", "kafka-producer")
	}
	return &Producer{producer: producer, logger: logger}
}

// PublishEvent публикует событие в Kafka
func (p *Producer) PublishEvent(ctx context.Context, topic, key string, eventType EventType, event interface{}) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(eventData),
		Headers: []sarama.RecordHeader{
			{Key: []byte(HeaderEventType), Value: []byte(eventType)},
		},
		Timestamp: time.Now(),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithFields(log.Fields{
			"topic": topic,
			"key":   key,
		}).Error("failed to send message to kafka")
		return fmt.Errorf("failed to send message: %w", err)
	}

	p.logger.WithFields(log.Fields{
		"topic":     topic,
		"key":       key,
		"partition": partition,
		"offset":    offset,
	}).Debug("message sent to kafka")

	return nil
}

// PublishConfirmation передаёт подтверждённый заказ во внешнюю систему заказов.
func (p *Producer) PublishConfirmation(ctx context.Context, c domain.OrderConfirmation) error {
	return p.PublishEvent(ctx, TopicOrderEvents, c.OrderID, EventTypeOrderConfirmed, NewOrderEvent(c))
}

// PublishListing сообщает о новом объявлении.
func (p *Producer) PublishListing(ctx context.Context, l domain.ListingItem) error {
	return p.PublishEvent(ctx, TopicListingEvents, l.ListingID, EventTypeListingCreated, NewListingEvent(l))
}

// DeadLetter возвращает publisher, отправляющий подтверждения в DLQ-топик.
func (p *Producer) DeadLetter() domain.ConfirmationPublisher {
	return deadLetterPublisher{producer: p}
}

type deadLetterPublisher struct {
	producer *Producer
}

func (d deadLetterPublisher) PublishConfirmation(ctx context.Context, c domain.OrderConfirmation) error {
	event := NewOrderEvent(c)
	event.EventType = EventTypeOrderDeadLetter
	return d.producer.PublishEvent(ctx, TopicOrderEventsDLQ, c.OrderID, EventTypeOrderDeadLetter, event)
}

// Close закрывает producer
func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	return nil
}

var (
	_ domain.ConfirmationPublisher = (*Producer)(nil)
	_ domain.ListingPublisher      = (*Producer)(nil)
)
