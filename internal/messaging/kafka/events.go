package kafka

import (
	"time"

	"github.com/vladislavdragonenkov/bookcart/internal/domain"
)

// EventType определяет тип события
type EventType string

const (
	EventTypeOrderConfirmed EventType = "order.confirmed"
	EventTypeListingCreated EventType = "listing.created"
	// EventTypeOrderDeadLetter — подтверждение, которое не удалось доставить за отведённые попытки.
	EventTypeOrderDeadLetter EventType = "order.confirmed.dead_letter"
)

// Topics для Kafka
const (
	TopicOrderEvents    = "bookcart.order.events"
	TopicListingEvents  = "bookcart.listing.events"
	TopicOrderEventsDLQ = "bookcart.order.events.dlq"
)

// HeaderEventType дублирует тип события в заголовке сообщения для маршрутизации без разбора тела.
const HeaderEventType = "x-event-type"

// OrderLine — строка заказа в событии.
type OrderLine struct {
	LineID    string  `json:"line_id"`
	CatalogID string  `json:"catalog_id"`
	Title     string  `json:"title"`
	Author    string  `json:"author"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// OrderEvent — подтверждённый заказ, передаваемый во внешнюю систему заказов.
type OrderEvent struct {
	EventType     EventType   `json:"event_type"`
	OrderID       string      `json:"order_id"`
	BuyerEmail    string      `json:"buyer_email"`
	BuyerName     string      `json:"buyer_name,omitempty"`
	PaymentMethod string      `json:"payment_method"`
	PaymentRef    string      `json:"payment_ref,omitempty"`
	Total         float64     `json:"total"`
	Items         []OrderLine `json:"items"`
	SubmittedAt   time.Time   `json:"submitted_at"`
	Timestamp     time.Time   `json:"timestamp"`
}

// ListingEvent — новое объявление пользователя.
type ListingEvent struct {
	EventType EventType `json:"event_type"`
	ListingID string    `json:"listing_id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Price     float64   `json:"price"`
	Condition string    `json:"condition,omitempty"`
	Seller    string    `json:"seller"`
	CreatedAt time.Time `json:"created_at"`
	Timestamp time.Time `json:"timestamp"`
}

// NewOrderEvent создает событие подтверждения заказа
func NewOrderEvent(c domain.OrderConfirmation) *OrderEvent {
	lines := make([]OrderLine, 0, len(c.Items))
	for _, item := range c.Items {
		lines = append(lines, OrderLine{
			LineID:    item.LineID,
			CatalogID: item.CatalogID,
			Title:     item.Item.Title,
			Author:    item.Item.Author,
			Price:     item.Item.Price,
			Quantity:  item.Quantity,
		})
	}
	return &OrderEvent{
		EventType:     EventTypeOrderConfirmed,
		OrderID:       c.OrderID,
		BuyerEmail:    c.Buyer.Email,
		BuyerName:     c.Buyer.Name,
		PaymentMethod: string(c.PaymentMethod),
		PaymentRef:    c.PaymentRef,
		Total:         c.Total,
		Items:         lines,
		SubmittedAt:   c.SubmittedAt,
		Timestamp:     time.Now(),
	}
}

// NewListingEvent создает событие нового объявления
func NewListingEvent(l domain.ListingItem) *ListingEvent {
	return &ListingEvent{
		EventType: EventTypeListingCreated,
		ListingID: l.ListingID,
		Title:     l.Title,
		Author:    l.Author,
		Price:     l.Price,
		Condition: l.Condition,
		Seller:    l.Seller.Name,
		CreatedAt: l.CreatedAt,
		Timestamp: time.Now(),
	}
}
