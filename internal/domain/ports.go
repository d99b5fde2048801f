package domain

import "context"

// Ключи хранилища, под которыми лежат снимки леджеров.
const (
	CartStorageKey     = "bookstore.cart"
	ListingsStorageKey = "bookstore.listings"
)

// PersistentStore — синхронное key/value хранилище строк (аналог localStorage).
type PersistentStore interface {
	// Get возвращает значение и ok=false, если ключа нет. Отсутствие ключа — не ошибка.
	Get(key string) (string, bool, error)
	// Set перезаписывает значение ключа.
	Set(key, value string) error
	// Remove удаляет ключ; удаление отсутствующего ключа — не ошибка.
	Remove(key string) error
}

// BookCatalog — read-only доступ к каталогу магазина.
type BookCatalog interface {
	List(ctx context.Context) ([]CatalogItem, error)
	// GetByID возвращает ErrCatalogItemNotFound, если товара нет.
	GetByID(ctx context.Context, id string) (CatalogItem, error)
}

// PaymentGateway описывает взаимодействие с платёжным провайдером.
type PaymentGateway interface {
	// Charge списывает сумму. Ошибка означает, что деньги не списаны.
	Charge(ctx context.Context, req ChargeRequest) (ChargeReceipt, error)
}

// ConfirmationPublisher передаёт подтверждённый заказ во внешнюю систему заказов.
type ConfirmationPublisher interface {
	PublishConfirmation(ctx context.Context, confirmation OrderConfirmation) error
}

// ListingPublisher уведомляет внешние системы о новых объявлениях.
type ListingPublisher interface {
	PublishListing(ctx context.Context, listing ListingItem) error
}
