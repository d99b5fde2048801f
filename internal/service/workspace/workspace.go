// Package workspace держит леджеры корзины и объявлений для каждого идентификатора корзины
// и сериализует команды над ними.
package workspace

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookcart/internal/cart"
	"github.com/vladislavdragonenkov/bookcart/internal/domain"
	"github.com/vladislavdragonenkov/bookcart/internal/listings"
)

// CartView — корзина вместе с производными итогами.
type CartView struct {
	Items []domain.LineItem `json:"items"`
	Total float64           `json:"total"`
	Count int               `json:"count"`
}

// Workspace — пара леджеров одного покупателя. Все методы берут мьютекс,
// поэтому в каждый момент над леджерами выполняется одна команда.
type Workspace struct {
	mu       sync.Mutex
	id       string
	cart     *cart.Ledger
	listings *listings.Ledger
	lastSeen time.Time

	publisher domain.ListingPublisher
	now       func() time.Time
	logger    *log.Entry
}

// ID возвращает идентификатор корзины.
func (w *Workspace) ID() string {
	return w.id
}

func (w *Workspace) touch() {
	w.lastSeen = w.now()
}

// Cart возвращает текущее состояние корзины.
func (w *Workspace) Cart() CartView {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	return w.cartViewLocked()
}

func (w *Workspace) cartViewLocked() CartView {
	return CartView{
		Items: w.cart.Items(),
		Total: w.cart.Total(),
		Count: w.cart.Count(),
	}
}

// AddToCart кладёт позицию в корзину и возвращает итоговую строку.
func (w *Workspace) AddToCart(item domain.CatalogItem, qty int) domain.LineItem {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	return w.cart.Add(item, qty)
}

// SetQuantity меняет количество строки. Количество < 1 удаляет строку.
func (w *Workspace) SetQuantity(lineID string, qty int) (CartView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()

	if _, ok := w.cart.Get(lineID); !ok {
		return CartView{}, domain.ErrLineItemNotFound
	}
	w.cart.SetQuantity(lineID, qty)
	return w.cartViewLocked(), nil
}

// RemoveLine удаляет строку. Отсутствующая строка не является ошибкой.
func (w *Workspace) RemoveLine(lineID string) CartView {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	w.cart.Remove(lineID)
	return w.cartViewLocked()
}

// ClearCart очищает корзину.
func (w *Workspace) ClearCart() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	w.cart.Clear()
}

// Listings возвращает объявления покупателя.
func (w *Workspace) Listings() []domain.ListingItem {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	return w.listings.Items()
}

// Listing ищет объявление по идентификатору.
func (w *Workspace) Listing(listingID string) (domain.ListingItem, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	item, ok := w.listings.Get(listingID)
	if !ok {
		return domain.ListingItem{}, domain.ErrListingNotFound
	}
	return item, nil
}

// AddListing создаёт объявление и публикует событие. Ошибка публикации не отменяет объявление.
func (w *Workspace) AddListing(ctx context.Context, input domain.ListingInput) (domain.ListingItem, error) {
	w.mu.Lock()
	w.touch()
	item, err := w.listings.Add(input)
	w.mu.Unlock()
	if err != nil {
		return domain.ListingItem{}, err
	}

	if w.publisher != nil {
		if err := w.publisher.PublishListing(ctx, item); err != nil {
			w.logger.WithError(err).WithField("listing_id", item.ListingID).Error("failed to publish listing")
		}
	}
	return item, nil
}

// RemoveListing удаляет объявление.
func (w *Workspace) RemoveListing(listingID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	if !w.listings.Remove(listingID) {
		return domain.ErrListingNotFound
	}
	return nil
}

// snapshotLines возвращает копию строк корзины; если lineIDs не пуст, только выбранные строки.
func (w *Workspace) snapshotLines(lineIDs []string) ([]domain.LineItem, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()

	if len(lineIDs) == 0 {
		return w.cart.Items(), nil
	}
	out := make([]domain.LineItem, 0, len(lineIDs))
	seen := make(map[string]struct{}, len(lineIDs))
	for _, id := range lineIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		line, ok := w.cart.Get(id)
		if !ok {
			return nil, domain.ErrLineItemNotFound
		}
		out = append(out, line)
	}
	return out, nil
}

// clearLines удаляет купленные строки; пустой список очищает корзину целиком.
func (w *Workspace) clearLines(lineIDs []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(lineIDs) == 0 {
		w.cart.Clear()
		return
	}
	for _, id := range lineIDs {
		w.cart.Remove(id)
	}
}

func (w *Workspace) idleSince(cutoff time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen.Before(cutoff)
}
