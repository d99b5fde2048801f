package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/bookcart/internal/domain"
)

// Catalog — статический каталог в памяти, сохраняет порядок добавления.
type Catalog struct {
	mu    sync.RWMutex
	order []string
	items map[string]domain.CatalogItem
}

// NewCatalog создаёт каталог из переданных позиций.
func NewCatalog(items ...domain.CatalogItem) *Catalog {
	c := &Catalog{items: make(map[string]domain.CatalogItem, len(items))}
	for _, item := range items {
		c.Put(item)
	}
	return c
}

// Put добавляет или заменяет позицию.
func (c *Catalog) Put(item domain.CatalogItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[item.ID]; !exists {
		c.order = append(c.order, item.ID)
	}
	c.items[item.ID] = item.Clone()
}

// List возвращает все позиции в порядке добавления.
func (c *Catalog) List(ctx context.Context) ([]domain.CatalogItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]domain.CatalogItem, 0, len(c.order))
	for _, id := range c.order {
		result = append(result, c.items[id].Clone())
	}
	return result, nil
}

// GetByID возвращает позицию или ErrCatalogItemNotFound.
func (c *Catalog) GetByID(ctx context.Context, id string) (domain.CatalogItem, error) {
	if err := ctx.Err(); err != nil {
		return domain.CatalogItem{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[id]
	if !ok {
		return domain.CatalogItem{}, domain.ErrCatalogItemNotFound
	}
	return item.Clone(), nil
}

// DemoCatalog возвращает небольшой набор книг для запуска без внешнего каталога.
func DemoCatalog() *Catalog {
	return NewCatalog(
		domain.CatalogItem{ID: "bk-1001", Title: "The Pragmatic Programmer", Author: "Andrew Hunt", Price: 42.5, Category: "programming"},
		domain.CatalogItem{ID: "bk-1002", Title: "Dune", Author: "Frank Herbert", Price: 12.99, Category: "fiction"},
		domain.CatalogItem{ID: "bk-1003", Title: "The Little Prince", Author: "Antoine de Saint-Exupery", Price: 7.5, Category: "children"},
	)
}

var _ domain.BookCatalog = (*Catalog)(nil)
