package health

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/vladislavdragonenkov/bookcart/internal/domain"
)

const storeCheckKey = "health.check"

// StoreChecker проверяет PersistentStore циклом запись → чтение → удаление служебного ключа.
func StoreChecker(store domain.PersistentStore) *SimpleChecker {
	return NewSimpleChecker("store", func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		value := strconv.FormatInt(time.Now().UnixNano(), 10)
		if err := store.Set(storeCheckKey, value); err != nil {
			return fmt.Errorf("write check key: %w", err)
		}
		got, ok, err := store.Get(storeCheckKey)
		if err != nil {
			return fmt.Errorf("read check key: %w", err)
		}
		if !ok || got != value {
			return fmt.Errorf("check value mismatch")
		}
		if err := store.Remove(storeCheckKey); err != nil {
			return fmt.Errorf("remove check key: %w", err)
		}
		return nil
	})
}

// CatalogChecker проверяет доступность каталога. Недоступный каталог не мешает
// работе с уже собранной корзиной, поэтому статус — degraded.
func CatalogChecker(catalog domain.BookCatalog) *SimpleChecker {
	return NewOptionalChecker("catalog", func(ctx context.Context) error {
		_, err := catalog.List(ctx)
		return err
	})
}
