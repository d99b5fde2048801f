package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/bookcart/internal/domain"
	"github.com/vladislavdragonenkov/bookcart/internal/storage/memory"
)

func TestStore_SetGetRemove(t *testing.T) {
	store := memory.NewStore()

	if _, ok, err := store.Get("missing"); err != nil || ok {
		t.Fatalf("expected missing key without error, got ok=%v err=%v", ok, err)
	}

	if err := store.Set("k", "v"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	v, ok, err := store.Get("k")
	if err != nil || !ok || v != "v" {
		t.Fatalf("unexpected get result: %q %v %v", v, ok, err)
	}

	if err := store.Remove("k"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if err := store.Remove("k"); err != nil {
		t.Fatalf("second remove must be a no-op, got %v", err)
	}
	if _, ok, _ := store.Get("k"); ok {
		t.Fatal("expected key to be removed")
	}
	if store.Writes != 3 {
		t.Fatalf("expected 3 writes, got %d", store.Writes)
	}
}

func TestCatalog_ListPreservesOrder(t *testing.T) {
	catalog := memory.NewCatalog(
		domain.CatalogItem{ID: "b", Title: "B"},
		domain.CatalogItem{ID: "a", Title: "A"},
	)
	catalog.Put(domain.CatalogItem{ID: "b", Title: "B2"})

	items, err := catalog.List(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 2 || items[0].ID != "b" || items[0].Title != "B2" || items[1].ID != "a" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestCatalog_GetByID(t *testing.T) {
	catalog := memory.DemoCatalog()

	item, err := catalog.GetByID(context.Background(), "bk-1002")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if item.Title != "Dune" {
		t.Fatalf("unexpected item %+v", item)
	}

	if _, err := catalog.GetByID(context.Background(), "nope"); !errors.Is(err, domain.ErrCatalogItemNotFound) {
		t.Fatalf("expected ErrCatalogItemNotFound, got %v", err)
	}
}
