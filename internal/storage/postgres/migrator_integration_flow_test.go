package postgres

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

func openRawStoreForIntegrationTest(t *testing.T) *Store {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("BOOKCART_POSTGRES_TEST_DSN"))
	if dsn == "" {
		t.Skip("BOOKCART_POSTGRES_TEST_DSN is not set, skipping migrator integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := Open(ctx, dsn)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func migrationStatus(t *testing.T, ctx context.Context, store *Store) (int64, int) {
	t.Helper()
	version, count, err := store.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("migration status: %v", err)
	}
	return version, count
}

func TestMigrator_PostgresLifecycle(t *testing.T) {
	store := openRawStoreForIntegrationTest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := store.MigrateDown(ctx, 100); err != nil {
		t.Fatalf("migrate down reset: %v", err)
	}
	if version, count := migrationStatus(t, ctx, store); version != 0 || count != 0 {
		t.Fatalf("unexpected status after reset: version=%d count=%d", version, count)
	}

	if err := store.MigrateUp(ctx, 1); err != nil {
		t.Fatalf("migrate up one step: %v", err)
	}
	if version, count := migrationStatus(t, ctx, store); version != 1 || count != 1 {
		t.Fatalf("unexpected status after one step: version=%d count=%d", version, count)
	}

	if err := store.MigrateUp(ctx, 0); err != nil {
		t.Fatalf("migrate up all: %v", err)
	}
	if version, count := migrationStatus(t, ctx, store); version != 2 || count != 2 {
		t.Fatalf("unexpected status after up all: version=%d count=%d", version, count)
	}

	// Повторный up ничего не меняет.
	if err := store.MigrateUp(ctx, 0); err != nil {
		t.Fatalf("idempotent migrate up: %v", err)
	}
	if version, count := migrationStatus(t, ctx, store); version != 2 || count != 2 {
		t.Fatalf("unexpected status after idempotent up: version=%d count=%d", version, count)
	}

	if err := store.MigrateDown(ctx, 0); err != nil {
		t.Fatalf("migrate down default step: %v", err)
	}
	if version, count := migrationStatus(t, ctx, store); version != 1 || count != 1 {
		t.Fatalf("unexpected status after down default: version=%d count=%d", version, count)
	}

	if err := store.MigrateUp(ctx, 0); err != nil {
		t.Fatalf("restore schema: %v", err)
	}
}

func TestMigrator_NilStoreGuards(t *testing.T) {
	var nilStore *Store
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := nilStore.MigrateUp(ctx, 0); err == nil {
		t.Fatal("expected error for nil store MigrateUp")
	}
	if err := nilStore.MigrateDown(ctx, 1); err == nil {
		t.Fatal("expected error for nil store MigrateDown")
	}
	if _, _, err := nilStore.MigrationStatus(ctx); err == nil {
		t.Fatal("expected error for nil store MigrationStatus")
	}
	if err := nilStore.Ping(ctx); err == nil {
		t.Fatal("expected error for nil store Ping")
	}
	if err := nilStore.Close(); err != nil {
		t.Fatalf("nil store Close should be no-op, got %v", err)
	}
}
