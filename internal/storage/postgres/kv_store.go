package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/bookcart/internal/domain"
)

const opTimeout = 5 * time.Second

// kvStore — PersistentStore поверх таблицы kv_entries.
// Интерфейс синхронный, поэтому каждый вызов ограничен собственным таймаутом.
type kvStore struct {
	db *sql.DB
}

// NewKVStore создаёт PostgreSQL-реализацию PersistentStore.
func NewKVStore(store *Store) domain.PersistentStore {
	return &kvStore{db: store.DB()}
}

func (s *kvStore) Get(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("select kv entry: %w", describe(err))
	}
	return value, true, nil
}

func (s *kvStore) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    updated_at = EXCLUDED.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("upsert kv entry: %w", describe(err))
	}
	return nil
}

func (s *kvStore) Remove(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete kv entry: %w", describe(err))
	}
	return nil
}

// describe дополняет ошибку кодом SQLSTATE, если драйвер его вернул.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w (sqlstate %s)", err, pgErr.Code)
	}
	return err
}

var _ domain.PersistentStore = (*kvStore)(nil)
