// Package kv оборачивает строковое PersistentStore в JSON-кодек с мягкой обработкой ошибок.
package kv

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookcart/internal/domain"
)

// Adapter кодирует значения в JSON и считает повреждённые данные отсутствующими.
type Adapter struct {
	store  domain.PersistentStore
	logger *log.Entry
}

// NewAdapter создаёт адаптер поверх store.
func NewAdapter(store domain.PersistentStore, logger *log.Entry) *Adapter {
	if logger == nil {
		logger = log.WithField("component", "kv-adapter")
	}
	return &Adapter{store: store, logger: logger}
}

// LoadRaw возвращает сырое значение ключа. Ошибка чтения трактуется как отсутствие данных.
func (a *Adapter) LoadRaw(key string) ([]byte, bool) {
	value, ok, err := a.store.Get(key)
	if err != nil {
		a.logger.WithError(err).WithField("key", key).Warn("store read failed, treating as absent")
		return nil, false
	}
	if !ok || value == "" {
		return nil, false
	}
	return []byte(value), true
}

// Save кодирует v в JSON и перезаписывает ключ.
func (a *Adapter) Save(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := a.store.Set(key, string(data)); err != nil {
		return fmt.Errorf("store set %s: %w", key, err)
	}
	return nil
}

// Delete удаляет ключ целиком.
func (a *Adapter) Delete(key string) error {
	if err := a.store.Remove(key); err != nil {
		return fmt.Errorf("store remove %s: %w", key, err)
	}
	return nil
}
