package memory

import (
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/bookcart/internal/domain"
)

// Store — in-memory реализация PersistentStore для локальной разработки и тестов.
type Store struct {
	mu     sync.RWMutex
	values map[string]string

	// Writes считает вызовы Set/Remove (используется в тестах).
	Writes int
}

// NewStore создаёт пустое хранилище.
func NewStore() *Store {
	return &Store{values: make(map[string]string)}
}

// Get возвращает значение ключа; отсутствие ключа не является ошибкой.
func (s *Store) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok, nil
}

// Set перезаписывает значение.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	s.Writes++
	return nil
}

// Remove удаляет ключ.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	s.Writes++
	return nil
}

// Keys возвращает отсортированный список ключей.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var _ domain.PersistentStore = (*Store)(nil)
