package kv

import "github.com/vladislavdragonenkov/bookcart/internal/domain"

// namespaced добавляет префикс ко всем ключам, чтобы несколько корзин делили одно хранилище.
type namespaced struct {
	prefix string
	store  domain.PersistentStore
}

// Namespace возвращает представление store, где ключи живут под "{ns}:".
// Пустой ns возвращает store как есть.
func Namespace(store domain.PersistentStore, ns string) domain.PersistentStore {
	if ns == "" {
		return store
	}
	return &namespaced{prefix: ns + ":", store: store}
}

func (n *namespaced) Get(key string) (string, bool, error) {
	return n.store.Get(n.prefix + key)
}

func (n *namespaced) Set(key, value string) error {
	return n.store.Set(n.prefix+key, value)
}

func (n *namespaced) Remove(key string) error {
	return n.store.Remove(n.prefix + key)
}
