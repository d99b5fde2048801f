// Package listings хранит объявления пользователей о продаже книг.
package listings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookcart/internal/domain"
	"github.com/vladislavdragonenkov/bookcart/internal/metrics"
	"github.com/vladislavdragonenkov/bookcart/internal/storage/kv"
)

const (
	// SnapshotVersion — текущая версия формата сохранённых объявлений.
	SnapshotVersion = 1

	metricsLabel = "listings"
)

// ErrUnsupportedSnapshot возвращается для снимков неизвестной формы или версии.
var ErrUnsupportedSnapshot = errors.New("unsupported listings snapshot")

// Snapshot — сохраняемое представление объявлений.
type Snapshot struct {
	Version int                  `json:"version"`
	Items   []domain.ListingItem `json:"items"`
}

// Ledger — упорядоченный список объявлений с сохранением после каждого изменения.
// Объявления не сливаются по идентичности: две одинаковые книги дают два объявления.
// Ledger не потокобезопасен.
type Ledger struct {
	items   []domain.ListingItem
	store   *kv.Adapter
	key     string
	logger  *log.Entry
	metrics *metrics.LedgerMetrics
	now     func() time.Time
	newID   func() string
}

// Option настраивает Ledger.
type Option func(*Ledger)

// WithLogger задаёт логгер.
func WithLogger(logger *log.Entry) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithMetrics включает запись метрик.
func WithMetrics(m *metrics.LedgerMetrics) Option {
	return func(l *Ledger) {
		l.metrics = m
	}
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithIDGenerator подменяет генератор идентификаторов.
func WithIDGenerator(gen func() string) Option {
	return func(l *Ledger) {
		if gen != nil {
			l.newID = gen
		}
	}
}

// WithStorageKey переопределяет ключ хранилища.
func WithStorageKey(key string) Option {
	return func(l *Ledger) {
		if key != "" {
			l.key = key
		}
	}
}

// NewLedger создаёт пустой леджер поверх store.
func NewLedger(store domain.PersistentStore, opts ...Option) *Ledger {
	l := &Ledger{
		items:  []domain.ListingItem{},
		key:    domain.ListingsStorageKey,
		logger: log.WithField("component", "listings-ledger"),
		now:    time.Now,
		newID:  newListingID,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.store = kv.NewAdapter(store, l.logger)
	return l
}

// newListingID выдаёт UUIDv7, чтобы идентификаторы сортировались по времени создания.
func newListingID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Rehydrate восстанавливает объявления из хранилища. Повреждённые данные дают пустой список.
func (l *Ledger) Rehydrate() bool {
	raw, ok := l.store.LoadRaw(l.key)
	if !ok {
		l.items = []domain.ListingItem{}
		l.recordRehydrate("empty")
		return false
	}

	items, err := DecodeSnapshot(raw)
	if err != nil {
		l.logger.WithError(err).WithField("key", l.key).Warn("discarding unreadable listings snapshot")
		l.items = []domain.ListingItem{}
		l.recordRehydrate("corrupt")
		return false
	}
	l.items = items
	l.recordRehydrate("restored")
	return true
}

// Add проверяет данные, присваивает идентификатор и время создания, добавляет объявление в конец.
func (l *Ledger) Add(input domain.ListingInput) (domain.ListingItem, error) {
	if errs := input.Validate(); len(errs) > 0 {
		return domain.ListingItem{}, errors.Join(errs...)
	}

	item := domain.ListingItem{
		ListingID:    l.newID(),
		CreatedAt:    l.now().UTC(),
		ListingInput: input,
	}
	if input.Images != nil {
		item.Images = append([]domain.ImageRef(nil), input.Images...)
	}

	l.items = append(l.items, item)
	l.persist("add")
	return item, nil
}

// Remove удаляет объявление. Возвращает false, если объявления нет.
func (l *Ledger) Remove(listingID string) bool {
	for i, item := range l.items {
		if item.ListingID != listingID {
			continue
		}
		next := make([]domain.ListingItem, 0, len(l.items)-1)
		next = append(next, l.items[:i]...)
		next = append(next, l.items[i+1:]...)
		l.items = next
		l.persist("remove")
		return true
	}
	return false
}

// Load заменяет список без записи в хранилище. Объявления без ListingID отбрасываются.
func (l *Ledger) Load(items []domain.ListingItem) {
	l.items = sanitize(items)
	if l.metrics != nil {
		l.metrics.RecordCommand(metricsLabel, "load", len(l.items))
	}
}

// Items возвращает копию объявлений в порядке создания.
func (l *Ledger) Items() []domain.ListingItem {
	out := make([]domain.ListingItem, len(l.items))
	copy(out, l.items)
	return out
}

// Get ищет объявление по идентификатору.
func (l *Ledger) Get(listingID string) (domain.ListingItem, bool) {
	for _, item := range l.items {
		if item.ListingID == listingID {
			return item, true
		}
	}
	return domain.ListingItem{}, false
}

// Len — число объявлений.
func (l *Ledger) Len() int {
	return len(l.items)
}

func (l *Ledger) persist(command string) {
	snapshot := Snapshot{Version: SnapshotVersion, Items: l.items}
	if err := l.store.Save(l.key, snapshot); err != nil {
		l.logger.WithError(err).WithField("key", l.key).Error("failed to persist listings")
		if l.metrics != nil {
			l.metrics.RecordPersistFailure(metricsLabel)
		}
	}
	if l.metrics != nil {
		l.metrics.RecordCommand(metricsLabel, command, len(l.items))
	}
}

func (l *Ledger) recordRehydrate(result string) {
	if l.metrics != nil {
		l.metrics.RecordRehydrate(metricsLabel, result)
	}
}

// DecodeSnapshot разбирает сохранённые объявления. Голый массив принимается как версия 0.
func DecodeSnapshot(raw []byte) ([]domain.ListingItem, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrUnsupportedSnapshot)
	}

	switch trimmed[0] {
	case '[':
		var items []domain.ListingItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode legacy listings snapshot: %w", err)
		}
		return sanitize(items), nil
	case '{':
		var snap Snapshot
		if err := json.Unmarshal(trimmed, &snap); err != nil {
			return nil, fmt.Errorf("decode listings snapshot: %w", err)
		}
		if snap.Version != SnapshotVersion {
			return nil, fmt.Errorf("%w: version %d", ErrUnsupportedSnapshot, snap.Version)
		}
		return sanitize(snap.Items), nil
	default:
		return nil, fmt.Errorf("%w: unexpected payload", ErrUnsupportedSnapshot)
	}
}

func sanitize(items []domain.ListingItem) []domain.ListingItem {
	out := make([]domain.ListingItem, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.ListingID == "" {
			continue
		}
		if _, dup := seen[item.ListingID]; dup {
			continue
		}
		seen[item.ListingID] = struct{}{}
		out = append(out, item)
	}
	return out
}
