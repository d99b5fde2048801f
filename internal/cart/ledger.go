package cart

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookcart/internal/domain"
	"github.com/vladislavdragonenkov/bookcart/internal/metrics"
	"github.com/vladislavdragonenkov/bookcart/internal/storage/kv"
)

const metricsLabel = "cart"

// Observer получает копию состояния после каждой применённой команды.
type Observer func(items []domain.LineItem)

// Ledger хранит состояние корзины и сохраняет его после каждой изменяющей команды.
// Ledger не потокобезопасен: вызывающий сериализует команды сам.
type Ledger struct {
	items     []domain.LineItem
	store     *kv.Adapter
	key       string
	logger    *log.Entry
	metrics   *metrics.LedgerMetrics
	observers []Observer
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

// WithStorageKey переопределяет ключ хранилища.
func WithStorageKey(key string) Option {
	return func(l *Ledger) {
		if key != "" {
			l.key = key
		}
	}
}

// NewLedger создаёт пустой леджер поверх store. Для восстановления состояния вызовите Rehydrate.
func NewLedger(store domain.PersistentStore, opts ...Option) *Ledger {
	l := &Ledger{
		items:  []domain.LineItem{},
		key:    domain.CartStorageKey,
		logger: log.WithField("component", "cart-ledger"),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.store = kv.NewAdapter(store, l.logger)
	return l
}

// Rehydrate читает сохранённую корзину. Отсутствующие или повреждённые данные дают пустую корзину.
// Возвращает true, если состояние восстановлено из хранилища.
func (l *Ledger) Rehydrate() bool {
	raw, ok := l.store.LoadRaw(l.key)
	if !ok {
		l.items = []domain.LineItem{}
		l.recordRehydrate("empty")
		return false
	}

	items, err := DecodeSnapshot(raw)
	if err != nil {
		l.logger.WithError(err).WithField("key", l.key).Warn("discarding unreadable cart snapshot")
		l.items = []domain.LineItem{}
		l.recordRehydrate("corrupt")
		return false
	}

	l.items = items
	l.recordRehydrate("restored")
	l.notify()
	return true
}

// Dispatch применяет команду, сохраняет результат и уведомляет подписчиков.
func (l *Ledger) Dispatch(cmd Command) {
	if cmd == nil {
		return
	}
	l.items = Apply(l.items, cmd)

	switch cmd.(type) {
	case Load:
	case Clear:
		l.persist(func() error { return l.store.Delete(l.key) })
	default:
		l.persist(func() error { return l.store.Save(l.key, NewSnapshot(l.items)) })
	}

	if l.metrics != nil {
		l.metrics.RecordCommand(metricsLabel, cmd.Name(), len(l.items))
	}
	l.notify()
}

// Add кладёт позицию в корзину и возвращает итоговую строку.
func (l *Ledger) Add(item domain.CatalogItem, qty int) domain.LineItem {
	l.Dispatch(AddItem{Item: item, Quantity: qty})
	line, _ := l.Get(domain.IdentifyItem(item))
	return line
}

// Remove удаляет строку по LineID.
func (l *Ledger) Remove(lineID string) {
	l.Dispatch(RemoveItem{LineID: lineID})
}

// SetQuantity заменяет количество строки.
func (l *Ledger) SetQuantity(lineID string, qty int) {
	l.Dispatch(SetQuantity{LineID: lineID, Quantity: qty})
}

// Clear очищает корзину. Реализует checkout.CartClearer.
func (l *Ledger) Clear() {
	l.Dispatch(Clear{})
}

// Load заменяет состояние снимком без записи в хранилище.
func (l *Ledger) Load(items []domain.LineItem) {
	l.Dispatch(Load{Items: items})
}

// Items возвращает копию строк в порядке добавления.
func (l *Ledger) Items() []domain.LineItem {
	return domain.CloneLineItems(l.items)
}

// Get возвращает строку по LineID.
func (l *Ledger) Get(lineID string) (domain.LineItem, bool) {
	for _, line := range l.items {
		if line.LineID == lineID {
			line.Item = line.Item.Clone()
			return line, true
		}
	}
	return domain.LineItem{}, false
}

// Total — сумма корзины.
func (l *Ledger) Total() float64 {
	return domain.CartTotal(l.items)
}

// Count — общее количество экземпляров.
func (l *Ledger) Count() int {
	return domain.ItemCount(l.items)
}

// Len — число строк.
func (l *Ledger) Len() int {
	return len(l.items)
}

// Subscribe регистрирует наблюдателя.
func (l *Ledger) Subscribe(fn Observer) {
	if fn != nil {
		l.observers = append(l.observers, fn)
	}
}

func (l *Ledger) persist(write func() error) {
	if err := write(); err != nil {
		l.logger.WithError(err).WithField("key", l.key).Error("failed to persist cart")
		if l.metrics != nil {
			l.metrics.RecordPersistFailure(metricsLabel)
		}
	}
}

func (l *Ledger) notify() {
	for _, fn := range l.observers {
		fn(l.Items())
	}
}

func (l *Ledger) recordRehydrate(result string) {
	if l.metrics != nil {
		l.metrics.RecordRehydrate(metricsLabel, result)
	}
}
