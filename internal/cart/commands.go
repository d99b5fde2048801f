// Package cart реализует журнал корзины: чистый редьюсер команд и леджер,
// который сохраняет снимок после каждой изменяющей команды.
package cart

import "github.com/vladislavdragonenkov/bookcart/internal/domain"

// Command — изменение состояния корзины.
type Command interface {
	// Name используется в логах и метриках.
	Name() string
	apply(state []domain.LineItem) []domain.LineItem
}

// AddItem добавляет позицию или увеличивает количество существующей строки.
// Quantity < 1 трактуется как 1, итог строки не превышает domain.MaxLineQuantity.
type AddItem struct {
	Item     domain.CatalogItem
	Quantity int
}

// RemoveItem удаляет строку. Отсутствующая строка не является ошибкой.
type RemoveItem struct {
	LineID string
}

// SetQuantity заменяет количество; значение < 1 удаляет строку,
// значение больше domain.MaxLineQuantity зажимается.
type SetQuantity struct {
	LineID   string
	Quantity int
}

// Clear очищает корзину и удаляет сохранённый ключ.
type Clear struct{}

// Load заменяет состояние целиком без повторного сохранения.
type Load struct {
	Items []domain.LineItem
}

func (AddItem) Name() string     { return "add" }
func (RemoveItem) Name() string  { return "remove" }
func (SetQuantity) Name() string { return "set_quantity" }
func (Clear) Name() string       { return "clear" }
func (Load) Name() string        { return "load" }

func (c AddItem) apply(state []domain.LineItem) []domain.LineItem {
	qty := domain.ClampQuantity(c.Quantity)
	line := domain.NewLineItem(c.Item, qty)

	next := domain.CloneLineItems(state)
	for i := range next {
		if next[i].LineID == line.LineID {
			// Слияние насыщается на MaxLineQuantity.
			if next[i].Quantity > domain.MaxLineQuantity-qty {
				next[i].Quantity = domain.MaxLineQuantity
			} else {
				next[i].Quantity += qty
			}
			return next
		}
	}
	return append(next, line)
}

func (c RemoveItem) apply(state []domain.LineItem) []domain.LineItem {
	next := make([]domain.LineItem, 0, len(state))
	for _, line := range state {
		if line.LineID == c.LineID {
			continue
		}
		line.Item = line.Item.Clone()
		next = append(next, line)
	}
	return next
}

func (c SetQuantity) apply(state []domain.LineItem) []domain.LineItem {
	if c.Quantity < 1 {
		return RemoveItem{LineID: c.LineID}.apply(state)
	}
	next := domain.CloneLineItems(state)
	for i := range next {
		if next[i].LineID == c.LineID {
			next[i].Quantity = domain.ClampQuantity(c.Quantity)
		}
	}
	return next
}

func (Clear) apply([]domain.LineItem) []domain.LineItem {
	return []domain.LineItem{}
}

func (c Load) apply([]domain.LineItem) []domain.LineItem {
	return Normalize(c.Items)
}

// Apply применяет команду к состоянию и возвращает новое состояние.
// Исходный срез не изменяется.
func Apply(state []domain.LineItem, cmd Command) []domain.LineItem {
	if cmd == nil {
		return domain.CloneLineItems(state)
	}
	return cmd.apply(state)
}

// Fold последовательно применяет команды к начальному состоянию.
func Fold(state []domain.LineItem, cmds ...Command) []domain.LineItem {
	next := domain.CloneLineItems(state)
	if next == nil {
		next = []domain.LineItem{}
	}
	for _, cmd := range cmds {
		next = Apply(next, cmd)
	}
	return next
}

// Normalize приводит произвольный снимок к инвариантам корзины:
// строки с количеством < 1 отбрасываются, LineID пересчитывается из названия и автора,
// строки с одинаковой идентичностью сливаются в порядке первого появления.
func Normalize(items []domain.LineItem) []domain.LineItem {
	next := []domain.LineItem{}
	for _, line := range items {
		if line.Quantity < 1 {
			continue
		}
		item := line.Item
		if item.ID == "" {
			item.ID = line.CatalogID
		}
		next = AddItem{Item: item, Quantity: line.Quantity}.apply(next)
	}
	return next
}
