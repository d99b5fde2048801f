package domain

// MaxLineQuantity — верхняя граница количества в одной строке корзины.
const MaxLineQuantity = 999

// ClampQuantity приводит количество к диапазону [1, MaxLineQuantity].
func ClampQuantity(qty int) int {
	switch {
	case qty < 1:
		return 1
	case qty > MaxLineQuantity:
		return MaxLineQuantity
	default:
		return qty
	}
}

// LineItem — строка корзины: снимок позиции каталога и количество.
type LineItem struct {
	// LineID вычисляется через Identify и служит ключом слияния.
	LineID string `json:"lineId"`
	// CatalogID — внешний идентификатор товара, нужен для перехода на страницу книги.
	CatalogID string      `json:"catalogId"`
	Item      CatalogItem `json:"item"`
	Quantity  int         `json:"quantity"`
}

// Subtotal возвращает price * quantity для строки.
func (l LineItem) Subtotal() float64 {
	return LineTotal(l.Item.Price, l.Quantity)
}

// NewLineItem строит строку корзины из позиции каталога; количество зажимается в допустимый диапазон.
func NewLineItem(item CatalogItem, qty int) LineItem {
	return LineItem{
		LineID:    IdentifyItem(item),
		CatalogID: item.ID,
		Item:      item.Clone(),
		Quantity:  ClampQuantity(qty),
	}
}

// CloneLineItems копирует срез строк вместе с вложенными позициями.
func CloneLineItems(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	out := make([]LineItem, len(items))
	for i, item := range items {
		item.Item = item.Item.Clone()
		out[i] = item
	}
	return out
}
