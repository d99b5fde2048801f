package domain

import "strconv"

// LineTotal возвращает стоимость строки без округления.
func LineTotal(price float64, qty int) float64 {
	return price * float64(qty)
}

// CartTotal суммирует стоимость всех строк.
func CartTotal(items []LineItem) float64 {
	var total float64
	for _, item := range items {
		total += LineTotal(item.Item.Price, item.Quantity)
	}
	return total
}

// ItemCount суммирует количества всех строк.
func ItemCount(items []LineItem) int {
	var count int
	for _, item := range items {
		count += item.Quantity
	}
	return count
}

// FormatAmount форматирует сумму для отображения (два знака после точки).
// Хранятся всегда неокруглённые значения.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
