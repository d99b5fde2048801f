package domain

import "strings"

// Identify вычисляет ключ строки корзины по названию и автору.
// Регистр и пробелы нормализуются: "The  Cat" и "the cat" дают один ключ.
func Identify(title, author string) string {
	return normalizeIdentityPart(title) + "-" + normalizeIdentityPart(author)
}

// IdentifyItem — Identify для позиции каталога.
func IdentifyItem(item CatalogItem) string {
	return Identify(item.Title, item.Author)
}

func normalizeIdentityPart(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}
