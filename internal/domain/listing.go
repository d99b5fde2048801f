package domain

import "time"

// SellerContact — контакты продавца из сообщества.
type SellerContact struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ListingInput — данные, которые продавец заполняет при выставлении книги.
type ListingInput struct {
	Title       string        `json:"title"`
	Author      string        `json:"author"`
	Price       float64       `json:"price"`
	Category    string        `json:"category,omitempty"`
	Condition   string        `json:"condition,omitempty"`
	Description string        `json:"description,omitempty"`
	Images      []ImageRef    `json:"images,omitempty"`
	Seller      SellerContact `json:"seller"`
}

// ListingItem — объявление пользователя о продаже книги.
// Не модерируется и не истекает; удаляется только продавцом.
type ListingItem struct {
	ListingID string    `json:"listingId"`
	CreatedAt time.Time `json:"createdAt"`
	ListingInput
}

// AsCatalogItem превращает объявление в позицию, которую можно положить в корзину.
// CatalogID строки корзины будет равен ListingID.
func (l ListingItem) AsCatalogItem() CatalogItem {
	item := CatalogItem{
		ID:          l.ListingID,
		Title:       l.Title,
		Author:      l.Author,
		Price:       l.Price,
		Category:    l.Category,
		Description: l.Description,
	}
	if l.Images != nil {
		item.Images = append([]ImageRef(nil), l.Images...)
	}
	return item
}

// Validate проверяет минимально необходимые поля объявления.
func (in ListingInput) Validate() []error {
	var errs []error
	if in.Title == "" {
		errs = append(errs, ErrListingTitleRequired)
	}
	if in.Author == "" {
		errs = append(errs, ErrListingAuthorRequired)
	}
	if in.Price < 0 {
		errs = append(errs, ErrListingPriceNegative)
	}
	return errs
}
