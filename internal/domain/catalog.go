package domain

// ImageRef ссылается на изображение товара (обложка, превью страниц).
type ImageRef struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// CatalogItem — позиция каталога книжного магазина.
// Ядро только читает её и хранит копии внутри строк корзины.
type CatalogItem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	Price       float64    `json:"price"`
	Images      []ImageRef `json:"images,omitempty"`
	Category    string     `json:"category,omitempty"`
	Ratings     float64    `json:"ratings,omitempty"`
	Description string     `json:"description,omitempty"`
}

// Clone возвращает копию позиции, не разделяющую срез изображений.
func (c CatalogItem) Clone() CatalogItem {
	if c.Images != nil {
		c.Images = append([]ImageRef(nil), c.Images...)
	}
	return c
}
