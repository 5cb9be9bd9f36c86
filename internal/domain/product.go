package domain

// Rating holds the aggregate review score for a product.
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Product represents an immutable catalog entry. Products are created at
// catalog load and never mutated afterwards.
type Product struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"original_price,omitempty"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	Image         string  `json:"image"`
	Rating        Rating  `json:"rating"`
	IsNew         bool    `json:"is_new,omitempty"`
	IsSale        bool    `json:"is_sale,omitempty"`
	Discount      int     `json:"discount,omitempty"`
}

// Category represents a product category shown on the storefront.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// Banner represents a promotional banner on the home page.
type Banner struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image"`
	Link        string `json:"link"`
}
