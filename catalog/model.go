// Package catalog defines the product browsing types exposed by the
// storefront backend.
package catalog

// Product is one sellable item. Price is a display string in the backend's
// locale formatting (for example "1.290.000"), not a number.
type Product struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Price        string   `json:"price"`
	Features     []string `json:"features"`
	ImagePath    string   `json:"image_path"`
	CategoryID   string   `json:"category_id"`
	CategoryName string   `json:"category_name,omitempty"`
	StockCount   int      `json:"stock_count"`
	IsInStock    bool     `json:"is_in_stock"`
	CreatedAt    string   `json:"created_at,omitempty"`
	UpdatedAt    string   `json:"updated_at,omitempty"`
}

// Category groups products.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImagePath   string `json:"image_path"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PerPage  int       `json:"per_page"`
	Pages    int       `json:"pages"`
}

// ListOptions narrow a product listing request. Zero values fall back to the
// backend defaults.
type ListOptions struct {
	Page       int
	PerPage    int
	CategoryID string
}

// HomeProduct is a product as rendered on the home screen; Inventory mirrors
// the stock count under the home endpoint's naming.
type HomeProduct struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Price        string   `json:"price"`
	Features     []string `json:"features"`
	ImagePath    string   `json:"image_path"`
	Inventory    int      `json:"inventory"`
	CategoryID   string   `json:"category_id"`
	CategoryName string   `json:"category_name"`
}

// HomeCategory is one home-screen section: a category with its products
// inlined.
type HomeCategory struct {
	CategoryID  string        `json:"category_id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	ImagePath   string        `json:"image_path"`
	Products    []HomeProduct `json:"products"`
}

// HomeContent is the structured home screen payload.
type HomeContent struct {
	Categories []HomeCategory `json:"categories"`
}
