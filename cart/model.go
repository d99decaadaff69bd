// Package cart defines the shopping cart types exposed by the storefront
// backend. The backend keys carts to the same identity rules as chat: a user
// ID when authenticated, the anonymous session ID otherwise.
package cart

// Item is one cart line. Price and Title are denormalized from the product
// at the time it was added.
type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
	Title     string `json:"title"`
	ImagePath string `json:"image_path"`
}

// Cart is the backend's cart document. Total is a display string computed
// server-side.
type Cart struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	SessionID   string `json:"session_id"`
	IsAnonymous bool   `json:"is_anonymous"`
	Items       []Item `json:"items"`
	TotalItems  int    `json:"total_items"`
	Total       string `json:"total"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}
