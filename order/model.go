// Package order defines the order types exposed by the storefront backend.
// Orders require an authenticated identity.
package order

// Order statuses as the backend reports them.
const (
	StatusPendingPayment = "Chờ thanh toán"
	StatusProcessing     = "Đang xử lý"
	StatusShipping       = "Đang vận chuyển"
	StatusDelivered      = "Đã giao"
	StatusCancelled      = "Đã hủy"
	StatusRefunded       = "Đã hoàn tiền"
)

// Item is one ordered line, denormalized from the cart at checkout.
type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
	Title     string `json:"title"`
	ImagePath string `json:"image_path"`
}

// Order is a placed order. TotalAmount is a display string computed
// server-side.
type Order struct {
	ID              string `json:"id"`
	UserID          string `json:"user_id"`
	Items           []Item `json:"items"`
	TotalAmount     string `json:"total_amount"`
	Status          string `json:"status"`
	ShippingAddress string `json:"shipping_address"`
	PaymentMethod   string `json:"payment_method"`
	CreatedAt       string `json:"created_at,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

// CreateRequest is the checkout payload. The backend drains the cart into
// the order and validates stock per line.
type CreateRequest struct {
	CartID          string `json:"cart_id"`
	ShippingAddress string `json:"shipping_address"`
	PaymentMethod   string `json:"payment_method"`
}
