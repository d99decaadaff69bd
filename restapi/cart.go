package restapi

import (
	"context"
	"fmt"

	"github.com/veromart/storefront-go/cart"
)

type cartEnvelope struct {
	Cart      cart.Cart `json:"cart"`
	SessionID string    `json:"session_id"`
	Message   string    `json:"message"`
}

// Cart fetches the cart for the current identity, creating an empty one when
// none exists.
func (c *Client) Cart(ctx context.Context) (*cart.Cart, error) {
	var result cartEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/cart/")
	if err != nil {
		return nil, fmt.Errorf("fetch cart: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &result.Cart, nil
}

// AddToCart adds quantity of a product to the cart.
func (c *Client) AddToCart(ctx context.Context, productID string, quantity int) (*cart.Cart, error) {
	var result cartEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"product_id": productID, "quantity": quantity}).
		SetResult(&result).
		Post("/cart/items")
	if err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &result.Cart, nil
}

// UpdateCartItem sets the quantity of a cart line. Quantity zero removes it.
func (c *Client) UpdateCartItem(ctx context.Context, productID string, quantity int) (*cart.Cart, error) {
	var result cartEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]int{"quantity": quantity}).
		SetResult(&result).
		Put("/cart/items/" + productID)
	if err != nil {
		return nil, fmt.Errorf("update cart item %s: %w", productID, err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &result.Cart, nil
}

// RemoveCartItem deletes a cart line.
func (c *Client) RemoveCartItem(ctx context.Context, productID string) (*cart.Cart, error) {
	var result cartEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Delete("/cart/items/" + productID)
	if err != nil {
		return nil, fmt.Errorf("remove cart item %s: %w", productID, err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &result.Cart, nil
}

// ClearCart empties the cart.
func (c *Client) ClearCart(ctx context.Context) (*cart.Cart, error) {
	var result cartEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Delete("/cart/items/clear")
	if err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &result.Cart, nil
}

// MergeCart folds the anonymous cart into the signed-in user's cart. Call it
// right after login while the anonymous session ID is still known; the
// explicit header overrides the resolver, which by then prefers the bearer
// token.
func (c *Client) MergeCart(ctx context.Context, anonymousSessionID string) (*cart.Cart, error) {
	var result cartEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Session-ID", anonymousSessionID).
		SetResult(&result).
		Post("/cart/merge")
	if err != nil {
		return nil, fmt.Errorf("merge carts: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &result.Cart, nil
}
