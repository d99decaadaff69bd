package restapi

import (
	"context"
	"fmt"

	"github.com/veromart/storefront-go/order"
)

type orderEnvelope struct {
	Order   order.Order `json:"order"`
	Message string      `json:"message"`
}

// CreateOrder places an order from a cart. Requires an authenticated
// identity; the backend validates stock and drains the cart.
func (c *Client) CreateOrder(ctx context.Context, req order.CreateRequest) (*order.Order, error) {
	var result orderEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post("/orders/")
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &result.Order, nil
}

// Orders lists the signed-in user's orders, newest first.
func (c *Client) Orders(ctx context.Context) ([]order.Order, error) {
	var result struct {
		Orders []order.Order `json:"orders"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/orders/")
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return result.Orders, nil
}

// Order fetches one of the signed-in user's orders.
func (c *Client) Order(ctx context.Context, id string) (*order.Order, error) {
	var result orderEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/orders/" + id)
	if err != nil {
		return nil, fmt.Errorf("fetch order %s: %w", id, err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &result.Order, nil
}
