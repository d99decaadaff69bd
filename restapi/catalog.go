package restapi

import (
	"context"
	"fmt"
	"strconv"

	"github.com/veromart/storefront-go/catalog"
)

// Products lists products, optionally filtered to a category.
func (c *Client) Products(ctx context.Context, opts catalog.ListOptions) (*catalog.ProductPage, error) {
	req := c.http.R().SetContext(ctx)
	if opts.Page > 0 {
		req.SetQueryParam("page", strconv.Itoa(opts.Page))
	}
	if opts.PerPage > 0 {
		req.SetQueryParam("per_page", strconv.Itoa(opts.PerPage))
	}
	if opts.CategoryID != "" {
		req.SetQueryParam("category_id", opts.CategoryID)
	}

	var result catalog.ProductPage
	resp, err := req.SetResult(&result).Get("/products/")
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &result, nil
}

// Product fetches one product. Results are cached; product data changes
// rarely and the chat assistant refers to products by ID constantly.
func (c *Client) Product(ctx context.Context, id string) (*catalog.Product, error) {
	if cached, ok := c.products.Get(id); ok {
		p := cached.(catalog.Product)
		return &p, nil
	}

	var result catalog.Product
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/products/" + id)
	if err != nil {
		return nil, fmt.Errorf("fetch product %s: %w", id, err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	c.products.Add(id, result)
	return &result, nil
}

// SearchProducts runs a free-text product search. An empty query returns no
// results.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]catalog.Product, error) {
	var result []catalog.Product
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		SetResult(&result).
		Get("/products/search")
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return result, nil
}

// Categories lists all categories.
func (c *Client) Categories(ctx context.Context) ([]catalog.Category, error) {
	var result []catalog.Category
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/categories/")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return result, nil
}

// CategoryProducts lists every product in a category, unpaginated.
func (c *Client) CategoryProducts(ctx context.Context, categoryID string) ([]catalog.Product, error) {
	var result []catalog.Product
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/categories/" + categoryID + "/products")
	if err != nil {
		return nil, fmt.Errorf("list category %s products: %w", categoryID, err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return result, nil
}

// HomeContent fetches the structured home screen: every category with its
// products inlined.
func (c *Client) HomeContent(ctx context.Context) (*catalog.HomeContent, error) {
	var result catalog.HomeContent
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/home/structured-content")
	if err != nil {
		return nil, fmt.Errorf("fetch home content: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &result, nil
}
