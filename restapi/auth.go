package restapi

import (
	"context"
	"fmt"

	"github.com/veromart/storefront-go/auth"
)

// Login exchanges credentials for a token and user record.
func (c *Client) Login(ctx context.Context, email, password string) (*auth.Credentials, error) {
	var result auth.Credentials
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&result).
		Post("/auth/login")
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &result, nil
}

// Register creates an account and returns its credentials.
func (c *Client) Register(ctx context.Context, email, password, username string) (*auth.Credentials, error) {
	var result auth.Credentials
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"email":    email,
			"password": password,
			"username": username,
		}).
		SetResult(&result).
		Post("/auth/register")
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &result, nil
}

// Profile returns the account behind the current bearer token.
func (c *Client) Profile(ctx context.Context) (*auth.User, error) {
	var result auth.User
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/auth/profile")
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &result, nil
}

var _ auth.API = (*Client)(nil)
