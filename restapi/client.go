// Package restapi is the HTTP client for the storefront backend. Every
// request carries the caller's identity headers; responses decode into the
// domain types of the chat, auth, catalog, cart, and order packages.
package restapi

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/veromart/storefront-go/config"
	"github.com/veromart/storefront-go/identity"
)

// Client talks to the storefront backend. It is safe for concurrent use.
type Client struct {
	http     *resty.Client
	identity *identity.Resolver
	log      zerolog.Logger

	// breaker guards chat message submission, the one endpoint the backend
	// fans out to a slow model pipeline.
	breaker *gobreaker.CircuitBreaker

	products *lru.Cache
}

// New builds a client against cfg.BaseURL.
func New(cfg *config.Config, resolver *identity.Resolver, log zerolog.Logger) (*Client, error) {
	cache, err := lru.New(cfg.ProductCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create product cache: %w", err)
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.HTTPTimeout).
		SetHeader("Content-Type", "application/json")

	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		for k, v := range resolver.Headers(req.Context()) {
			req.SetHeader(k, v)
		}
		return nil
	})

	componentLog := log.With().Str("component", "restapi").Logger()
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "chat-message",
		Timeout: 15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			componentLog.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})

	return &Client{
		http:     httpClient,
		identity: resolver,
		log:      componentLog,
		breaker:  breaker,
		products: cache,
	}, nil
}

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

// apiError extracts the backend's error message. The backend reports
// failures as {"error": ...} on most routes and {"message": ...} on the
// order routes.
func apiError(resp *resty.Response) error {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := ""
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		msg = body.Error
		if msg == "" {
			msg = body.Message
		}
	}
	if msg == "" {
		msg = resp.Status()
	}
	return &APIError{StatusCode: resp.StatusCode(), Message: msg}
}
