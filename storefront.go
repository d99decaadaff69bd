// Package storefront assembles the SDK: persistent storage, identity
// resolution, the REST client, authentication, and the streaming chat
// session, wired together the way the mobile shell consumes them.
package storefront

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/veromart/storefront-go/auth"
	"github.com/veromart/storefront-go/chat"
	"github.com/veromart/storefront-go/config"
	"github.com/veromart/storefront-go/identity"
	"github.com/veromart/storefront-go/logger"
	"github.com/veromart/storefront-go/restapi"
	"github.com/veromart/storefront-go/sse"
	"github.com/veromart/storefront-go/storage"
)

// Option adjusts the assembly of a Storefront.
type Option func(*options)

type options struct {
	store    storage.Store
	onUpdate func()
}

// WithStore overrides the persistent store selected from configuration.
func WithStore(s storage.Store) Option {
	return func(o *options) { o.store = s }
}

// WithOnUpdate registers the callback invoked after every chat state change.
func WithOnUpdate(fn func()) Option {
	return func(o *options) { o.onUpdate = fn }
}

// Storefront is the assembled SDK. Fields are the subsystems a host
// application drives directly.
type Storefront struct {
	Config *config.Config
	Log    zerolog.Logger
	Store  storage.Store
	API    *restapi.Client
	Auth   *auth.Service
	Chat   *chat.Service

	unsubscribe func()
}

// New assembles a Storefront from cfg. The chat session is not resolved
// until Start (or Chat.Init) is called.
func New(cfg *config.Config, opts ...Option) (*Storefront, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	log := logger.New(cfg)

	store := o.store
	if store == nil {
		store = openStore(cfg, log)
	}

	// The auth service is constructed after the REST client, but the client
	// needs its token; the function indirection breaks the cycle.
	var authSvc *auth.Service
	resolver := identity.NewResolver(identity.TokenFunc(func() string {
		if authSvc == nil {
			return ""
		}
		return authSvc.Token()
	}), store, log)

	api, err := restapi.New(cfg, resolver, log)
	if err != nil {
		return nil, fmt.Errorf("build rest client: %w", err)
	}
	authSvc = auth.NewService(api, store, log)

	chatSvc := chat.NewService(chat.Config{
		API:               api,
		Dialer:            sse.NewDialer(cfg.BaseURL, log),
		Store:             store,
		Logger:            log,
		OnUpdate:          o.onUpdate,
		StreamIdleTimeout: cfg.StreamIdleTimeout,
	})

	sf := &Storefront{
		Config: cfg,
		Log:    log,
		Store:  store,
		API:    api,
		Auth:   authSvc,
		Chat:   chatSvc,
	}
	sf.unsubscribe = authSvc.Subscribe(func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
		defer cancel()
		if err := chatSvc.Reinit(ctx); err != nil {
			log.Warn().Err(err).Msg("re-resolve chat session after identity change")
		}
	})
	return sf, nil
}

// Start restores persisted credentials and resolves the chat session. A
// restored identity triggers its own session resolution through the auth
// subscription, so Start only initializes explicitly when that did not
// happen.
func (s *Storefront) Start(ctx context.Context) error {
	if err := s.Auth.Restore(ctx); err != nil {
		s.Log.Warn().Err(err).Msg("restore credentials")
	}
	if s.Chat.Session() != nil {
		return nil
	}
	return s.Chat.Init(ctx)
}

// Close tears down the chat stream and releases resources.
func (s *Storefront) Close() error {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	return s.Chat.Close()
}

// openStore picks the configured persistence backend; failures degrade to
// process memory with a warning, never to a dead client.
func openStore(cfg *config.Config, log zerolog.Logger) storage.Store {
	if cfg.RedisURL != "" {
		s, err := storage.NewRedisStore(cfg.RedisURL)
		if err == nil {
			log.Info().Msg("using redis storage")
			return s
		}
		log.Warn().Err(err).Msg("redis storage unavailable, falling back to file storage")
	}
	s, err := storage.NewFileStore(cfg.StorageDir)
	if err != nil {
		log.Warn().Err(err).Msg("file storage unavailable, falling back to memory")
		return storage.NewMemoryStore()
	}
	return s
}
