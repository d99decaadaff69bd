// Package auth manages the user's authentication state: logging in and out,
// persisting credentials, and notifying subscribers when the identity
// changes so dependent sessions can re-resolve.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/veromart/storefront-go/storage"
)

// User is the backend's account record.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Credentials is the login and register response.
type Credentials struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// API is the slice of the backend the auth service depends on.
type API interface {
	Login(ctx context.Context, email, password string) (*Credentials, error)
	Register(ctx context.Context, email, password, username string) (*Credentials, error)
	Profile(ctx context.Context) (*User, error)
}

// Service holds the current credentials and persists them across restarts.
// It is safe for concurrent use.
type Service struct {
	api   API
	store storage.Store
	log   zerolog.Logger

	mu        sync.Mutex
	token     string
	user      *User
	listeners map[int]func()
	nextID    int
}

// NewService builds an auth service. Credentials are not loaded until
// Restore is called.
func NewService(api API, store storage.Store, log zerolog.Logger) *Service {
	return &Service{
		api:       api,
		store:     store,
		log:       log.With().Str("component", "auth").Logger(),
		listeners: make(map[int]func()),
	}
}

// Restore loads persisted credentials and validates them against the
// backend. An invalid or rejected token is discarded so the client falls
// back to an anonymous identity.
func (s *Service) Restore(ctx context.Context) error {
	token, ok, err := s.store.Get(ctx, storage.KeyToken)
	if err != nil {
		return fmt.Errorf("load stored token: %w", err)
	}
	if !ok || token == "" {
		return nil
	}

	var user *User
	if data, ok, err := s.store.Get(ctx, storage.KeyUser); err == nil && ok {
		var u User
		if err := json.Unmarshal([]byte(data), &u); err == nil {
			user = &u
		}
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()

	fresh, err := s.api.Profile(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("stored token rejected, clearing credentials")
		return s.Logout(ctx)
	}

	s.mu.Lock()
	s.user = fresh
	s.mu.Unlock()
	s.persistUser(ctx, fresh)
	s.notify()
	return nil
}

// Login authenticates and persists the resulting credentials.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	creds, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	s.setCredentials(ctx, creds)
	return &creds.User, nil
}

// Register creates an account and signs in as it.
func (s *Service) Register(ctx context.Context, email, password, username string) (*User, error) {
	creds, err := s.api.Register(ctx, email, password, username)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	s.setCredentials(ctx, creds)
	return &creds.User, nil
}

// Logout drops credentials locally. The backend keeps no server-side login
// state beyond the token itself.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if err := s.store.Remove(ctx, storage.KeyToken); err != nil {
		s.log.Warn().Err(err).Msg("remove stored token")
	}
	if err := s.store.Remove(ctx, storage.KeyUser); err != nil {
		s.log.Warn().Err(err).Msg("remove stored user")
	}
	s.notify()
	return nil
}

// Token returns the current bearer token, or empty when logged out. It
// satisfies identity.TokenSource.
func (s *Service) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// User returns the signed-in user, or nil.
func (s *Service) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	cp := *s.user
	return &cp
}

// LoggedIn reports whether credentials are held.
func (s *Service) LoggedIn() bool {
	return s.Token() != ""
}

// Subscribe registers fn to run after every identity change. The returned
// function removes the subscription.
func (s *Service) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Service) setCredentials(ctx context.Context, creds *Credentials) {
	s.mu.Lock()
	s.token = creds.Token
	user := creds.User
	s.user = &user
	s.mu.Unlock()

	if err := s.store.Set(ctx, storage.KeyToken, creds.Token); err != nil {
		s.log.Warn().Err(err).Msg("persist token")
	}
	s.persistUser(ctx, &user)
	s.notify()
	s.log.Info().Str("user_id", user.ID).Msg("signed in")
}

func (s *Service) persistUser(ctx context.Context, user *User) {
	data, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, storage.KeyUser, string(data)); err != nil {
		s.log.Warn().Err(err).Msg("persist user")
	}
}

func (s *Service) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
