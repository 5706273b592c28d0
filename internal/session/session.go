// Package session holds the process-wide authentication state: the bearer
// token and user profile, persisted in the local store.
//
// Lifecycle: Uninitialized --Load--> Authenticated | Anonymous.
// Authenticated --Clear (logout or 401)--> Anonymous --Login--> Authenticated.
// There is no refreshing state; an expired token is terminal.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kiranshivaraju/lecturepilot/internal/cache"
	"github.com/kiranshivaraju/lecturepilot/internal/store"
	"github.com/kiranshivaraju/lecturepilot/pkg/models"
)

// ErrNotLoaded is returned by SetUser before Load or Login has run.
var ErrNotLoaded = errors.New("session not loaded")

type State int

const (
	StateUninitialized State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "uninitialized"
	}
}

// Session is safe for concurrent use. Callers must assume the token can
// disappear between two calls: a background 401 clears it.
type Session struct {
	store store.Store
	now   func() time.Time

	mu    sync.RWMutex
	state State
	token string
	user  *models.User
}

type Option func(*Session)

// WithClock overrides time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func New(s store.Store, opts ...Option) *Session {
	sess := &Session{store: s, now: time.Now}
	for _, o := range opts {
		o(sess)
	}
	return sess
}

// Load reads the persisted token and user. An expired token is removed
// together with the user and the session becomes anonymous.
func (s *Session) Load(ctx context.Context) error {
	rawToken, found, err := s.store.Get(ctx, cache.TokenKey)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	token := string(rawToken)

	if !found || token == "" || TokenExpired(token, s.now()) {
		if found && token != "" {
			slog.Info("stored token expired, clearing session")
		}
		if err := s.clearStore(ctx); err != nil {
			return err
		}
		s.mu.Lock()
		s.state, s.token, s.user = StateAnonymous, "", nil
		s.mu.Unlock()
		return nil
	}

	var user *models.User
	rawUser, found, err := s.store.Get(ctx, cache.UserKey)
	if err != nil {
		return fmt.Errorf("read user: %w", err)
	}
	if found && len(rawUser) > 0 {
		var u models.User
		if err := json.Unmarshal(rawUser, &u); err != nil {
			slog.Warn("discarding malformed stored user", "error", err)
		} else {
			user = &u
		}
	}

	s.mu.Lock()
	s.state, s.token, s.user = StateAuthenticated, token, user
	s.mu.Unlock()
	return nil
}

// Login persists a freshly issued token and user.
func (s *Session) Login(ctx context.Context, token string, user models.User) error {
	if token == "" {
		return fmt.Errorf("login: empty token")
	}
	if err := s.store.Set(ctx, cache.TokenKey, []byte(token)); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	if err := s.writeUser(ctx, user); err != nil {
		return err
	}

	s.mu.Lock()
	s.state, s.token, s.user = StateAuthenticated, token, &user
	s.mu.Unlock()
	return nil
}

// SetUser replaces the stored profile snapshot, e.g. after an account edit.
func (s *Session) SetUser(ctx context.Context, user models.User) error {
	if s.State() == StateUninitialized {
		return ErrNotLoaded
	}
	if err := s.writeUser(ctx, user); err != nil {
		return err
	}
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	return nil
}

// Clear drops the credential and user, both in memory and in the store.
// The in-memory state is cleared even if the store write fails.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.state, s.token, s.user = StateAnonymous, "", nil
	s.mu.Unlock()
	return s.clearStore(ctx)
}

// Token returns the current bearer token, or "" when anonymous.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the stored profile, or nil.
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Authenticated reports whether a non-expired token is held.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateAuthenticated && s.token != "" && !TokenExpired(s.token, s.now())
}

func (s *Session) writeUser(ctx context.Context, user models.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.store.Set(ctx, cache.UserKey, raw); err != nil {
		return fmt.Errorf("write user: %w", err)
	}
	return nil
}

func (s *Session) clearStore(ctx context.Context) error {
	tokenErr := s.store.Delete(ctx, cache.TokenKey)
	userErr := s.store.Delete(ctx, cache.UserKey)
	if err := errors.Join(tokenErr, userErr); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// TokenExpired reports whether token is a JWT whose exp claim is not after
// now. The signature is not verified; the server stays the authority.
// Tokens that are not JWTs or carry no exp are never considered expired.
func TokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}
