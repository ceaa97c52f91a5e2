package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bnema/propman-cli/internal/domain"
	"github.com/bnema/propman-cli/internal/ports"
	"github.com/golang-jwt/jwt/v5"
)

const (
	AccessTokenKey  = "pm://session/access_token"
	RefreshTokenKey = "pm://session/refresh_token"
)

var ErrMissingAccessToken = errors.New("credentials missing access token")

// Session holds the in-memory credential pair and mirrors it to the secret store.
type Session struct {
	store ports.SecretStore
	clock ports.Clock

	mu    sync.RWMutex
	creds domain.Credentials
}

func NewSession(store ports.SecretStore, clock ports.Clock) *Session {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Session{store: store, clock: clock}
}

// Hydrate loads the persisted pair. Missing entries leave the session signed out.
func (s *Session) Hydrate(ctx context.Context) error {
	access, err := s.load(ctx, AccessTokenKey)
	if err != nil {
		return err
	}
	refresh, err := s.load(ctx, RefreshTokenKey)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.creds = domain.Credentials{AccessToken: access, RefreshToken: refresh}
	s.mu.Unlock()

	return nil
}

func (s *Session) Credentials() domain.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.creds
}

func (s *Session) Authenticated() bool {
	return !s.Credentials().Empty()
}

// AccessToken returns the current token when it is still usable, otherwise "".
// Tokens that are not JWTs are passed through and left to the server to judge.
func (s *Session) AccessToken() string {
	return s.usableToken(s.Credentials().AccessToken)
}

func (s *Session) usableToken(token string) string {
	if !tokenUsable(token, s.clock.Now()) {
		return ""
	}
	return token
}

// AccessTokenExpiry returns the exp claim of the current token, if it has one.
func (s *Session) AccessTokenExpiry() (time.Time, bool) {
	return tokenExpiry(s.Credentials().AccessToken)
}

// RefreshToken reads the refresh token from durable storage, falling back to memory.
func (s *Session) RefreshToken(ctx context.Context) (string, error) {
	token, err := s.load(ctx, RefreshTokenKey)
	if err != nil {
		if fallback := s.Credentials().RefreshToken; fallback != "" {
			return fallback, nil
		}
		return "", err
	}
	if token == "" {
		token = s.Credentials().RefreshToken
	}
	return token, nil
}

// Replace swaps in a new pair. Memory is updated before persistence so that
// concurrent requests pick up the new token even if the store is slow or fails.
// An empty refresh token keeps the previous one.
func (s *Session) Replace(ctx context.Context, creds domain.Credentials) error {
	creds.AccessToken = strings.TrimSpace(creds.AccessToken)
	creds.RefreshToken = strings.TrimSpace(creds.RefreshToken)
	if creds.AccessToken == "" {
		return ErrMissingAccessToken
	}

	s.mu.Lock()
	if creds.RefreshToken == "" {
		creds.RefreshToken = s.creds.RefreshToken
	}
	s.creds = creds
	s.mu.Unlock()

	var errs error
	if err := s.store.Put(ctx, AccessTokenKey, creds.AccessToken); err != nil {
		errs = errors.Join(errs, fmt.Errorf("store access token: %w", err))
	}
	if creds.RefreshToken != "" {
		if err := s.store.Put(ctx, RefreshTokenKey, creds.RefreshToken); err != nil {
			errs = errors.Join(errs, fmt.Errorf("store refresh token: %w", err))
		}
	}
	return errs
}

// Clear drops both tokens from memory and storage.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.creds = domain.Credentials{}
	s.mu.Unlock()

	return s.deleteStored(ctx)
}

// ClearIfCurrent clears the session only while accessToken is still the token
// in memory, and reports whether it did. Callers racing to end the same
// session see false once the first of them has cleared or replaced it.
func (s *Session) ClearIfCurrent(ctx context.Context, accessToken string) (bool, error) {
	s.mu.Lock()
	if s.creds.Empty() || s.creds.AccessToken != strings.TrimSpace(accessToken) {
		s.mu.Unlock()
		return false, nil
	}
	s.creds = domain.Credentials{}
	s.mu.Unlock()

	return true, s.deleteStored(ctx)
}

func (s *Session) deleteStored(ctx context.Context) error {
	var errs error
	for _, key := range []string{AccessTokenKey, RefreshTokenKey} {
		if err := s.store.Delete(ctx, key); err != nil && !errors.Is(err, domain.ErrSecretNotFound) {
			errs = errors.Join(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return errs
}

func (s *Session) load(ctx context.Context, key string) (string, error) {
	value, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrSecretNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("load %s: %w", key, err)
	}
	return strings.TrimSpace(value), nil
}

func tokenUsable(token string, now time.Time) bool {
	if strings.TrimSpace(token) == "" {
		return false
	}
	expiresAt, ok := tokenExpiry(token)
	if !ok {
		return true
	}
	return expiresAt.After(now)
}

func tokenExpiry(token string) (time.Time, bool) {
	if strings.Count(token, ".") != 2 {
		return time.Time{}, false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
