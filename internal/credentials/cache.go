// Package credentials caches the commerce backend access token.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultTTL is how long an acquired token is reused.
const DefaultTTL = time.Hour

// Fetcher acquires a fresh access token from the credential endpoint.
type Fetcher interface {
	AccessToken(ctx context.Context, clientID, clientSecret string) (string, error)
}

// Observer is notified about every refresh attempt.
type Observer interface {
	TokenRefreshed(err error)
}

// Cache holds a single process-wide access token.
//
// The mutex is held for the whole refresh, so callers that find the token
// expired queue behind the one refreshing it and then see its result.
type Cache struct {
	fetcher      Fetcher
	clientID     string
	clientSecret string
	ttl          time.Duration
	now          func() time.Time
	observer     Observer
	logger       *slog.Logger

	mu         sync.Mutex
	token      string
	acquiredAt time.Time
}

// Option configures the Cache.
type Option func(*Cache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now (for tests).
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithObserver reports refreshes to o.
func WithObserver(o Observer) Option {
	return func(c *Cache) {
		c.observer = o
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Cache that refreshes through fetcher with fixed client credentials.
func New(fetcher Fetcher, clientID, clientSecret string, opts ...Option) (*Cache, error) {
	if fetcher == nil {
		return nil, errors.New("credentials: fetcher must not be nil")
	}
	c := &Cache{
		fetcher:      fetcher,
		clientID:     clientID,
		clientSecret: clientSecret,
		ttl:          DefaultTTL,
		now:          time.Now,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Token returns the cached token, refreshing it first when it is missing or
// at least TTL old. A failed refresh leaves the previous state untouched.
func (c *Cache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.token != "" && now.Sub(c.acquiredAt) < c.ttl {
		return c.token, nil
	}

	token, err := c.fetcher.AccessToken(ctx, c.clientID, c.clientSecret)
	if err == nil && token == "" {
		err = errors.New("empty access token")
	}
	if c.observer != nil {
		c.observer.TokenRefreshed(err)
	}
	if err != nil {
		return "", fmt.Errorf("refresh access token: %w", err)
	}

	c.token = token
	c.acquiredAt = now
	c.logger.Info("Store token refreshed", "ttl", c.ttl)
	return token, nil
}

// Invalidate drops the cached token so the next Token call refreshes.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.acquiredAt = time.Time{}
}
