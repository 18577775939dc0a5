// Package redisstore implements session.Store on Redis.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Yulia51188/fish-house/internal/session"
	backend "github.com/redis/go-redis/v9"
)

// Store implements session.Store using plain Redis string keys.
type Store struct {
	client *backend.Client
	keys   session.Keys
	ttl    time.Duration
}

var _ session.Store = (*Store)(nil)

type Option func(*Store)

// WithTTL expires idle conversations after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix namespaces all keys.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.keys.Prefix = prefix
	}
}

// New creates a Redis store with its own client.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{client: client}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return "", session.ErrNotFound
		}
		return "", fmt.Errorf("failed to get from redis: %w", err)
	}
	return val, nil
}

// State returns the conversation's state tag.
func (s *Store) State(ctx context.Context, conversationID int64) (string, error) {
	return s.get(ctx, s.keys.State(conversationID))
}

// SetState stores the conversation's state tag. With a TTL set, the page
// key's expiry is renewed too so both keys age together.
func (s *Store) SetState(ctx context.Context, conversationID int64, state string) error {
	if s.ttl <= 0 {
		if err := s.client.Set(ctx, s.keys.State(conversationID), state, 0).Err(); err != nil {
			return fmt.Errorf("failed to save state to redis: %w", err)
		}
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Set(ctx, s.keys.State(conversationID), state, s.ttl)
		pipe.Expire(ctx, s.keys.Page(conversationID), s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save state to redis: %w", err)
	}
	return nil
}

// Page returns the conversation's catalog page index.
func (s *Store) Page(ctx context.Context, conversationID int64) (int, error) {
	raw, err := s.get(ctx, s.keys.Page(conversationID))
	if err != nil {
		return 0, err
	}
	page, err := session.ParsePage(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid page value %q: %w", raw, err)
	}
	return page, nil
}

// SetPage stores the conversation's catalog page index.
func (s *Store) SetPage(ctx context.Context, conversationID int64, page int) error {
	if err := s.client.Set(ctx, s.keys.Page(conversationID), session.FormatPage(page), s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save page to redis: %w", err)
	}
	return nil
}

// Init writes the state and a zero page inside one MULTI/EXEC.
func (s *Store) Init(ctx context.Context, conversationID int64, state string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Set(ctx, s.keys.State(conversationID), state, s.ttl)
		pipe.Set(ctx, s.keys.Page(conversationID), session.FormatPage(0), s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to init session in redis: %w", err)
	}
	return nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
