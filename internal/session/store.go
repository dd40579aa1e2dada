// Package session maps opaque cookie tokens to authenticated identities.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CookieName is the session cookie issued at login.
const CookieName = "session_id"

var ErrSessionNotFound = errors.New("session not found or expired")

// Principal is the request-scoped identity resolved from a session token.
type Principal struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
}

// Store keeps sessions in Redis under an opaque token with a TTL.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewStore connects to Redis and returns a session store.
func NewStore(redisURL string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewStoreWithClient(client, ttl), nil
}

// NewStoreWithClient builds a store from an existing Redis client.
func NewStoreWithClient(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, prefix: "session:", ttl: ttl}
}

func (s *Store) key(token string) string {
	return s.prefix + token
}

// Create issues a fresh opaque token for the principal.
func (s *Store) Create(ctx context.Context, principal Principal) (string, error) {
	data, err := json.Marshal(principal)
	if err != nil {
		return "", fmt.Errorf("marshal principal: %w", err)
	}

	token := uuid.NewString()
	if err := s.client.Set(ctx, s.key(token), data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return token, nil
}

// Lookup resolves a token, refreshing its TTL.
func (s *Store) Lookup(ctx context.Context, token string) (Principal, error) {
	data, err := s.client.Get(ctx, s.key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return Principal{}, ErrSessionNotFound
	}
	if err != nil {
		return Principal{}, fmt.Errorf("lookup session: %w", err)
	}

	var principal Principal
	if err := json.Unmarshal([]byte(data), &principal); err != nil {
		return Principal{}, fmt.Errorf("unmarshal principal: %w", err)
	}

	s.client.Expire(ctx, s.key(token), s.ttl)
	return principal, nil
}

// Revoke deletes a token at logout.
func (s *Store) Revoke(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.key(token)).Err()
}
