package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sessionKeyPrefix = "sessions:"

// SessionStore holds the current identity for each issued token. It is an
// explicit, injectable object: every consumer receives it via its
// constructor, never through package-level state. Expiry is delegated to the
// redis TTL.
type SessionStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger

	mu   sync.RWMutex
	subs []func(SessionEvent)
}

func NewSessionStore(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *SessionStore {
	return &SessionStore{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

// SessionReader is the read-only view of the store consumed by the route
// guard. Views other than the logout action never mutate session state.
type SessionReader interface {
	Current(ctx context.Context, token string) (Identity, error)
}

// Create issues a new opaque token for the identity and notifies subscribers.
func (s *SessionStore) Create(ctx context.Context, ident Identity) (string, error) {
	token := uuid.NewString()
	data, err := json.Marshal(ident)
	if err != nil {
		return "", err
	}
	if err := s.rdb.Set(ctx, sessionKeyPrefix+token, data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	s.notify(SessionEvent{Kind: SessionCreated, Identity: ident})
	return token, nil
}

// Current resolves a token to its identity. A missing or expired session
// yields ErrNoSession.
func (s *SessionStore) Current(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrNoSession
	}
	data, err := s.rdb.Get(ctx, sessionKeyPrefix+token).Bytes()
	if err == redis.Nil {
		return Identity{}, ErrNoSession
	}
	if err != nil {
		return Identity{}, fmt.Errorf("failed to read session: %w", err)
	}
	var ident Identity
	if err := json.Unmarshal(data, &ident); err != nil {
		return Identity{}, fmt.Errorf("failed to decode session: %w", err)
	}
	return ident, nil
}

// Destroy removes the session and notifies subscribers. Destroying an
// already-gone session is not an error.
func (s *SessionStore) Destroy(ctx context.Context, token string) error {
	ident, err := s.Current(ctx, token)
	if err != nil {
		if err == ErrNoSession {
			return nil
		}
		return err
	}
	if err := s.rdb.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	s.notify(SessionEvent{Kind: SessionDestroyed, Identity: ident})
	return nil
}

// Subscribe registers a callback invoked on every session change. Callbacks
// run synchronously on the goroutine performing the change and must be quick.
func (s *SessionStore) Subscribe(fn func(SessionEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *SessionStore) notify(ev SessionEvent) {
	s.mu.RLock()
	subs := make([]func(SessionEvent), len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}
