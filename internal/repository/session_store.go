package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/redis/go-redis/v9"
)

var (
	ErrSessionNotFound = errors.New("no user for session")
	ErrSessionCorrupt  = errors.New("session record is not parsable")
)

const sessionKeyPrefix = "session:"

// SessionStore persists the authenticated-user record for a session.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (*domain.User, error)
	Save(ctx context.Context, sessionID string, user *domain.User) error
	Delete(ctx context.Context, sessionID string) error
}

type redisSessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a Redis-backed SessionStore.
func NewSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{client: client}
}

// Load reads the persisted user for a session. A missing key maps to
// ErrSessionNotFound and an unparsable value to ErrSessionCorrupt so callers
// can fail open to the unauthenticated state.
func (s *redisSessionStore) Load(ctx context.Context, sessionID string) (*domain.User, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	user := &domain.User{}
	if err := json.Unmarshal([]byte(raw), user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCorrupt, err)
	}
	return user, nil
}

// Save writes the user record for a session.
func (s *redisSessionStore) Save(ctx context.Context, sessionID string, user *domain.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to serialize user: %w", err)
	}

	if err := s.client.Set(ctx, sessionKeyPrefix+sessionID, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes the user record for a session.
func (s *redisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
