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
	ErrCartNotFound = errors.New("no cart snapshot for session")
	ErrCartCorrupt  = errors.New("cart snapshot is not parsable")
)

const cartKeyPrefix = "cart:"

// CartStore persists full cart snapshots to durable key-value storage. The
// in-memory cart stays authoritative; a failed write is a warning, not an
// error surfaced to the shopper.
type CartStore interface {
	Load(ctx context.Context, sessionID string) (domain.Cart, error)
	Save(ctx context.Context, sessionID string, cart domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

type redisCartStore struct {
	client *redis.Client
}

// NewCartStore creates a Redis-backed CartStore.
func NewCartStore(client *redis.Client) CartStore {
	return &redisCartStore{client: client}
}

// Load reads the serialized item sequence for a session. A missing key maps
// to ErrCartNotFound and an unparsable value to ErrCartCorrupt so callers
// can fail open to an empty cart.
func (s *redisCartStore) Load(ctx context.Context, sessionID string) (domain.Cart, error) {
	raw, err := s.client.Get(ctx, cartKeyPrefix+sessionID).Result()
	if err != nil {
		if err == redis.Nil {
			return domain.Cart{}, ErrCartNotFound
		}
		return domain.Cart{}, fmt.Errorf("failed to load cart snapshot: %w", err)
	}

	var items []domain.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return domain.Cart{}, fmt.Errorf("%w: %v", ErrCartCorrupt, err)
	}

	cart := domain.Cart{Items: items}
	cart.Recompute()
	return cart, nil
}

// Save writes the full item sequence for a session. Derived count/total are
// not stored; they are recomputed on load.
func (s *redisCartStore) Save(ctx context.Context, sessionID string, cart domain.Cart) error {
	payload, err := json.Marshal(cart.Items)
	if err != nil {
		return fmt.Errorf("failed to serialize cart: %w", err)
	}

	if err := s.client.Set(ctx, cartKeyPrefix+sessionID, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to save cart snapshot: %w", err)
	}
	return nil
}

// Delete removes the snapshot for a session.
func (s *redisCartStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to delete cart snapshot: %w", err)
	}
	return nil
}
