package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/nostrapizza/storefront-backend/pkg/errors"
	redisclient "github.com/nostrapizza/storefront-backend/pkg/redis"
)

type stateStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(userID string) string
}

// Store persists cart snapshots in Redis, one key per user.
type Store struct {
	redis stateStore
	ttl   time.Duration
}

// NewStore builds a Redis-backed cart store.
func NewStore(redis stateStore, ttl time.Duration) (*Store, error) {
	if redis == nil {
		return nil, fmt.Errorf("redis store required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	return &Store{redis: redis, ttl: ttl}, nil
}

// Load returns the cart for the user, or a fresh empty cart when none exists.
func (s *Store) Load(ctx context.Context, userID string) (*State, error) {
	raw, err := s.redis.Get(ctx, s.redis.CartKey(userID))
	if err != nil {
		if errors.Is(err, redisclient.Nil) {
			return NewState(), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	state := NewState()
	if err := json.Unmarshal([]byte(raw), state); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cart state")
	}
	if state.Lines == nil {
		state.Lines = []Line{}
	}
	return state, nil
}

// Save writes the cart snapshot, refreshing the TTL.
func (s *Store) Save(ctx context.Context, userID string, state *State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart state")
	}
	if err := s.redis.Set(ctx, s.redis.CartKey(userID), string(payload), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}

// Delete removes the user's cart key entirely.
func (s *Store) Delete(ctx context.Context, userID string) error {
	if err := s.redis.Del(ctx, s.redis.CartKey(userID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
	}
	return nil
}
