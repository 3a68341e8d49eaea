// Package redisstore persists per-location cooldown state in Redis so the
// at-most-once alert guarantee survives restarts.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/powderline/snowfall-alert-service/internal/engine"
)

// keyPrefix namespaces cooldown keys so the database can be shared.
const keyPrefix = "snow_cooldown:"

// stateTTL expires abandoned keys. It comfortably exceeds any sane cooldown
// window, so expiry never shortens an active cooldown.
const stateTTL = 30 * 24 * time.Hour

// Store implements engine.CooldownStore on a Redis client. An absent key
// means the location has never alerted.
type Store struct {
	client *redis.Client
}

// NewStore creates a Redis-backed cooldown store.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Get retrieves the cooldown record for a location. The second return is
// false when no record exists.
func (s *Store) Get(ctx context.Context, locationID string) (engine.CooldownState, bool, error) {
	data, err := s.client.Get(ctx, keyPrefix+locationID).Result()
	if errors.Is(err, redis.Nil) {
		return engine.CooldownState{}, false, nil
	}
	if err != nil {
		return engine.CooldownState{}, false, fmt.Errorf("get cooldown state: %w", err)
	}

	var state engine.CooldownState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return engine.CooldownState{}, false, fmt.Errorf("unmarshal cooldown state: %w", err)
	}
	return state, true, nil
}

// Put stores the cooldown record for a location.
func (s *Store) Put(ctx context.Context, locationID string, state engine.CooldownState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal cooldown state: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+locationID, data, stateTTL).Err(); err != nil {
		return fmt.Errorf("set cooldown state: %w", err)
	}
	return nil
}

var _ engine.CooldownStore = (*Store)(nil)
