// Package engine composes record building, verification, classification, and
// cooldown tracking into per-cycle alert decisions for a fixed location set.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/powderline/snowfall-alert-service/internal/domain"
)

// CooldownState is the per-location suppression record. A zero LastAlertTime
// (or a missing record in the store) means the location is idle.
type CooldownState struct {
	LastAlertTime time.Time   `json:"last_alert_time"`
	LastAlertTier domain.Tier `json:"last_alert_tier"`
}

// CooldownStore persists cooldown state per location. Implementations must
// treat absence of a record as idle. Only the CooldownTracker mutates it.
type CooldownStore interface {
	// Get returns the state for a location and whether a record exists.
	Get(ctx context.Context, locationID string) (CooldownState, bool, error)

	// Put replaces the state for a location.
	Put(ctx context.Context, locationID string, state CooldownState) error
}

// MemoryStore keeps cooldown state for the process lifetime.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]CooldownState
}

// NewMemoryStore creates an empty in-process cooldown store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]CooldownState)}
}

func (s *MemoryStore) Get(_ context.Context, locationID string) (CooldownState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[locationID]
	return state, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, locationID string, state CooldownState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[locationID] = state
	return nil
}

// CooldownTracker enforces the per-location alert cooldown so a sustained
// snow event produces one alert per window, not one per polling cycle.
// Expiry is evaluated lazily on each query; there are no timers.
type CooldownTracker struct {
	store  CooldownStore
	window time.Duration
}

// NewCooldownTracker validates the window eagerly and wraps the given store.
func NewCooldownTracker(store CooldownStore, window time.Duration) (*CooldownTracker, error) {
	if window <= 0 {
		return nil, &domain.ConfigurationError{
			Setting: "cooldown.window",
			Reason:  "must be a positive duration",
		}
	}
	return &CooldownTracker{store: store, window: window}, nil
}

// ShouldAlert reports whether a qualifying event at the given tier may alert
// now, and commits the new state in the same call when it may. At most one
// alert is emitted per qualifying event; there is no separate commit step, so
// callers must not invoke this speculatively.
//
// An alert fires when any of these hold:
//   - no prior alert exists for the location,
//   - the elapsed time since the last alert exceeds the cooldown window,
//   - the new tier is strictly higher than the last alerted tier. Escalating
//     conditions are never muted by a cooldown meant for repeat noise at the
//     same severity.
//
// A store error returns (false, err): with the state unreadable or unwritable
// the tracker suppresses rather than risk a duplicate alert.
func (t *CooldownTracker) ShouldAlert(ctx context.Context, locationID string, tier domain.Tier, now time.Time) (bool, error) {
	if tier == domain.TierNone {
		return false, nil
	}

	state, exists, err := t.store.Get(ctx, locationID)
	if err != nil {
		return false, err
	}

	if exists {
		elapsed := now.Sub(state.LastAlertTime)
		expired := elapsed > t.window
		escalated := tier > state.LastAlertTier
		if !expired && !escalated {
			return false, nil
		}
	}

	err = t.store.Put(ctx, locationID, CooldownState{
		LastAlertTime: now.UTC(),
		LastAlertTier: tier,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
