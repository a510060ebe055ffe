package store

import (
	"context"
	"sync"
	"time"

	"github.com/i474232898/weather-box/internal/weather"
)

// MemoryStore is a concurrency-safe in-memory Store.
type MemoryStore struct {
	mu sync.RWMutex

	display *weather.DisplayState
	events  []weather.ContentChanged

	// retention configuration
	maxHistory int           // max number of events kept
	maxAge     time.Duration // optional max age for events
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// SaveDisplay replaces the stored display state.
func (s *MemoryStore) SaveDisplay(_ context.Context, d weather.DisplayState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.display = &d
	return nil
}

// LatestDisplay returns the most recently stored display state.
func (s *MemoryStore) LatestDisplay(_ context.Context) (weather.DisplayState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.display == nil {
		return weather.DisplayState{}, ErrNotFound
	}
	return *s.display, nil
}

// SaveEvent appends an event and enforces retention.
func (s *MemoryStore) SaveEvent(_ context.Context, e weather.ContentChanged) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, e)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(s.events) > s.maxHistory {
		over := len(s.events) - s.maxHistory
		s.events = s.events[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(s.events); i++ {
			if !s.events[i].EmittedAt.Before(cutoff) {
				break
			}
		}
		s.events = s.events[i:]
	}
	return nil
}

// Events returns all events emitted between from and to (inclusive).
func (s *MemoryStore) Events(_ context.Context, from, to time.Time) ([]weather.ContentChanged, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []weather.ContentChanged
	for _, e := range s.events {
		if !e.EmittedAt.Before(from) && !e.EmittedAt.After(to) {
			result = append(result, e)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
