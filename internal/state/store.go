// Package state owns the single in-memory ApplicationState and is the only
// place it may be replaced.
package state

import (
	"context"
	"log/slog"
	"sync"

	"github.com/joseph-ayodele/venue-planner/internal/entity"
)

// Origin says where a state change came from. Subscribers use it to avoid
// echoing remote changes back to the remote.
type Origin string

const (
	OriginLocal  Origin = "local"
	OriginRemote Origin = "remote"
	OriginLoad   Origin = "load"
)

// Change is delivered to subscribers after each commit.
type Change struct {
	State   entity.ApplicationState
	Origin  Origin
	Version uint64
}

type Subscriber func(ctx context.Context, c Change)

type Store struct {
	logger *slog.Logger

	mu      sync.Mutex
	current entity.ApplicationState
	version uint64
	subs    []namedSubscriber
}

type namedSubscriber struct {
	name string
	fn   Subscriber
}

func NewStore(initial entity.ApplicationState, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{logger: logger, current: initial.Clone()}
}

// Subscribe registers fn. Subscribers run synchronously, in registration
// order, while the store lock is held, so they see commits in order and must
// not call back into Update.
func (s *Store) Subscribe(name string, fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, namedSubscriber{name: name, fn: fn})
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() entity.ApplicationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Update computes the next state from a copy of the current one and swaps it
// in. If fn returns an error the state is left untouched.
func (s *Store) Update(ctx context.Context, fn func(entity.ApplicationState) (entity.ApplicationState, error)) (entity.ApplicationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(s.current.Clone())
	if err != nil {
		return entity.ApplicationState{}, err
	}
	s.commitLocked(ctx, next, OriginLocal)
	return next.Clone(), nil
}

// Replace substitutes the whole state, as on load or remote overwrite.
func (s *Store) Replace(ctx context.Context, next entity.ApplicationState, origin Origin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitLocked(ctx, next.Clone(), origin)
}

func (s *Store) commitLocked(ctx context.Context, next entity.ApplicationState, origin Origin) {
	if next.Venues == nil {
		next.Venues = []entity.Venue{}
	}
	if next.Vendors == nil {
		next.Vendors = []entity.Vendor{}
	}
	s.current = next
	s.version++
	s.logger.Debug("state.commit", "origin", origin, "version", s.version,
		"venues", len(next.Venues), "vendors", len(next.Vendors))
	for _, sub := range s.subs {
		sub.fn(ctx, Change{State: next.Clone(), Origin: origin, Version: s.version})
	}
}
