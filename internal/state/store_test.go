package state

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/venue-planner/internal/entity"
)

func TestStore_UpdateNotifiesInOrder(t *testing.T) {
	s := NewStore(entity.ApplicationState{}, nil)
	var seen []Change
	s.Subscribe("recorder", func(_ context.Context, c Change) { seen = append(seen, c) })

	ctx := context.Background()
	_, err := s.Update(ctx, func(st entity.ApplicationState) (entity.ApplicationState, error) {
		st.Venues = append(st.Venues, entity.Venue{ID: "1"})
		return st, nil
	})
	require.NoError(t, err)
	s.Replace(ctx, entity.ApplicationState{Vendors: []entity.Vendor{{ID: "v"}}}, OriginRemote)

	require.Len(t, seen, 2)
	assert.Equal(t, OriginLocal, seen[0].Origin)
	assert.Equal(t, uint64(1), seen[0].Version)
	assert.Len(t, seen[0].State.Venues, 1)
	assert.Equal(t, OriginRemote, seen[1].Origin)
	assert.Empty(t, seen[1].State.Venues)
	assert.Equal(t, uint64(2), s.Version())
}

func TestStore_FailedUpdateLeavesState(t *testing.T) {
	s := NewStore(entity.ApplicationState{Venues: []entity.Venue{{ID: "keep"}}}, nil)
	calls := 0
	s.Subscribe("count", func(context.Context, Change) { calls++ })

	_, err := s.Update(context.Background(), func(st entity.ApplicationState) (entity.ApplicationState, error) {
		st.Venues = nil
		return st, errors.New("rejected")
	})

	assert.Error(t, err)
	assert.Zero(t, calls)
	assert.Equal(t, "keep", s.Snapshot().Venues[0].ID)
}

func TestStore_SnapshotIsIsolated(t *testing.T) {
	s := NewStore(entity.ApplicationState{Venues: []entity.Venue{{
		ID:          "a",
		VenueFields: entity.VenueFields{Name: "Oak Barn", Features: []string{"garden"}},
	}}}, nil)

	snap := s.Snapshot()
	snap.Venues[0].Features[0] = "mutated"
	snap.Venues[0].Name = "mutated"

	fresh := s.Snapshot()
	assert.Equal(t, "Oak Barn", fresh.Venues[0].Name)
	assert.Equal(t, []string{"garden"}, fresh.Venues[0].Features)
}
