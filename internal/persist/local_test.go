package persist

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/venue-planner/internal/entity"
	"github.com/joseph-ayodele/venue-planner/internal/repository"
	"github.com/joseph-ayodele/venue-planner/internal/state"
)

type memRepo struct {
	rec     repository.SnapshotRecord
	has     bool
	loadErr error
	saves   int
}

func (m *memRepo) Load(context.Context) (repository.SnapshotRecord, bool, error) {
	return m.rec, m.has, m.loadErr
}

func (m *memRepo) Save(_ context.Context, rec repository.SnapshotRecord) error {
	m.rec, m.has = rec, true
	m.saves++
	return nil
}

func TestLocal_WriteThroughAndReload(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	local := NewLocal(repo, nil)

	store := state.NewStore(local.Load(ctx), nil)
	store.Subscribe("persist", local.Subscriber())

	_, err := store.Update(ctx, func(st entity.ApplicationState) (entity.ApplicationState, error) {
		st.Venues = append(st.Venues, entity.Venue{ID: "a", VenueFields: entity.VenueFields{Name: "Oak Barn"}})
		return st, nil
	})
	require.NoError(t, err)
	store.Replace(ctx, entity.ApplicationState{Vendors: []entity.Vendor{{ID: "v"}}}, state.OriginRemote)
	assert.Equal(t, 2, repo.saves, "every mutation is snapshotted, including remote ones")

	reloaded := NewLocal(repo, nil).Load(ctx)
	assert.Empty(t, reloaded.Venues)
	require.Len(t, reloaded.Vendors, 1)
	assert.Equal(t, "v", reloaded.Vendors[0].ID)
}

func TestLocal_CorruptSnapshotFallsBackToEmpty(t *testing.T) {
	repo := &memRepo{has: true, rec: repository.SnapshotRecord{Payload: []byte("{not json")}}

	st := NewLocal(repo, nil).Load(context.Background())

	assert.True(t, st.Empty())
	assert.NotNil(t, st.Venues)
}

func TestLocal_LoadErrorFallsBackToEmpty(t *testing.T) {
	repo := &memRepo{loadErr: errors.New("disk gone")}

	st := NewLocal(repo, nil).Load(context.Background())

	assert.True(t, st.Empty())
}
