package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/joseph-ayodele/venue-planner/constants"
	"github.com/joseph-ayodele/venue-planner/internal/common"
	"github.com/joseph-ayodele/venue-planner/internal/entity"
	"github.com/joseph-ayodele/venue-planner/internal/snapshot"
	"github.com/joseph-ayodele/venue-planner/internal/state"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeRemote struct {
	mu     sync.Mutex
	doc    []byte
	getErr error
	putErr error
	puts   int
	putCh  chan struct{}
}

func newFakeRemote() *fakeRemote { return &fakeRemote{putCh: make(chan struct{}, 16)} }

func (r *fakeRemote) Name() string { return "fake" }

func (r *fakeRemote) Get(context.Context) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	if r.doc == nil {
		return nil, common.ErrNotFound
	}
	return append([]byte(nil), r.doc...), nil
}

func (r *fakeRemote) Put(_ context.Context, payload []byte) error {
	r.mu.Lock()
	if r.putErr != nil {
		r.mu.Unlock()
		return r.putErr
	}
	r.doc = append([]byte(nil), payload...)
	r.puts++
	r.mu.Unlock()
	r.putCh <- struct{}{}
	return nil
}

func (r *fakeRemote) set(t *testing.T, st entity.ApplicationState) {
	t.Helper()
	b, err := snapshot.Encode(st, time.Now())
	require.NoError(t, err)
	r.mu.Lock()
	r.doc = b
	r.mu.Unlock()
}

func (r *fakeRemote) putCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.puts
}

func venueState(names ...string) entity.ApplicationState {
	st := entity.ApplicationState{Venues: []entity.Venue{}, Vendors: []entity.Vendor{}}
	for i, n := range names {
		st.Venues = append(st.Venues, entity.Venue{
			ID:          string(rune('a' + i)),
			VenueFields: entity.VenueFields{Name: n},
			Status:      constants.StatusUnseen,
		})
	}
	return st
}

func TestConnect_SeedsMissingRemote(t *testing.T) {
	remote := newFakeRemote()
	store := state.NewStore(venueState("Oak Barn"), nil)
	s := New(remote, store)

	require.NoError(t, s.Connect(context.Background()))

	assert.Equal(t, StateConnected, s.Status().State)
	assert.Equal(t, "fake", s.Status().Backend)
	assert.NotNil(t, s.Status().LastSyncAt)
	assert.Equal(t, 1, remote.putCount())
	got, err := snapshot.DecodeOrEmpty(remote.doc)
	require.NoError(t, err)
	assert.Equal(t, "Oak Barn", got.Venues[0].Name)
}

func TestConnect_RemoteReplacesLocal(t *testing.T) {
	remote := newFakeRemote()
	remote.set(t, venueState("Remote Hall"))
	store := state.NewStore(venueState("Local Barn"), nil)
	var origins []state.Origin
	store.Subscribe("rec", func(_ context.Context, c state.Change) { origins = append(origins, c.Origin) })

	s := New(remote, store)
	require.NoError(t, s.Connect(context.Background()))

	assert.Equal(t, "Remote Hall", store.Snapshot().Venues[0].Name)
	assert.Equal(t, []state.Origin{state.OriginRemote}, origins)
	assert.Zero(t, remote.putCount())
}

func TestConnect_FailureDisablesRemote(t *testing.T) {
	remote := newFakeRemote()
	remote.getErr = errors.New("connection refused")
	store := state.NewStore(venueState(), nil)
	s := New(remote, store)

	require.Error(t, s.Connect(context.Background()))
	st := s.Status()
	assert.Equal(t, StateError, st.State)
	assert.Contains(t, st.LastError, "connection refused")

	remote.mu.Lock()
	remote.getErr = nil
	remote.mu.Unlock()
	remote.set(t, venueState("Later"))

	s.PollOnce(context.Background())
	assert.Empty(t, store.Snapshot().Venues, "poll must be skipped until reconnect")

	require.NoError(t, s.Reconnect(context.Background()))
	assert.Equal(t, StateConnected, s.Status().State)
	assert.Equal(t, "Later", store.Snapshot().Venues[0].Name)
}

func TestPollOnce_AppliesChangesOnly(t *testing.T) {
	remote := newFakeRemote()
	remote.set(t, venueState("A"))
	store := state.NewStore(venueState(), nil)
	s := New(remote, store)
	require.NoError(t, s.Connect(context.Background()))
	v0 := store.Version()

	s.PollOnce(context.Background())
	assert.Equal(t, v0, store.Version(), "unchanged remote is a no-op")

	remote.set(t, venueState("A", "B"))
	s.PollOnce(context.Background())
	assert.Equal(t, v0+1, store.Version())
	assert.Len(t, store.Snapshot().Venues, 2)

	remote.mu.Lock()
	remote.getErr = errors.New("timeout")
	remote.mu.Unlock()
	s.PollOnce(context.Background())
	assert.Equal(t, StateError, s.Status().State)
	assert.Len(t, store.Snapshot().Venues, 2, "failed poll keeps local state")

	remote.mu.Lock()
	remote.getErr = nil
	remote.mu.Unlock()
	s.PollOnce(context.Background())
	assert.Equal(t, StateConnected, s.Status().State)
}

func TestPollOnce_CorruptRemoteKeepsLocal(t *testing.T) {
	remote := newFakeRemote()
	store := state.NewStore(venueState("Mine"), nil)
	s := New(remote, store)
	require.NoError(t, s.Connect(context.Background()))

	remote.mu.Lock()
	remote.doc = []byte("{garbage")
	remote.mu.Unlock()
	s.PollOnce(context.Background())

	assert.Equal(t, StateError, s.Status().State)
	assert.Equal(t, "Mine", store.Snapshot().Venues[0].Name)
}

func TestPusher_PushesLocalChangesAndSkipsEcho(t *testing.T) {
	remote := newFakeRemote()
	store := state.NewStore(venueState(), nil)
	s := New(remote, store, WithInterval(time.Hour))
	store.Subscribe("sync", s.Subscriber())
	require.NoError(t, s.Connect(context.Background()))
	<-remote.putCh // seed

	s.Start()
	defer s.Shutdown(context.Background())

	_, err := store.Update(context.Background(), func(st entity.ApplicationState) (entity.ApplicationState, error) {
		st.Venues = append(st.Venues, entity.Venue{ID: "x", VenueFields: entity.VenueFields{Name: "New"}, Status: constants.StatusUnseen})
		return st, nil
	})
	require.NoError(t, err)

	select {
	case <-remote.putCh:
	case <-time.After(2 * time.Second):
		t.Fatal("local change was not pushed")
	}

	v := store.Version()
	s.PollOnce(context.Background())
	assert.Equal(t, v, store.Version(), "own push must not be re-applied")

	remote.set(t, venueState("Other Device"))
	s.PollOnce(context.Background())
	assert.Equal(t, "Other Device", store.Snapshot().Venues[0].Name)
	assert.Equal(t, 2, remote.putCount(), "remote-origin changes are not pushed back")
}

func TestPusher_FailureSetsError(t *testing.T) {
	remote := newFakeRemote()
	store := state.NewStore(venueState(), nil)
	var mu sync.Mutex
	var states []ConnState
	s := New(remote, store, WithInterval(time.Hour), WithStatusObserver(func(cs ConnectionStatus) {
		mu.Lock()
		states = append(states, cs.State)
		mu.Unlock()
	}))
	store.Subscribe("sync", s.Subscriber())
	require.NoError(t, s.Connect(context.Background()))
	<-remote.putCh

	remote.mu.Lock()
	remote.putErr = errors.New("403 forbidden")
	remote.mu.Unlock()

	s.Start()
	_, err := store.Update(context.Background(), func(st entity.ApplicationState) (entity.ApplicationState, error) {
		st.Venues = append(st.Venues, entity.Venue{ID: "y", VenueFields: entity.VenueFields{Name: "Y"}})
		return st, nil
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return s.Status().State == StateError }, 2*time.Second, 10*time.Millisecond)
	s.Shutdown(context.Background())
	assert.Contains(t, s.Status().LastError, "403")

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, states, StateError)
}

func TestNilRemote(t *testing.T) {
	s := New(nil, state.NewStore(venueState(), nil))
	require.NoError(t, s.Connect(context.Background()))
	s.Start()
	s.Shutdown(context.Background())
	assert.Equal(t, ConnectionStatus{State: StateDisconnected, Backend: "none"}, s.Status())
}
