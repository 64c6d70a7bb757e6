package planner

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
	"github.com/joseph-ayodele/venue-planner/internal/document"
	"github.com/joseph-ayodele/venue-planner/internal/entity"
	"github.com/joseph-ayodele/venue-planner/internal/export"
	"github.com/joseph-ayodele/venue-planner/internal/extract"
	"github.com/joseph-ayodele/venue-planner/internal/merge"
	"github.com/joseph-ayodele/venue-planner/internal/queue"
	"github.com/joseph-ayodele/venue-planner/internal/state"
	"github.com/joseph-ayodele/venue-planner/internal/syncer"
	"github.com/joseph-ayodele/venue-planner/internal/view"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu      sync.Mutex
	batches []BatchEvent
	jobs    int
	ch      chan BatchEvent
}

func newRecorder() *recorder { return &recorder{ch: make(chan BatchEvent, 8)} }

func (r *recorder) Publish(topic string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch ev := payload.(type) {
	case BatchEvent:
		r.batches = append(r.batches, ev)
		r.ch <- ev
	case JobEvent:
		r.jobs++
	}
}

func (r *recorder) wait(t *testing.T) BatchEvent {
	t.Helper()
	select {
	case ev := <-r.ch:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for batch")
	}
	return BatchEvent{}
}

type mergeCounter struct {
	mu    sync.Mutex
	added int
}

func (m *mergeCounter) MergeApplied(_ string, s merge.Summary) {
	m.mu.Lock()
	m.added += s.Added
	m.mu.Unlock()
}

var venuesByFile = map[string][]entity.VenueFields{
	"oak.pdf":    {{Name: "Oak Barn", VenueHireCost: 1000}},
	"castle.pdf": {{Name: "Castle Hill", Capacity: 200}},
	"oak2.pdf":   {{Name: "OAK BARN", VenueHireCost: 1500}},
}

func fakeVenues(_ context.Context, f document.File) ([]entity.VenueFields, error) {
	if _, err := document.Prepare(f); err != nil {
		return nil, err
	}
	if f.Name == "broken.pdf" {
		return nil, errors.New("could not read document")
	}
	return venuesByFile[f.Name], nil
}

func fakeVendors(_ context.Context, f document.File) ([]entity.VendorFields, error) {
	return []entity.VendorFields{{Name: "Snap", Category: "photography", Price: 900}}, nil
}

func newService(t *testing.T, opts ...Option) (*Service, *recorder) {
	t.Helper()
	rec := newRecorder()
	store := state.NewStore(entity.ApplicationState{}, nil)
	opts = append([]Option{WithNotifier(rec), WithLogger(common.DiscardLogger())}, opts...)
	svc := New(store,
		extract.Func[entity.VenueFields](fakeVenues),
		extract.Func[entity.VendorFields](fakeVendors),
		opts...)
	t.Cleanup(func() { svc.Shutdown(context.Background()) })
	return svc, rec
}

func pdf(name string) document.File { return document.NewFile(name, []byte("%PDF "+name)) }

func TestUpload_BatchMergesOnceWithFailure(t *testing.T) {
	counter := &mergeCounter{}
	svc, rec := newService(t, WithMetrics(counter, nil))

	ids, err := svc.UploadVenues(pdf("oak.pdf"), pdf("broken.pdf"), pdf("castle.pdf"))
	require.NoError(t, err)
	require.Len(t, ids, 3)

	ev := rec.wait(t)
	assert.Equal(t, entity.KindVenue, ev.Kind)
	assert.Equal(t, 2, ev.Records)
	assert.Equal(t, merge.Summary{Added: 2}, ev.Summary)

	venues := svc.Venues(view.Query{SortBy: view.SortName})
	require.Len(t, venues, 2)
	assert.Equal(t, "Castle Hill", venues[0].Name)
	assert.Equal(t, constants.NoteAddedViaUpload, venues[1].LastChangeDescription)

	jobs, stats, err := svc.Jobs(entity.KindVenue)
	require.NoError(t, err)
	assert.Equal(t, queue.Stats{Succeeded: 2, Failed: 1, Complete: true}, stats)
	assert.Equal(t, constants.JobStatusFailed, jobs[1].Status)
	assert.Equal(t, "could not read document", jobs[1].Error)
	assert.Equal(t, 2, counter.added)

	rec.mu.Lock()
	assert.Len(t, rec.batches, 1)
	assert.GreaterOrEqual(t, rec.jobs, 9)
	rec.mu.Unlock()
}

func TestUpload_SecondBatchUpdatesExisting(t *testing.T) {
	svc, rec := newService(t)

	_, err := svc.UploadVenues(pdf("oak.pdf"))
	require.NoError(t, err)
	rec.wait(t)
	first := svc.Venues(view.Query{})[0]

	require.NoError(t, svc.SetVenueStatus(context.Background(), first.ID, constants.StatusPriority))

	_, err = svc.UploadVenues(pdf("oak2.pdf"))
	require.NoError(t, err)
	ev := rec.wait(t)
	assert.Equal(t, 1, ev.Summary.Updated)

	venues := svc.Venues(view.Query{})
	require.Len(t, venues, 1)
	assert.Equal(t, first.ID, venues[0].ID)
	assert.Equal(t, 1500.0, venues[0].VenueHireCost)
	assert.Equal(t, constants.StatusPriority, venues[0].Status)
	assert.Contains(t, venues[0].LastChangeDescription, "1000 to 1500")
}

func TestUpload_Vendors(t *testing.T) {
	svc, rec := newService(t)
	_, err := svc.UploadVendors(document.NewFile("list.txt", []byte("snap")))
	require.NoError(t, err)
	rec.wait(t)

	vendors := svc.Vendors(view.Query{})
	require.Len(t, vendors, 1)
	assert.Equal(t, "Snap", vendors[0].Name)
}

func TestUpload_Rejects(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.UploadVenues()
	require.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = svc.Upload(entity.Kind("cake"), pdf("a.pdf"))
	require.ErrorIs(t, err, common.ErrInvalidInput)

	require.True(t, IsNotFound(svc.RemoveJob(entity.KindVenue, "missing")))
}

func TestUpload_UnreadableFileFailsOnlyItsJob(t *testing.T) {
	svc, rec := newService(t)

	ids, err := svc.UploadVenues(pdf("oak.pdf"), document.NewFile("b.docx", []byte("x")), document.NewFile("empty.pdf", nil))
	require.NoError(t, err)
	require.Len(t, ids, 3)
	rec.wait(t)

	jobs, stats, err := svc.Jobs(entity.KindVenue)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, constants.JobStatusSucceeded, jobs[0].Status)
	assert.Equal(t, constants.JobStatusFailed, jobs[1].Status)
	assert.Contains(t, jobs[1].Error, document.ErrUnsupportedFormat.Error())
	assert.Equal(t, constants.JobStatusFailed, jobs[2].Status)
	assert.Contains(t, jobs[2].Error, "empty")
	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, 2, stats.Failed)
	assert.Len(t, svc.Store().Snapshot().Venues, 1)
}

func TestManualVenueLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	added, err := svc.AddVenue(ctx, entity.VenueFields{Name: " Town Hall ", VenueHireCost: 800}, "")
	require.NoError(t, err)
	assert.Equal(t, "Town Hall", added.Name)
	assert.Equal(t, constants.StatusUnseen, added.Status)
	assert.Equal(t, constants.NoteAddedManually, added.LastChangeDescription)

	_, err = svc.AddVenue(ctx, entity.VenueFields{Name: "town hall"}, "")
	require.ErrorIs(t, err, merge.ErrDuplicateKey)

	_, err = svc.AddVenue(ctx, entity.VenueFields{Name: ""}, "")
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.AddVenue(ctx, entity.VenueFields{Name: "X", Deposit: -1}, "")
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.AddVenue(ctx, entity.VenueFields{Name: "X"}, "loved")
	require.ErrorIs(t, err, common.ErrValidation)

	edited, err := svc.EditVenue(ctx, added.ID, entity.VenueFields{Name: "Town Hall", VenueHireCost: 900})
	require.NoError(t, err)
	assert.Equal(t, 900.0, edited.VenueHireCost)
	assert.Equal(t, constants.NoteManuallyUpdated, edited.LastChangeDescription)

	require.NoError(t, svc.SetStatus(ctx, entity.KindVenue, added.ID, "MAYBE"))
	assert.Equal(t, constants.StatusMaybe, svc.Venues(view.Query{})[0].Status)

	require.NoError(t, svc.Delete(ctx, entity.KindVenue, added.ID))
	assert.Empty(t, svc.Venues(view.Query{}))
	assert.True(t, IsNotFound(svc.Delete(ctx, entity.KindVenue, added.ID)))
}

func TestManualVendorCanonicalisesCategory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	v, err := svc.AddVendor(ctx, entity.VendorFields{Name: "Petals", Category: "flowers"}, constants.StatusPriority)
	require.NoError(t, err)
	assert.Equal(t, "Florist", v.Category)

	_, err = svc.AddVendor(ctx, entity.VendorFields{Name: "petals", Category: "Florist"}, "")
	require.ErrorIs(t, err, merge.ErrDuplicateKey)

	_, err = svc.EditVendor(ctx, v.ID, entity.VendorFields{Name: "Petals", Category: "Florist", ContactEmail: "not-an-email"})
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.EditVendor(ctx, "nope", entity.VendorFields{Name: "Petals"})
	assert.True(t, IsNotFound(err))

	res, err := svc.Export(entity.KindVendor, export.FormatCSV)
	require.NoError(t, err)
	assert.Contains(t, string(res.Data), `"Petals","Florist","priority"`)

	sum := svc.Summary(100)
	assert.Equal(t, 1, sum.Vendors.Total)
}

func TestSyncStatusWithoutRemote(t *testing.T) {
	svc, _ := newService(t)
	assert.Equal(t, syncer.StateDisconnected, svc.SyncStatus().State)
	require.ErrorIs(t, svc.Reconnect(context.Background()), common.ErrUnavailable)
}

func TestMergeOptions_DeterministicIDsAndClock(t *testing.T) {
	fixed := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	svc, rec := newService(t, WithMergeOptions(
		merge.WithClock(func() time.Time { return fixed }),
		merge.WithIDGenerator(func() string { n++; return "venue-" + string(rune('0'+n)) }),
	))

	_, err := svc.UploadVenues(pdf("oak.pdf"), pdf("castle.pdf"))
	require.NoError(t, err)
	rec.wait(t)

	venues := svc.Venues(view.Query{SortBy: "name"})
	require.Len(t, venues, 2)
	assert.Equal(t, "Castle Hill", venues[0].Name)
	assert.Equal(t, "venue-2", venues[0].ID)
	assert.Equal(t, "venue-1", venues[1].ID)
	require.NotNil(t, venues[1].LastUpdatedAt)
	assert.True(t, fixed.Equal(*venues[1].LastUpdatedAt))
}
