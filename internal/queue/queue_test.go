package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/joseph-ayodele/venue-planner/constants"
	"github.com/joseph-ayodele/venue-planner/internal/document"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type batchRecorder struct {
	mu      sync.Mutex
	batches [][]string
	ch      chan struct{}
}

func newRecorder() *batchRecorder {
	return &batchRecorder{ch: make(chan struct{}, 16)}
}

func (r *batchRecorder) complete(records []string) {
	r.mu.Lock()
	r.batches = append(r.batches, records)
	r.mu.Unlock()
	r.ch <- struct{}{}
}

func (r *batchRecorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for batch completion")
	}
}

func (r *batchRecorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.batches...)
}

func files(names ...string) []document.File {
	out := make([]document.File, len(names))
	for i, n := range names {
		out[i] = document.NewFile(n, []byte(n))
	}
	return out
}

func shutdown(t *testing.T, q interface{ Shutdown(context.Context) }) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)
}

func TestQueue_BatchWithOneFailure(t *testing.T) {
	rec := newRecorder()
	process := func(_ context.Context, f document.File) ([]string, error) {
		if f.Name == "bad.pdf" {
			return nil, errors.New("model refused the document")
		}
		return []string{f.Name + "#1", f.Name + "#2"}, nil
	}
	q := New("venues", process, WithCompletion[string](rec.complete))
	defer shutdown(t, q)

	ids, err := q.Enqueue(files("a.pdf", "bad.pdf", "c.pdf")...)
	require.NoError(t, err)
	require.Len(t, ids, 3)
	rec.wait(t)

	batches := rec.snapshot()
	require.Len(t, batches, 1)
	assert.Equal(t, []string{"a.pdf#1", "a.pdf#2", "c.pdf#1", "c.pdf#2"}, batches[0])

	jobs := q.Jobs()
	require.Len(t, jobs, 3)
	assert.Equal(t, constants.JobStatusSucceeded, jobs[0].Status)
	assert.Equal(t, 2, jobs[0].ResultCount)
	assert.Equal(t, constants.JobStatusFailed, jobs[1].Status)
	assert.Equal(t, "model refused the document", jobs[1].Error)
	assert.Zero(t, jobs[1].ResultCount)
	assert.Equal(t, constants.JobStatusSucceeded, jobs[2].Status)
	assert.True(t, q.Status().Complete)
}

func TestQueue_AllFailuresStillCompletes(t *testing.T) {
	rec := newRecorder()
	process := func(context.Context, document.File) ([]string, error) {
		return nil, errors.New("boom")
	}
	q := New("vendors", process, WithCompletion[string](rec.complete))
	defer shutdown(t, q)

	_, err := q.Enqueue(files("a.pdf", "b.pdf")...)
	require.NoError(t, err)
	rec.wait(t)

	batches := rec.snapshot()
	require.Len(t, batches, 1)
	assert.NotNil(t, batches[0])
	assert.Empty(t, batches[0])
}

func TestQueue_AtMostOneProcessing(t *testing.T) {
	rec := newRecorder()
	var inFlight, maxInFlight int32
	process := func(context.Context, document.File) ([]string, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return []string{"x"}, nil
	}

	var processingSeen int32
	var obsMu sync.Mutex
	var q *Queue[string]
	observer := func(Job) {
		obsMu.Lock()
		defer obsMu.Unlock()
		if q == nil {
			return
		}
		if p := int32(q.Status().Processing); p > atomic.LoadInt32(&processingSeen) {
			atomic.StoreInt32(&processingSeen, p)
		}
	}
	obsMu.Lock()
	q = New("venues", process, WithCompletion[string](rec.complete), WithJobObserver[string](observer))
	obsMu.Unlock()
	defer shutdown(t, q)

	_, err := q.Enqueue(files("1.pdf", "2.pdf", "3.pdf", "4.pdf", "5.pdf", "6.pdf")...)
	require.NoError(t, err)
	rec.wait(t)

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
	assert.LessOrEqual(t, atomic.LoadInt32(&processingSeen), int32(1))
	assert.Len(t, rec.snapshot()[0], 6)
}

func TestQueue_RemoveAndReset(t *testing.T) {
	rec := newRecorder()
	release := make(chan struct{})
	started := make(chan string, 4)
	process := func(_ context.Context, f document.File) ([]string, error) {
		started <- f.Name
		<-release
		return []string{f.Name}, nil
	}
	q := New("venues", process, WithCompletion[string](rec.complete))
	defer shutdown(t, q)

	ids, err := q.Enqueue(files("first.pdf", "second.pdf", "third.pdf")...)
	require.NoError(t, err)
	assert.Equal(t, "first.pdf", <-started)

	err = q.Remove(ids[0])
	assert.ErrorIs(t, err, ErrJobNotQueued, "a processing job cannot be removed")
	assert.ErrorIs(t, q.Remove("nope"), ErrJobNotFound)
	assert.ErrorIs(t, q.Reset(), ErrQueueBusy)

	require.NoError(t, q.Remove(ids[1]))
	assert.Len(t, q.Jobs(), 2)

	close(release)
	rec.wait(t)
	assert.Equal(t, [][]string{{"first.pdf", "third.pdf"}}, rec.snapshot())

	require.NoError(t, q.Reset())
	assert.Empty(t, q.Jobs())
	assert.False(t, q.Status().Complete)
}

func TestQueue_SecondBatchDeliveredSeparately(t *testing.T) {
	rec := newRecorder()
	process := func(_ context.Context, f document.File) ([]string, error) {
		return []string{f.Name}, nil
	}
	q := New("vendors", process, WithCompletion[string](rec.complete))
	defer shutdown(t, q)

	_, err := q.Enqueue(files("a.csv")...)
	require.NoError(t, err)
	rec.wait(t)
	_, err = q.Enqueue(files("b.csv")...)
	require.NoError(t, err)
	rec.wait(t)

	assert.Equal(t, [][]string{{"a.csv"}, {"b.csv"}}, rec.snapshot())
}

func TestQueue_PanicFailsJob(t *testing.T) {
	rec := newRecorder()
	process := func(context.Context, document.File) ([]string, error) {
		panic("bad page")
	}
	q := New("venues", process, WithCompletion[string](rec.complete))
	defer shutdown(t, q)

	_, err := q.Enqueue(files("a.pdf")...)
	require.NoError(t, err)
	rec.wait(t)

	jobs := q.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, constants.JobStatusFailed, jobs[0].Status)
	assert.Contains(t, jobs[0].Error, "bad page")
}

func TestQueue_EnqueueAfterShutdown(t *testing.T) {
	q := New("venues", func(context.Context, document.File) ([]string, error) { return nil, nil })
	shutdown(t, q)

	_, err := q.Enqueue(files("a.pdf")...)
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestQueue_ContainsHash(t *testing.T) {
	block := make(chan struct{})
	q := New("venues", func(context.Context, document.File) ([]string, error) {
		<-block
		return nil, nil
	})
	defer shutdown(t, q)
	defer close(block)

	f := document.NewFile("brochure.pdf", []byte("same bytes"))
	_, err := q.Enqueue(f)
	require.NoError(t, err)

	assert.True(t, q.ContainsHash(f.Hash))
	assert.False(t, q.ContainsHash("deadbeef"))
}

func TestQueue_ProcessTimeout(t *testing.T) {
	rec := newRecorder()
	process := func(ctx context.Context, _ document.File) ([]string, error) {
		_, ok := ctx.Deadline()
		if !ok {
			return []string{"unbounded"}, nil
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}

	q := New("venues", process, WithCompletion[string](rec.complete), WithProcessTimeout[string](20*time.Millisecond))
	_, err := q.Enqueue(files("slow.pdf")...)
	require.NoError(t, err)
	rec.wait(t)
	jobs := q.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, constants.JobStatusFailed, jobs[0].Status)
	assert.Contains(t, jobs[0].Error, "deadline exceeded")
	shutdown(t, q)

	q = New("venues", process, WithCompletion[string](rec.complete), WithProcessTimeout[string](-1))
	defer shutdown(t, q)
	_, err = q.Enqueue(files("a.pdf")...)
	require.NoError(t, err)
	rec.wait(t)
	assert.Equal(t, []string{"unbounded"}, rec.snapshot()[1])
}

func TestQueue_ResetWaitsForDelivery(t *testing.T) {
	rec := newRecorder()
	resetErr := make(chan error, 1)
	var q *Queue[string]
	observe := func(j Job) {
		if j.Status == constants.JobStatusSucceeded {
			resetErr <- q.Reset()
		}
	}
	process := func(_ context.Context, f document.File) ([]string, error) {
		return []string{f.Name}, nil
	}
	q = New("venues", process, WithCompletion[string](rec.complete), WithJobObserver[string](observe))
	defer shutdown(t, q)

	_, err := q.Enqueue(files("only.pdf")...)
	require.NoError(t, err)

	assert.ErrorIs(t, <-resetErr, ErrQueueBusy)
	rec.wait(t)
	assert.Equal(t, [][]string{{"only.pdf"}}, rec.snapshot())
	require.NoError(t, q.Reset())
}

func TestQueue_InterruptedShutdownStopsDriver(t *testing.T) {
	started := make(chan struct{})
	process := func(ctx context.Context, _ document.File) ([]string, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	q := New("venues", process, WithProcessTimeout[string](-1))
	_, err := q.Enqueue(files("stuck.pdf")...)
	require.NoError(t, err)
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.Shutdown(ctx)

	jobs := q.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, constants.JobStatusFailed, jobs[0].Status)
	assert.Contains(t, jobs[0].Error, "context canceled")
}
