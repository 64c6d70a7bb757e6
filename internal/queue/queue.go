// Package queue runs uploaded files through an extractor strictly one at a
// time and hands each finished batch to a completion callback.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/venue-planner/constants"
	"github.com/joseph-ayodele/venue-planner/internal/common"
	"github.com/joseph-ayodele/venue-planner/internal/document"
)

var (
	ErrJobNotFound  = errors.New("job not found")
	ErrJobNotQueued = errors.New("job is no longer queued")
	ErrQueueBusy    = errors.New("queue is processing")
	ErrQueueClosed  = errors.New("queue is shut down")
)

// ProcessFunc extracts records from one file. A non-nil error fails the job
// and its message is kept on the job.
type ProcessFunc[T any] func(ctx context.Context, f document.File) ([]T, error)

// Metrics receives queue events. Implementations must be safe for concurrent use.
type Metrics interface {
	JobFinished(queue string, status constants.JobStatus, elapsed time.Duration)
	BatchCompleted(queue string, records int)
	Depth(queue string, queued int)
}

type Queue[T any] struct {
	name       string
	process    ProcessFunc[T]
	logger     *slog.Logger
	timeout    time.Duration
	metrics    Metrics
	onComplete func([]T)
	onJob      func(Job)
	now        func() time.Time

	mu     sync.Mutex
	jobs   []*jobState[T]
	closed bool

	wake   chan struct{}
	stop   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// shutdownGrace bounds the wait for the driver once an interrupted Shutdown
// has cancelled the in-flight extraction.
const shutdownGrace = 2 * time.Second

type Option[T any] func(*Queue[T])

// WithProcessTimeout bounds each extraction. Zero keeps the default and a
// negative duration removes the limit.
func WithProcessTimeout[T any](d time.Duration) Option[T] {
	return func(q *Queue[T]) {
		switch {
		case d > 0:
			q.timeout = d
		case d < 0:
			q.timeout = 0
		}
	}
}

func WithLogger[T any](l *slog.Logger) Option[T] {
	return func(q *Queue[T]) {
		if l != nil {
			q.logger = l
		}
	}
}

func WithMetrics[T any](m Metrics) Option[T] {
	return func(q *Queue[T]) { q.metrics = m }
}

// WithCompletion sets the callback that receives every batch's records, in
// job order, exactly once. It runs on the queue's driver goroutine.
func WithCompletion[T any](fn func([]T)) Option[T] {
	return func(q *Queue[T]) { q.onComplete = fn }
}

// WithJobObserver sets a callback invoked after every job status change.
func WithJobObserver[T any](fn func(Job)) Option[T] {
	return func(q *Queue[T]) { q.onJob = fn }
}

func WithClock[T any](now func() time.Time) Option[T] {
	return func(q *Queue[T]) {
		if now != nil {
			q.now = now
		}
	}
}

// New creates a queue and starts its driver goroutine.
func New[T any](name string, process ProcessFunc[T], opts ...Option[T]) *Queue[T] {
	q := &Queue[T]{
		name:    name,
		process: process,
		logger:  slog.Default(),
		timeout: 3 * time.Minute,
		now:     func() time.Time { return time.Now().UTC() },
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.logger = q.logger.With("queue", name)
	q.ctx, q.cancel = context.WithCancel(context.Background())
	q.start()
	return q
}

func (q *Queue[T]) Name() string { return q.name }

// Enqueue adds one Queued job per file and returns the new job ids in order.
func (q *Queue[T]) Enqueue(files ...document.File) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("queue.enqueue.rejected", "reason", "shutting down", "files", len(files))
		return nil, ErrQueueClosed
	}
	ids := make([]string, 0, len(files))
	added := make([]Job, 0, len(files))
	now := q.now()
	for _, f := range files {
		js := &jobState[T]{Job: Job{
			ID:         uuid.NewString(),
			File:       f,
			Status:     constants.JobStatusQueued,
			EnqueuedAt: now,
		}}
		q.jobs = append(q.jobs, js)
		ids = append(ids, js.ID)
		added = append(added, js.snapshot())
	}
	depth := q.countLocked(constants.JobStatusQueued)
	q.mu.Unlock()

	for _, j := range added {
		q.logger.Info("queue.job.queued", "job_id", j.ID, "file", j.File.Name)
		q.notify(j)
	}
	q.reportDepth(depth)
	q.signal()
	return ids, nil
}

// Remove deletes a job that has not started yet.
func (q *Queue[T]) Remove(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, j := range q.jobs {
		if j.ID != id {
			continue
		}
		if j.Status != constants.JobStatusQueued {
			return fmt.Errorf("remove %s (%s): %w", id, j.Status, ErrJobNotQueued)
		}
		q.jobs = append(q.jobs[:i], q.jobs[i+1:]...)
		q.logger.Info("queue.job.removed", "job_id", id)
		// removing the last pending job may complete the batch
		q.signal()
		return nil
	}
	return fmt.Errorf("remove %s: %w", id, ErrJobNotFound)
}

// Reset clears every job. It is rejected while a batch is in flight or its
// results have not reached the completion callback yet.
func (q *Queue[T]) Reset() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.busyLocked() || q.undeliveredLocked() {
		return ErrQueueBusy
	}
	n := len(q.jobs)
	q.jobs = nil
	q.logger.Info("queue.reset", "cleared", n)
	return nil
}

// Jobs returns a snapshot of all jobs in insertion order.
func (q *Queue[T]) Jobs() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Job, len(q.jobs))
	for i, j := range q.jobs {
		out[i] = j.snapshot()
	}
	return out
}

func (q *Queue[T]) Status() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	var s Stats
	for _, j := range q.jobs {
		switch j.Status {
		case constants.JobStatusQueued:
			s.Queued++
		case constants.JobStatusProcessing:
			s.Processing++
		case constants.JobStatusSucceeded:
			s.Succeeded++
		case constants.JobStatusFailed:
			s.Failed++
		}
	}
	s.Complete = len(q.jobs) > 0 && s.Queued == 0 && s.Processing == 0 && !q.undeliveredLocked()
	return s
}

// ContainsHash reports whether a non-failed job already holds content with hash.
func (q *Queue[T]) ContainsHash(hash string) bool {
	if hash == "" {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, j := range q.jobs {
		if j.File.Hash == hash && j.Status != constants.JobStatusFailed {
			return true
		}
	}
	return false
}

// Shutdown stops the driver after the in-flight job, if any, finishes.
// Queued jobs are left unprocessed.
func (q *Queue[T]) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.stop)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.cancel()
		select {
		case <-done:
		case <-time.After(shutdownGrace):
		}
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		q.cancel()
		q.logger.Info("queue.shutdown.complete")
	}
}

func (q *Queue[T]) start() {
	q.once.Do(func() {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			q.run()
		}()
	})
}

// run is the single driver. It wakes on any state change, processes Queued
// jobs one by one in insertion order and delivers the batch when none are left.
func (q *Queue[T]) run() {
	for {
		select {
		case <-q.stop:
			return
		case <-q.wake:
		}
		for q.step() {
			select {
			case <-q.stop:
				return
			default:
			}
		}
		q.deliver()
	}
}

// step processes the next Queued job. It reports false when none is left.
func (q *Queue[T]) step() bool {
	q.mu.Lock()
	var js *jobState[T]
	for _, j := range q.jobs {
		if j.Status == constants.JobStatusQueued {
			js = j
			break
		}
	}
	if js == nil {
		q.mu.Unlock()
		return false
	}
	started := q.now()
	js.Status = constants.JobStatusProcessing
	js.StartedAt = &started
	file := js.File
	view := js.snapshot()
	depth := q.countLocked(constants.JobStatusQueued)
	q.mu.Unlock()

	q.logger.Info("queue.job.start", "job_id", view.ID, "file", file.Name, "bytes", file.Size())
	q.notify(view)
	q.reportDepth(depth)

	records, err := q.runOne(file)

	q.mu.Lock()
	finished := q.now()
	js.FinishedAt = &finished
	if err != nil {
		js.Status = constants.JobStatusFailed
		js.Error = err.Error()
	} else {
		js.Status = constants.JobStatusSucceeded
		js.results = records
		js.ResultCount = len(records)
	}
	view = js.snapshot()
	q.mu.Unlock()

	elapsed := finished.Sub(started)
	if err != nil {
		q.logger.Error("queue.job.failed", "job_id", view.ID, "file", file.Name, "error", err, "elapsed_ms", elapsed.Milliseconds())
	} else {
		q.logger.Info("queue.job.succeeded", "job_id", view.ID, "file", file.Name, "records", len(records), "elapsed_ms", elapsed.Milliseconds())
	}
	if q.metrics != nil {
		q.metrics.JobFinished(q.name, view.Status, elapsed)
	}
	q.notify(view)
	return true
}

func (q *Queue[T]) runOne(file document.File) (records []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor panicked: %v", r)
		}
	}()
	ctx, cancel := common.WithOptionalTimeout(q.ctx, q.timeout)
	defer cancel()
	return q.process(ctx, file)
}

// deliver hands the current batch to the completion callback if every job is
// terminal and at least one has not been delivered yet.
func (q *Queue[T]) deliver() {
	q.mu.Lock()
	if q.busyLocked() {
		q.mu.Unlock()
		return
	}
	var (
		records []T
		pending bool
	)
	for _, j := range q.jobs {
		if j.delivered {
			continue
		}
		pending = true
		j.delivered = true
		if j.Status == constants.JobStatusSucceeded {
			records = append(records, j.results...)
		}
		j.results = nil
	}
	q.mu.Unlock()

	if !pending {
		return
	}
	if records == nil {
		records = []T{}
	}
	q.logger.Info("queue.batch.complete", "records", len(records))
	if q.metrics != nil {
		q.metrics.BatchCompleted(q.name, len(records))
	}
	if q.onComplete != nil {
		q.onComplete(records)
	}
}

func (q *Queue[T]) busyLocked() bool {
	for _, j := range q.jobs {
		if !j.Status.Terminal() {
			return true
		}
	}
	return false
}

func (q *Queue[T]) undeliveredLocked() bool {
	for _, j := range q.jobs {
		if j.Status.Terminal() && !j.delivered {
			return true
		}
	}
	return false
}

func (q *Queue[T]) countLocked(status constants.JobStatus) int {
	n := 0
	for _, j := range q.jobs {
		if j.Status == status {
			n++
		}
	}
	return n
}

func (q *Queue[T]) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue[T]) notify(j Job) {
	if q.onJob != nil {
		q.onJob(j)
	}
}

func (q *Queue[T]) reportDepth(n int) {
	if q.metrics != nil {
		q.metrics.Depth(q.name, n)
	}
}
