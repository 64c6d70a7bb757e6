// Package planner wires the upload queues, the merge engine and the state
// store into the operations the transport layer exposes.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

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

// Metrics receives merge outcomes.
type Metrics interface {
	MergeApplied(kind string, s merge.Summary)
}

// Notifier fans events out to live clients.
type Notifier interface {
	Publish(topic string, payload any)
}

// SyncController is the part of the syncer the service exposes.
type SyncController interface {
	Status() syncer.ConnectionStatus
	Reconnect(ctx context.Context) error
}

// JobEvent is published after every job status change.
type JobEvent struct {
	Kind entity.Kind `json:"kind"`
	Job  queue.Job   `json:"job"`
}

// BatchEvent is published after a completed batch is merged.
type BatchEvent struct {
	Kind    entity.Kind   `json:"kind"`
	Records int           `json:"records"`
	Summary merge.Summary `json:"summary"`
}

type jobQueue interface {
	Enqueue(files ...document.File) ([]string, error)
	Remove(id string) error
	Reset() error
	Jobs() []queue.Job
	Status() queue.Stats
	ContainsHash(hash string) bool
	Shutdown(ctx context.Context)
}

type Service struct {
	store    *state.Store
	merger   *merge.Merger
	exporter *export.Service
	logger   *slog.Logger
	metrics  Metrics
	notifier Notifier
	sync     SyncController

	venueQ  *queue.Queue[entity.VenueFields]
	vendorQ *queue.Queue[entity.VendorFields]

	processTimeout time.Duration
	queueMetrics   queue.Metrics
	mergeOpts      []merge.Option
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(m Metrics, qm queue.Metrics) Option {
	return func(s *Service) { s.metrics, s.queueMetrics = m, qm }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithSync(c SyncController) Option {
	return func(s *Service) { s.sync = c }
}

func WithProcessTimeout(d time.Duration) Option {
	return func(s *Service) { s.processTimeout = d }
}

func WithMergeOptions(opts ...merge.Option) Option {
	return func(s *Service) { s.mergeOpts = append(s.mergeOpts, opts...) }
}

// New starts both queues. Call Shutdown to stop them.
func New(store *state.Store, venues extract.Extractor[entity.VenueFields], vendors extract.Extractor[entity.VendorFields], opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	s.merger = merge.New(s.mergeOpts...)
	s.exporter = export.NewService(s.logger)

	s.venueQ = queue.New[entity.VenueFields](entity.KindVenue.Plural(), venues.Extract,
		queue.WithLogger[entity.VenueFields](s.logger),
		queue.WithMetrics[entity.VenueFields](s.queueMetrics),
		queue.WithProcessTimeout[entity.VenueFields](s.processTimeout),
		queue.WithJobObserver[entity.VenueFields](s.jobObserver(entity.KindVenue)),
		queue.WithCompletion[entity.VenueFields](s.mergeVenues),
	)
	s.vendorQ = queue.New[entity.VendorFields](entity.KindVendor.Plural(), vendors.Extract,
		queue.WithLogger[entity.VendorFields](s.logger),
		queue.WithMetrics[entity.VendorFields](s.queueMetrics),
		queue.WithProcessTimeout[entity.VendorFields](s.processTimeout),
		queue.WithJobObserver[entity.VendorFields](s.jobObserver(entity.KindVendor)),
		queue.WithCompletion[entity.VendorFields](s.mergeVendors),
	)
	return s
}

func (s *Service) Store() *state.Store { return s.store }

func (s *Service) queueFor(kind entity.Kind) (jobQueue, error) {
	switch kind {
	case entity.KindVenue:
		return s.venueQ, nil
	case entity.KindVendor:
		return s.vendorQ, nil
	}
	return nil, fmt.Errorf("unknown kind %q: %w", kind, common.ErrInvalidInput)
}

// Upload enqueues files for extraction and returns their job ids. Files the
// extractor cannot read fail their own job, not the upload.
func (s *Service) Upload(kind entity.Kind, files ...document.File) ([]string, error) {
	q, err := s.queueFor(kind)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files: %w", common.ErrInvalidInput)
	}
	ids, err := q.Enqueue(files...)
	if err != nil {
		return nil, err
	}
	s.logger.Info("planner.upload", "kind", kind, "files", len(files))
	return ids, nil
}

func (s *Service) UploadVenues(files ...document.File) ([]string, error) {
	return s.Upload(entity.KindVenue, files...)
}

func (s *Service) UploadVendors(files ...document.File) ([]string, error) {
	return s.Upload(entity.KindVendor, files...)
}

// HasContent reports whether a file with hash is already queued or done.
func (s *Service) HasContent(kind entity.Kind, hash string) bool {
	q, err := s.queueFor(kind)
	if err != nil {
		return false
	}
	return q.ContainsHash(hash)
}

func (s *Service) Jobs(kind entity.Kind) ([]queue.Job, queue.Stats, error) {
	q, err := s.queueFor(kind)
	if err != nil {
		return nil, queue.Stats{}, err
	}
	return q.Jobs(), q.Status(), nil
}

func (s *Service) RemoveJob(kind entity.Kind, id string) error {
	q, err := s.queueFor(kind)
	if err != nil {
		return err
	}
	return q.Remove(id)
}

func (s *Service) ResetQueue(kind entity.Kind) error {
	q, err := s.queueFor(kind)
	if err != nil {
		return err
	}
	return q.Reset()
}

func (s *Service) Venues(q view.Query) []entity.Venue {
	return view.Venues(s.store.Snapshot().Venues, q)
}

func (s *Service) Vendors(q view.Query) []entity.Vendor {
	return view.Vendors(s.store.Snapshot().Vendors, q)
}

func (s *Service) Summary(guests int) view.Summary {
	return view.Summarize(s.store.Snapshot(), guests)
}

func (s *Service) Export(kind entity.Kind, format export.Format) (export.Result, error) {
	return s.exporter.Export(s.store.Snapshot(), kind, format)
}

func (s *Service) Workbook() (export.Result, error) {
	return s.exporter.Workbook(s.store.Snapshot())
}

func (s *Service) SyncStatus() syncer.ConnectionStatus {
	if s.sync == nil {
		return syncer.ConnectionStatus{State: syncer.StateDisconnected, Backend: "none"}
	}
	return s.sync.Status()
}

func (s *Service) Reconnect(ctx context.Context) error {
	if s.sync == nil {
		return fmt.Errorf("remote sync is not configured: %w", common.ErrUnavailable)
	}
	return s.sync.Reconnect(ctx)
}

// Shutdown stops both queues after their in-flight jobs.
func (s *Service) Shutdown(ctx context.Context) {
	s.venueQ.Shutdown(ctx)
	s.vendorQ.Shutdown(ctx)
}

func (s *Service) jobObserver(kind entity.Kind) func(queue.Job) {
	return func(j queue.Job) {
		if s.notifier != nil {
			s.notifier.Publish("job", JobEvent{Kind: kind, Job: j})
		}
	}
}

func (s *Service) mergeVenues(records []entity.VenueFields) {
	var sum merge.Summary
	_, err := s.store.Update(context.Background(), func(st entity.ApplicationState) (entity.ApplicationState, error) {
		st.Venues, sum = s.merger.Venues(st.Venues, records)
		return st, nil
	})
	s.afterMerge(entity.KindVenue, len(records), sum, err)
}

func (s *Service) mergeVendors(records []entity.VendorFields) {
	var sum merge.Summary
	_, err := s.store.Update(context.Background(), func(st entity.ApplicationState) (entity.ApplicationState, error) {
		st.Vendors, sum = s.merger.Vendors(st.Vendors, records)
		return st, nil
	})
	s.afterMerge(entity.KindVendor, len(records), sum, err)
}

func (s *Service) afterMerge(kind entity.Kind, records int, sum merge.Summary, err error) {
	if err != nil {
		s.logger.Error("planner.merge.failed", "kind", kind, "error", err)
		return
	}
	s.logger.Info("planner.merge.ok", "kind", kind,
		"message", fmt.Sprintf("%d added, %d updated", sum.Added, sum.Updated),
		"unchanged", sum.Unchanged)
	if s.metrics != nil {
		s.metrics.MergeApplied(string(kind), sum)
	}
	if s.notifier != nil {
		s.notifier.Publish("batch", BatchEvent{Kind: kind, Records: records, Summary: sum})
	}
}

// IsNotFound reports whether err means a job or record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, merge.ErrNotFound) || errors.Is(err, queue.ErrJobNotFound) || errors.Is(err, common.ErrNotFound)
}
