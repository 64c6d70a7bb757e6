// Package syncer keeps the local state and one shared remote document in
// step: it polls the remote for replacements and pushes local edits.
// Conflicts resolve as last writer wins.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/venue-planner/internal/common"
	"github.com/joseph-ayodele/venue-planner/internal/entity"
	"github.com/joseph-ayodele/venue-planner/internal/snapshot"
	"github.com/joseph-ayodele/venue-planner/internal/state"
)

// Remote is one shared JSON document. Get wraps common.ErrNotFound when the
// document has never been written.
type Remote interface {
	Get(ctx context.Context) ([]byte, error)
	Put(ctx context.Context, payload []byte) error
	Name() string
}

type ConnState string

const (
	StateConnected    ConnState = "connected"
	StateDisconnected ConnState = "disconnected"
	StateError        ConnState = "error"
)

type ConnectionStatus struct {
	State      ConnState  `json:"state"`
	Backend    string     `json:"backend"`
	LastError  string     `json:"last_error,omitempty"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
}

// Metrics receives sync outcomes; op is poll, push or connect.
type Metrics interface {
	SyncFinished(op string, ok bool)
}

type Syncer struct {
	remote   Remote
	store    *state.Store
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration
	metrics  Metrics
	onStatus func(ConnectionStatus)
	now      func() time.Time

	mu         sync.Mutex
	status     ConnectionStatus
	active     bool
	remoteHash string
	contentFP  string
	pending    *entity.ApplicationState

	kick    chan struct{}
	stop    chan struct{}
	wg      sync.WaitGroup
	started bool
	closed  bool
}

type Option func(*Syncer)

func WithInterval(d time.Duration) Option {
	return func(s *Syncer) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *Syncer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Syncer) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(m Metrics) Option {
	return func(s *Syncer) { s.metrics = m }
}

// WithStatusObserver is called after every connection status change.
func WithStatusObserver(fn func(ConnectionStatus)) Option {
	return func(s *Syncer) { s.onStatus = fn }
}

func WithClock(now func() time.Time) Option {
	return func(s *Syncer) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Syncer. A nil remote yields a Syncer that stays disconnected
// and does nothing.
func New(remote Remote, store *state.Store, opts ...Option) *Syncer {
	s := &Syncer{
		remote:   remote,
		store:    store,
		logger:   slog.Default(),
		interval: 10 * time.Second,
		timeout:  15 * time.Second,
		now:      func() time.Time { return time.Now().UTC() },
		kick:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	backend := "none"
	if remote != nil {
		backend = remote.Name()
	}
	s.logger = s.logger.With("backend", backend)
	s.status = ConnectionStatus{State: StateDisconnected, Backend: backend}
	return s
}

func (s *Syncer) Status() ConnectionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.status
	if s.status.LastSyncAt != nil {
		t := *s.status.LastSyncAt
		out.LastSyncAt = &t
	}
	return out
}

// Subscriber queues local-origin commits for the pusher. Only the newest
// pending state is kept. It never blocks.
func (s *Syncer) Subscriber() state.Subscriber {
	return func(_ context.Context, c state.Change) {
		if c.Origin != state.OriginLocal {
			return
		}
		s.mu.Lock()
		if !s.active {
			s.mu.Unlock()
			return
		}
		st := c.State
		s.pending = &st
		s.mu.Unlock()
		select {
		case s.kick <- struct{}{}:
		default:
		}
	}
}

// Connect probes the remote. An existing remote document replaces the local
// state; a missing one is seeded from the local state. On failure remote
// operations stay off until Reconnect.
func (s *Syncer) Connect(ctx context.Context) error {
	if s.remote == nil {
		return nil
	}
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	payload, err := s.remote.Get(cctx)
	switch {
	case errors.Is(err, common.ErrNotFound):
		local := s.store.Snapshot()
		if err := s.push(cctx, local); err != nil {
			s.fail("connect", fmt.Errorf("seed remote: %w", err))
			return err
		}
		s.logger.Info("sync.connect.seeded", "venues", len(local.Venues), "vendors", len(local.Vendors))
	case err != nil:
		s.fail("connect", err)
		return err
	default:
		if err := s.apply(ctx, payload); err != nil {
			s.fail("connect", err)
			return err
		}
		s.logger.Info("sync.connect.loaded", "bytes", len(payload))
	}

	s.mu.Lock()
	s.active = true
	s.mu.Unlock()
	s.succeed("connect")
	return nil
}

// Reconnect retries Connect after a failure or a configuration change.
func (s *Syncer) Reconnect(ctx context.Context) error {
	s.logger.Info("sync.reconnect")
	return s.Connect(ctx)
}

// Start launches the poller and pusher. It returns immediately.
func (s *Syncer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.closed || s.remote == nil {
		return
	}
	s.started = true
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.pollLoop()
	}()
	go func() {
		defer s.wg.Done()
		s.pushLoop()
	}()
}

// Shutdown stops both loops. A pending push is attempted once more before the
// pusher exits.
func (s *Syncer) Shutdown(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.stop)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); s.wg.Wait() }()
	select {
	case <-done:
		s.logger.Info("sync.shutdown.complete")
	case <-ctx.Done():
		s.logger.Warn("sync.shutdown.interrupted")
	}
}

func (s *Syncer) pollLoop() {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			s.PollOnce(context.Background())
		}
	}
}

// PollOnce fetches the remote document and applies it if it changed. Errors
// are reflected in Status and retried on the next tick.
func (s *Syncer) PollOnce(ctx context.Context) {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()
	if !active {
		return
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	payload, err := s.remote.Get(cctx)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.logger.Debug("sync.poll.missing")
			return
		}
		s.logger.Debug("sync.poll.failed", "error", err)
		s.fail("poll", err)
		return
	}
	if err := s.apply(ctx, payload); err != nil {
		s.logger.Debug("sync.poll.decode_failed", "error", err)
		s.fail("poll", err)
		return
	}
	s.succeed("poll")
}

// apply replaces the local state with payload unless it matches what was last
// seen or pushed.
func (s *Syncer) apply(ctx context.Context, payload []byte) error {
	hash := snapshot.Fingerprint(payload)
	s.mu.Lock()
	same := hash == s.remoteHash
	s.mu.Unlock()
	if same {
		return nil
	}

	st, _, err := snapshot.Decode(payload)
	if err != nil {
		return fmt.Errorf("remote document: %w", err)
	}
	fp := snapshot.ContentFingerprint(st)

	s.mu.Lock()
	s.remoteHash = hash
	unchanged := fp == s.contentFP
	s.contentFP = fp
	s.mu.Unlock()

	if unchanged || fp == snapshot.ContentFingerprint(s.store.Snapshot()) {
		return nil
	}
	s.logger.Info("sync.poll.changed", "venues", len(st.Venues), "vendors", len(st.Vendors))
	s.store.Replace(ctx, st, state.OriginRemote)
	return nil
}

func (s *Syncer) pushLoop() {
	for {
		select {
		case <-s.stop:
			s.flush(context.Background())
			return
		case <-s.kick:
			s.flush(context.Background())
		}
	}
}

func (s *Syncer) flush(ctx context.Context) {
	s.mu.Lock()
	next := s.pending
	s.pending = nil
	active := s.active
	s.mu.Unlock()
	if next == nil || !active {
		return
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.push(cctx, *next); err != nil {
		s.logger.Warn("sync.push.failed", "error", err)
		s.fail("push", err)
		return
	}
	s.logger.Debug("sync.push.ok", "venues", len(next.Venues), "vendors", len(next.Vendors))
	s.succeed("push")
}

func (s *Syncer) push(ctx context.Context, st entity.ApplicationState) error {
	payload, err := snapshot.Encode(st, s.now())
	if err != nil {
		return err
	}
	if err := s.remote.Put(ctx, payload); err != nil {
		return err
	}
	s.mu.Lock()
	s.remoteHash = snapshot.Fingerprint(payload)
	s.contentFP = snapshot.ContentFingerprint(st)
	s.mu.Unlock()
	return nil
}

func (s *Syncer) succeed(op string) {
	now := s.now()
	s.setStatus(func(cs *ConnectionStatus) {
		cs.State = StateConnected
		cs.LastError = ""
		cs.LastSyncAt = &now
	})
	if s.metrics != nil {
		s.metrics.SyncFinished(op, true)
	}
}

func (s *Syncer) fail(op string, err error) {
	if op == "connect" {
		s.logger.Error("sync.connect.failed", "error", err)
	}
	s.setStatus(func(cs *ConnectionStatus) {
		cs.State = StateError
		cs.LastError = err.Error()
	})
	if s.metrics != nil {
		s.metrics.SyncFinished(op, false)
	}
}

func (s *Syncer) setStatus(fn func(*ConnectionStatus)) {
	s.mu.Lock()
	prev := s.status.State
	fn(&s.status)
	cur := s.status
	s.mu.Unlock()
	if prev != cur.State {
		s.logger.Info("sync.status", "from", prev, "to", cur.State, "error", cur.LastError)
	}
	if s.onStatus != nil {
		s.onStatus(cur)
	}
}
