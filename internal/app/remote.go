package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/joseph-ayodele/venue-planner/internal/common"
)

// LazyRemote opens the configured backend on first use and again after a
// failed open, so an unreachable remote at startup surfaces as a sync error
// and can be recovered with Reconnect.
type LazyRemote struct {
	name   string
	open   func(ctx context.Context) (Pinger, Cleanup, error)
	logger *slog.Logger

	mu      sync.Mutex
	remote  Pinger
	cleanup Cleanup
}

func NewLazyRemote(cfg *common.Config, logger *slog.Logger) *LazyRemote {
	return newLazyRemote(cfg.Sync.Backend, func(ctx context.Context) (Pinger, Cleanup, error) {
		return OpenRemote(ctx, cfg, logger)
	}, logger)
}

func newLazyRemote(name string, open func(ctx context.Context) (Pinger, Cleanup, error), logger *slog.Logger) *LazyRemote {
	if logger == nil {
		logger = slog.Default()
	}
	return &LazyRemote{name: name, open: open, logger: logger}
}

func (l *LazyRemote) Name() string { return l.name }

func (l *LazyRemote) get(ctx context.Context) (Pinger, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.remote != nil {
		return l.remote, nil
	}
	r, cleanup, err := l.open(ctx)
	if err != nil {
		l.logger.Warn("sync.remote.open_failed", "backend", l.name, "error", err)
		return nil, fmt.Errorf("open %s remote: %v: %w", l.name, err, common.ErrUnavailable)
	}
	if r == nil {
		return nil, fmt.Errorf("%s remote is not configured: %w", l.name, common.ErrUnavailable)
	}
	l.remote, l.cleanup = r, cleanup
	return r, nil
}

func (l *LazyRemote) Get(ctx context.Context) ([]byte, error) {
	r, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx)
}

func (l *LazyRemote) Put(ctx context.Context, payload []byte) error {
	r, err := l.get(ctx)
	if err != nil {
		return err
	}
	return r.Put(ctx, payload)
}

func (l *LazyRemote) Ping(ctx context.Context) error {
	r, err := l.get(ctx)
	if err != nil {
		return err
	}
	return r.Ping(ctx)
}

// Close releases an opened backend.
func (l *LazyRemote) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cleanup != nil {
		l.cleanup()
	}
	l.remote, l.cleanup = nil, nil
}
