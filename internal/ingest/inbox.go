package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/venue-planner/internal/entity"
)

// Inbox watches root/venues and root/vendors and uploads whatever lands there
// to the matching queue.
type Inbox struct {
	root     string
	sink     Sink
	debounce time.Duration
	logger   *slog.Logger
}

func NewInbox(root string, sink Sink, debounce time.Duration, logger *slog.Logger) *Inbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbox{root: root, sink: sink, debounce: debounce, logger: logger.With("inbox", root)}
}

// KindForPath maps a file under root onto a kind by its top-level folder.
func KindForPath(root, path string) (entity.Kind, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	top := strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]
	kind, err := entity.ParseKind(top)
	if err != nil {
		return "", false
	}
	return kind, true
}

// Run blocks until ctx is done. Files already present are picked up first.
func (in *Inbox) Run(ctx context.Context) error {
	roots := []string{
		filepath.Join(in.root, entity.KindVenue.Plural()),
		filepath.Join(in.root, entity.KindVendor.Plural()),
	}
	for _, r := range roots {
		if err := os.MkdirAll(r, 0o755); err != nil {
			return fmt.Errorf("create inbox folder: %w", err)
		}
	}

	events, errs, err := StartWatcher(ctx, WatchConfig{
		Roots:       roots,
		InitialScan: true,
		Debounce:    in.debounce,
		SkipHidden:  true,
		Logger:      in.logger,
	})
	if err != nil {
		return err
	}
	in.logger.Info("ingest.inbox.started")

	for {
		select {
		case path, ok := <-events:
			if !ok {
				in.logger.Info("ingest.inbox.stopped")
				return nil
			}
			if _, err := in.Handle(path); err != nil {
				in.logger.Warn("ingest.inbox.skip", "path", path, "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			in.logger.Warn("ingest.inbox.watch_error", "error", err)
		}
	}
}

// Handle uploads one file from the inbox.
func (in *Inbox) Handle(path string) (Result, error) {
	res := Result{SourcePath: path}
	kind, ok := KindForPath(in.root, path)
	if !ok {
		return res, fmt.Errorf("%s is outside the venues and vendors folders", path)
	}
	f, err := ReadPath(path)
	if err != nil {
		return res, err
	}
	res.File = f
	if in.sink.HasContent(kind, f.Hash) {
		res.Skipped = true
		in.logger.Info("ingest.inbox.duplicate", "path", path, "kind", kind)
		return res, nil
	}
	ids, err := in.sink.Upload(kind, f)
	if err != nil {
		return res, err
	}
	res.JobID = ids[0]
	in.logger.Info("ingest.inbox.queued", "path", path, "kind", kind, "job_id", res.JobID)
	return res, nil
}
