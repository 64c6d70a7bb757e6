package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/joseph-ayodele/venue-planner/internal/document"
	"github.com/joseph-ayodele/venue-planner/internal/entity"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSink struct {
	mu      sync.Mutex
	uploads map[entity.Kind][]document.File
	ch      chan string
}

func newFakeSink() *fakeSink {
	return &fakeSink{uploads: map[entity.Kind][]document.File{}, ch: make(chan string, 16)}
}

func (s *fakeSink) Upload(kind entity.Kind, files ...document.File) ([]string, error) {
	s.mu.Lock()
	s.uploads[kind] = append(s.uploads[kind], files...)
	s.mu.Unlock()
	for _, f := range files {
		s.ch <- f.Name
	}
	return []string{"job-" + files[0].Name}, nil
}

func (s *fakeSink) HasContent(kind entity.Kind, hash string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.uploads[kind] {
		if f.Hash == hash {
			return true
		}
	}
	return false
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestReadPath(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "oak.PDF"), "%PDF")
	write(t, filepath.Join(dir, "notes.docx"), "x")

	f, err := ReadPath(filepath.Join(dir, "oak.PDF"))
	require.NoError(t, err)
	assert.Equal(t, "oak.PDF", f.Name)
	assert.Equal(t, "application/pdf", f.MIMEType)
	assert.Equal(t, document.NewFile("x.pdf", []byte("%PDF")).Hash, f.Hash)
	assert.True(t, filepath.IsAbs(f.SourcePath))

	_, err = ReadPath(filepath.Join(dir, "notes.docx"))
	require.ErrorIs(t, err, document.ErrUnsupportedFormat)

	_, err = ReadPath(filepath.Join(dir, "missing.pdf"))
	require.Error(t, err)
}

func TestReadDirectory(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "a.pdf"), "a")
	write(t, filepath.Join(dir, "sub", "b.csv"), "name\nb")
	write(t, filepath.Join(dir, ".hidden", "c.pdf"), "c")
	write(t, filepath.Join(dir, "~$lock.xlsx"), "lock")
	write(t, filepath.Join(dir, "readme.docx"), "skip")

	results, stats, err := ReadDirectory(dir, true, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), stats.Matched)
	assert.Equal(t, uint32(2), stats.Succeeded)
	require.Len(t, results, 2)
	assert.Equal(t, "a.pdf", results[0].File.Name)
	assert.Equal(t, "b.csv", results[1].File.Name)

	results, _, err = ReadDirectory(dir, false, nil)
	require.NoError(t, err)
	assert.Len(t, results, 4)

	_, _, err = ReadDirectory(" ", true, nil)
	require.Error(t, err)
}

func TestKindForPath(t *testing.T) {
	root := filepath.Join("/srv", "inbox")
	k, ok := KindForPath(root, filepath.Join(root, "venues", "a.pdf"))
	assert.True(t, ok)
	assert.Equal(t, entity.KindVenue, k)

	k, ok = KindForPath(root, filepath.Join(root, "vendors", "florists", "b.pdf"))
	assert.True(t, ok)
	assert.Equal(t, entity.KindVendor, k)

	_, ok = KindForPath(root, filepath.Join(root, "misc", "c.pdf"))
	assert.False(t, ok)
	_, ok = KindForPath(root, "/elsewhere/venues/d.pdf")
	assert.False(t, ok)
}

func TestInbox_HandleSkipsDuplicates(t *testing.T) {
	root := t.TempDir()
	sink := newFakeSink()
	in := NewInbox(root, sink, 0, nil)

	write(t, filepath.Join(root, "venues", "oak.pdf"), "same")
	write(t, filepath.Join(root, "venues", "oak-copy.pdf"), "same")

	res, err := in.Handle(filepath.Join(root, "venues", "oak.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "job-oak.pdf", res.JobID)

	res, err = in.Handle(filepath.Join(root, "venues", "oak-copy.pdf"))
	require.NoError(t, err)
	assert.True(t, res.Skipped)

	_, err = in.Handle(filepath.Join(root, "oak.pdf"))
	require.Error(t, err)
}

func TestInbox_Run(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "vendors", "existing.txt"), "dj list")

	sink := newFakeSink()
	in := NewInbox(root, sink, 50*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- in.Run(ctx) }()

	waitFor := func(name string) {
		t.Helper()
		select {
		case got := <-sink.ch:
			assert.Equal(t, name, got)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %s", name)
		}
	}
	waitFor("existing.txt")

	write(t, filepath.Join(root, "venues", "new.pdf"), "%PDF new")
	waitFor("new.pdf")

	cancel()
	require.NoError(t, <-done)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Len(t, sink.uploads[entity.KindVendor], 1)
	assert.Len(t, sink.uploads[entity.KindVenue], 1)
}
