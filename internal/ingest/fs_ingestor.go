package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/venue-planner/constants"
	"github.com/joseph-ayodele/venue-planner/internal/document"
)

// MaxFileSize bounds a single upload.
const MaxFileSize = 25 << 20

// ReadPath loads one file, checking its extension and size, and hashes it.
func ReadPath(path string) (document.File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return document.File{}, fmt.Errorf("abs path: %w", err)
	}

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		return document.File{}, fmt.Errorf("%s: %w", filepath.Base(abs), document.ErrUnsupportedFormat)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return document.File{}, err
	}
	if info.IsDir() {
		return document.File{}, fmt.Errorf("%s is a directory", abs)
	}
	if info.Size() > MaxFileSize {
		return document.File{}, fmt.Errorf("%s is %d bytes, over the %d byte limit", filepath.Base(abs), info.Size(), MaxFileSize)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return document.File{}, fmt.Errorf("read: %w", err)
	}
	f := document.NewFile(abs, data)
	f.SourcePath = abs
	return f, nil
}

// ReadDirectory walks root, skips hidden entries if requested, and reads
// every allowed file. Files that fail to read are reported, not fatal.
func ReadDirectory(root string, skipHidden bool, logger *slog.Logger) ([]Result, DirStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []Result
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			results = append(results, Result{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		f, err := ReadPath(path)
		if err != nil {
			logger.Warn("ingest.read.failed", "path", path, "error", err)
			results = append(results, Result{SourcePath: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		results = append(results, Result{SourcePath: path, File: f})
		stats.Succeeded++
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}
