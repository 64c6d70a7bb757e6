// Package ocr pulls a plain-text layer out of PDFs and images with poppler
// and tesseract. The text is sent to the model next to the attachment.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/venue-planner/internal/document"
)

var ErrNotScannable = errors.New("no text layer for this file type")

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	Lang     string // default "eng"
	DPI      int    // rasterization DPI for scanned PDFs, default 300
	MaxPages int    // 0 = no limit

	// MinChars is the embedded-text length below which a PDF is treated as
	// scanned and rasterized for OCR. Default 64.
	MinChars int
}

type Result struct {
	Text     string
	Pages    int
	Method   string // "pdf-text" | "pdf-ocr" | "image-ocr"
	Duration time.Duration
	Warnings []string
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MinChars <= 0 {
		cfg.MinChars = 64
	}
	return &Extractor{cfg: cfg, runner: commandRunner{logger: logger}, logger: logger}
}

// Extract writes f to a temp dir and picks a strategy from its extension.
func (e *Extractor) Extract(ctx context.Context, f document.File) (Result, error) {
	start := time.Now()
	ctx = withDocument(ctx, f.Name)
	ext := f.Ext()
	switch ext {
	case "pdf", "png", "jpg", "jpeg", "webp":
	default:
		return Result{}, fmt.Errorf("%s (.%s): %w", f.Name, ext, ErrNotScannable)
	}

	dir, err := os.MkdirTemp("", "planner-ocr-*")
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = os.RemoveAll(dir) }()
	path := filepath.Join(dir, "input."+ext)
	if err := os.WriteFile(path, f.Data, 0o600); err != nil {
		return Result{}, err
	}

	var res Result
	if ext == "pdf" {
		res, err = e.extractPDF(ctx, dir, path)
	} else {
		res, err = e.extractImage(ctx, path)
	}
	res.Duration = time.Since(start)
	if err != nil {
		e.logger.Warn("ocr.failed", "file", f.Name, "method", res.Method, "error", err)
		return res, err
	}
	e.logger.Debug("ocr.ok", "file", f.Name, "method", res.Method, "pages", res.Pages,
		"chars", len(res.Text), "duration_ms", res.Duration.Milliseconds())
	return res, nil
}

// Text returns only the normalized text, for callers that ignore the details.
func (e *Extractor) Text(ctx context.Context, f document.File) (string, error) {
	res, err := e.Extract(ctx, f)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}
