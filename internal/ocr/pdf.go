package ocr

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// extractPDF prefers the embedded text layer and falls back to rasterizing
// the pages when it is too thin to be useful.
func (e *Extractor) extractPDF(ctx context.Context, dir, path string) (Result, error) {
	text, pages, warns, err := e.pdfToText(ctx, path)
	if err == nil {
		text = Normalize(text)
		if len([]rune(text)) >= e.cfg.MinChars {
			return Result{Text: text, Pages: pages, Method: "pdf-text", Warnings: warns}, nil
		}
	} else {
		warns = append(warns, err.Error())
	}

	text, pages, w, err := e.pdfToOCR(ctx, dir, path)
	warns = append(warns, w...)
	if err != nil {
		return Result{Method: "pdf-ocr", Warnings: warns}, err
	}
	return Result{Text: Normalize(text), Pages: pages, Method: "pdf-ocr", Warnings: warns}, nil
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (string, int, []string, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	args := []string{"-layout", "-enc", "UTF-8", "-eol", "unix"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, append(args, path, "-")...)
	if err != nil {
		return "", 0, []string{string(errb)}, fmt.Errorf("pdftotext: %w", err)
	}
	text := string(out)
	// pages are separated by form feeds
	return text, 1 + strings.Count(strings.TrimRight(text, "\f\n"), "\f"), nil, nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, dir, path string) (string, int, []string, error) {
	prefix := filepath.Join(dir, "page")
	// pdftoppm -r 300 -png <in.pdf> <dir/page>
	args := []string{"-r", strconv.Itoa(e.cfg.DPI), "-png"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, append(args, path, prefix)...)
	if err != nil {
		return "", 0, []string{string(errb)}, fmt.Errorf("pdftoppm: %w", err)
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return "", 0, nil, fmt.Errorf("pdftoppm rendered no pages")
	}

	var (
		b     strings.Builder
		warns []string
	)
	for _, img := range matches {
		txt, err := e.tesseract(ctx, img)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n")
		}
		b.WriteString(txt)
	}
	if b.Len() == 0 {
		return "", len(matches), warns, fmt.Errorf("tesseract read no text from %d pages", len(matches))
	}
	return b.String(), len(matches), warns, nil
}
