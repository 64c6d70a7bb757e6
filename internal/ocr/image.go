package ocr

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var (
	reBoxNoise  = regexp.MustCompile(`[│┃┆┇┊┋╎╏|]{2,}`)
	reBlankRuns = regexp.MustCompile(`\n{3,}`)
	reSpaceRuns = regexp.MustCompile(`[ \t]{2,}`)
)

func (e *Extractor) extractImage(ctx context.Context, path string) (Result, error) {
	txt, err := e.tesseract(ctx, path)
	if err != nil {
		return Result{Method: "image-ocr"}, err
	}
	return Result{Text: Normalize(txt), Pages: 1, Method: "image-ocr"}, nil
}

func (e *Extractor) tesseract(ctx context.Context, path string) (string, error) {
	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, path, "stdout", "-l", e.cfg.Lang)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, tail(strings.TrimSpace(string(errb)), 512))
	}
	return reBoxNoise.ReplaceAllString(string(out), ""), nil
}

// Normalize trims trailing spaces, squeezes runs of blanks and keeps page
// breaks as single form feeds.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = reSpaceRuns.ReplaceAllString(strings.TrimRight(ln, " \t"), "  ")
	}
	s = reBlankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(s)
}
