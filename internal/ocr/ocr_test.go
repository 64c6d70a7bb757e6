package ocr

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/venue-planner/internal/common"
	"github.com/joseph-ayodele/venue-planner/internal/document"
)

type call struct {
	name string
	args []string
}

// fakeRunner answers by binary name; pdftoppm also writes the page files the
// glob expects.
type fakeRunner struct {
	calls    []call
	out      map[string]string
	fail     map[string]bool
	rendered int
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, call{name, args})
	if f.fail[name] {
		return nil, []byte(name + " exploded"), errors.New("exit status 1")
	}
	if name == "pdftoppm" {
		prefix := args[len(args)-1]
		for i := 1; i <= f.rendered; i++ {
			_ = os.WriteFile(prefix+"-"+string(rune('0'+i))+".png", []byte("png"), 0o600)
		}
	}
	return []byte(f.out[name]), nil, nil
}

func newTestExtractor(r Runner) *Extractor {
	e := NewExtractor(Config{MinChars: 10}, common.DiscardLogger())
	e.runner = r
	return e
}

func TestExtract_PDFTextLayer(t *testing.T) {
	r := &fakeRunner{out: map[string]string{"pdftotext": "Oak Barn   capacity 120  \n\n\n\nHire £4,500\f"}}
	res, err := newTestExtractor(r).Extract(context.Background(), document.NewFile("brochure.pdf", []byte("%PDF")))
	require.NoError(t, err)
	assert.Equal(t, "pdf-text", res.Method)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, "Oak Barn  capacity 120\n\nHire £4,500", res.Text)
	require.Len(t, r.calls, 1)
	assert.True(t, strings.HasSuffix(r.calls[0].args[len(r.calls[0].args)-2], "input.pdf"))
}

func TestExtract_ScannedPDFFallsBackToOCR(t *testing.T) {
	r := &fakeRunner{
		out:      map[string]string{"pdftotext": "\f", "tesseract": "Mill House weddings"},
		rendered: 2,
	}
	res, err := newTestExtractor(r).Extract(context.Background(), document.NewFile("scan.pdf", []byte("%PDF")))
	require.NoError(t, err)
	assert.Equal(t, "pdf-ocr", res.Method)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, "Mill House weddings\n\f\nMill House weddings", res.Text)

	names := make([]string, len(r.calls))
	for i, c := range r.calls {
		names[i] = c.name
	}
	assert.Equal(t, []string{"pdftotext", "pdftoppm", "tesseract", "tesseract"}, names)
	assert.Equal(t, "page", filepath.Base(r.calls[1].args[len(r.calls[1].args)-1]))
}

func TestExtract_Image(t *testing.T) {
	r := &fakeRunner{out: map[string]string{"tesseract": "Florist ||| Bloom & Co"}}
	text, err := newTestExtractor(r).Text(context.Background(), document.NewFile("card.jpg", []byte("jpg")))
	require.NoError(t, err)
	assert.Equal(t, "Florist  Bloom & Co", text)
}

func TestExtract_Errors(t *testing.T) {
	e := newTestExtractor(&fakeRunner{fail: map[string]bool{"tesseract": true}})
	_, err := e.Extract(context.Background(), document.NewFile("card.png", []byte("png")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tesseract exploded")

	_, err = e.Extract(context.Background(), document.NewFile("prices.xlsx", []byte("x")))
	assert.ErrorIs(t, err, ErrNotScannable)
}

func TestCommandRunner_LogsDocument(t *testing.T) {
	var buf bytes.Buffer
	r := commandRunner{logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}

	ctx := withDocument(context.Background(), "brochure.pdf")
	_, _, err := r.Run(ctx, "planner-no-such-binary", "-layout")
	require.Error(t, err)

	line := buf.String()
	assert.Contains(t, line, "ocr.exec.failed")
	assert.Contains(t, line, "file=brochure.pdf")
	assert.Contains(t, line, "cmd=planner-no-such-binary")
	assert.Contains(t, line, "exit_code=-1")
}

func TestTail(t *testing.T) {
	assert.Equal(t, "short", tail("short", 10))
	assert.Equal(t, "...(truncated)error", tail("long prefix error", 5))
}
