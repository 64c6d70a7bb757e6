package ocr

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type documentKey struct{}

// withDocument tags ctx with the upload being read so every command logged
// under it names the file it ran for.
func withDocument(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, documentKey{}, name)
}

func documentFrom(ctx context.Context) string {
	name, _ := ctx.Value(documentKey{}).(string)
	return name
}

// commandRunner runs poppler and tesseract binaries. Failures carry the
// exit code and the tail of stderr; successes are logged at debug.
type commandRunner struct {
	logger *slog.Logger
}

func (r commandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	err := cmd.Run()

	log := r.logger.With("file", documentFrom(ctx), "cmd", name, "duration_ms", time.Since(start).Milliseconds())
	if err != nil {
		log.Error("ocr.exec.failed",
			"args", strings.Join(args, " "),
			"exit_code", exitCode(err),
			"error", err,
			"stderr", tail(stderr.String(), 8<<10))
		return stdout.Bytes(), stderr.Bytes(), err
	}
	log.Debug("ocr.exec.ok", "stdout_bytes", stdout.Len())
	return stdout.Bytes(), stderr.Bytes(), nil
}

// exitCode is -1 when the process never ran or was killed.
func exitCode(err error) int {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}

// tail keeps the last max bytes, where tesseract and poppler put the reason.
func tail(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "...(truncated)" + s[len(s)-max:]
}
