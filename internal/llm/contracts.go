package llm

import "context"

// Part is one piece of user content: inline bytes (PDF, image) or text.
type Part struct {
	MIMEType string
	Data     []byte
	Text     string
}

func (p Part) IsInline() bool { return len(p.Data) > 0 }

// Request is a provider-neutral structured generation call.
type Request struct {
	System      string
	Parts       []Part
	Schema      map[string]any
	Temperature float32
	MaxTokens   int
}

// Generator returns the raw JSON text the model produced for req.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]byte, error)
	Model() string
}
