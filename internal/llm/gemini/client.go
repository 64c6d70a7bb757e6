// Package gemini is an llm.Generator backed by the Google GenAI SDK.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/joseph-ayodele/venue-planner/internal/llm"
)

type Config struct {
	APIKey  string // falls back to env GEMINI_API_KEY
	BaseURL string // optional override, used by tests
	Model   string // default gemini-2.5-flash
}

type Client struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if logger == nil {
		logger = slog.Default()
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{client: client, model: cfg.Model, logger: logger}, nil
}

func (c *Client) Model() string { return c.model }

// Generate sends the parts as one user turn in JSON response mode. The schema
// travels in the system instruction so any schema keyword is accepted.
func (c *Client) Generate(ctx context.Context, req llm.Request) ([]byte, error) {
	start := time.Now()

	parts := make([]*genai.Part, 0, len(req.Parts))
	for _, p := range req.Parts {
		if p.IsInline() {
			parts = append(parts, genai.NewPartFromBytes(p.Data, p.MIMEType))
			continue
		}
		parts = append(parts, genai.NewPartFromText(p.Text))
	}

	schema, _ := json.Marshal(req.Schema)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System+"\n\nJSON Schema:\n"+string(schema), genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr(req.Temperature),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	c.logger.Info("llm.gemini.start", "model", c.model, "parts", len(parts))
	resp, err := c.client.Models.GenerateContent(ctx, c.model, []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}, cfg)
	if err != nil {
		c.logger.Error("llm.gemini.error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("gemini: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("gemini: empty response")
	}
	c.logger.Info("llm.gemini.ok", "model", c.model, "elapsed_ms", time.Since(start).Milliseconds())
	return []byte(text), nil
}
