// Package anthropic is an llm.Generator backed by the Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/joseph-ayodele/venue-planner/internal/llm"
)

const defaultMaxTokens = 4096

type Config struct {
	APIKey  string // falls back to env ANTHROPIC_API_KEY
	BaseURL string
	Model   string
}

type Client struct {
	client sdk.Client
	model  string
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-5"
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{client: sdk.NewClient(opts...), model: cfg.Model, logger: logger}, nil
}

func (c *Client) Model() string { return c.model }

func (c *Client) Generate(ctx context.Context, req llm.Request) ([]byte, error) {
	start := time.Now()

	blocks := make([]sdk.ContentBlockParamUnion, 0, len(req.Parts)+1)
	for _, p := range req.Parts {
		switch {
		case !p.IsInline():
			blocks = append(blocks, sdk.NewTextBlock(p.Text))
		case strings.HasPrefix(p.MIMEType, "image/"):
			blocks = append(blocks, sdk.NewImageBlockBase64(p.MIMEType, base64.StdEncoding.EncodeToString(p.Data)))
		default:
			blocks = append(blocks, sdk.NewDocumentBlock(sdk.Base64PDFSourceParam{
				Data: base64.StdEncoding.EncodeToString(p.Data),
			}))
		}
	}
	blocks = append(blocks, sdk.NewTextBlock("Return ONLY JSON that matches the provided schema."))

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	schema, _ := json.Marshal(req.Schema)

	c.logger.Info("llm.anthropic.start", "model", c.model, "parts", len(req.Parts))
	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(c.model),
		MaxTokens:   maxTokens,
		Temperature: sdk.Float(float64(req.Temperature)),
		System: []sdk.TextBlockParam{
			{Text: req.System},
			{Text: "JSON Schema:\n" + string(schema)},
		},
		Messages: []sdk.MessageParam{sdk.NewUserMessage(blocks...)},
	})
	if err != nil {
		c.logger.Error("llm.anthropic.error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return nil, fmt.Errorf("anthropic: empty response")
	}
	c.logger.Info("llm.anthropic.ok", "model", c.model, "elapsed_ms", time.Since(start).Milliseconds())
	return []byte(text), nil
}
