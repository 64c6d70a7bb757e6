package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/venue-planner/internal/llm"
)

// Generate implements llm.Generator with chat/completions in JSON mode.
// Images are sent as data URLs; PDFs as file parts.
func (c *Client) Generate(ctx context.Context, req llm.Request) ([]byte, error) {
	start := time.Now()

	content := make([]map[string]any, 0, len(req.Parts))
	for _, p := range req.Parts {
		switch {
		case !p.IsInline():
			content = append(content, map[string]any{"type": "text", "text": p.Text})
		case strings.HasPrefix(p.MIMEType, "image/"):
			content = append(content, map[string]any{
				"type":      "image_url",
				"image_url": map[string]any{"url": dataURL(p.MIMEType, p.Data)},
			})
		default:
			content = append(content, map[string]any{
				"type": "file",
				"file": map[string]any{
					"filename":  "document.pdf",
					"file_data": dataURL(p.MIMEType, p.Data),
				},
			})
		}
	}
	content = append(content, map[string]any{"type": "text", "text": "Return ONLY JSON that matches the provided schema."})

	temperature := req.Temperature
	if c.cfg.Temperature > 0 {
		temperature = c.cfg.Temperature
	}
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": req.System},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(req.Schema)},
			{"role": "user", "content": content},
		},
	}
	maxTokens := req.MaxTokens
	if c.cfg.MaxTokens > 0 {
		maxTokens = c.cfg.MaxTokens
	}
	if maxTokens > 0 {
		body["max_tokens"] = maxTokens
	}

	c.logger.Info("llm.openai.start", "model", c.cfg.Model, "parts", len(req.Parts))

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, _, err := llm.SendJSON(ctx, c.http, endpoint, body, map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
	}, c.logger)
	if err != nil {
		c.logger.Error("llm.openai.http_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("openai: %w", err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return nil, fmt.Errorf("no choices in openai response")
	}
	if cc.Choices[0].FinishReason == "length" {
		c.logger.Warn("llm.openai.truncated", "model", c.cfg.Model)
	}

	c.logger.Info("llm.openai.ok", "model", c.cfg.Model, "elapsed_ms", time.Since(start).Milliseconds())
	return []byte(strings.TrimSpace(cc.Choices[0].Message.Content)), nil
}

func dataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
