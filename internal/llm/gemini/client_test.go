package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/venue-planner/internal/llm"
)

func TestNewClient_RequiresKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	_, err := NewClient(context.Background(), Config{}, nil)
	require.Error(t, err)
}

func TestClient_Generate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent"), r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"vendors\":[]}"}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), Config{APIKey: "k", BaseURL: srv.URL, Model: "gemini-test"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "gemini-test", c.Model())

	out, err := c.Generate(context.Background(), llm.Request{
		System: "sys",
		Parts:  []llm.Part{{Text: "hello"}},
		Schema: map[string]any{"type": "object"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"vendors":[]}`, string(out))
	assert.Contains(t, body, "contents")
}
