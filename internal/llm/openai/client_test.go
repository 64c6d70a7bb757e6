package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/venue-planner/internal/llm"
)

func TestClient_Generate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":" {\"venues\":[{\"name\":\"Oak Barn\"}]} "},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL, Model: "gpt-4o-mini"}, nil)
	out, err := c.Generate(context.Background(), llm.Request{
		System: "sys",
		Parts:  []llm.Part{{MIMEType: "image/png", Data: []byte{1, 2, 3}}, {Text: "Filename: a.png"}},
		Schema: map[string]any{"type": "object"},
	})

	require.NoError(t, err)
	assert.JSONEq(t, `{"venues":[{"name":"Oak Barn"}]}`, string(out))
	assert.Equal(t, "gpt-4o-mini", got["model"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 3)
	user := msgs[2].(map[string]any)["content"].([]any)
	assert.Equal(t, "image_url", user[0].(map[string]any)["type"])
}

func TestClient_GenerateHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "nope", BaseURL: srv.URL}, nil)
	_, err := c.Generate(context.Background(), llm.Request{})

	var httpErr *llm.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Status)
}
