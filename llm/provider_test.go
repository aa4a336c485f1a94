package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		provider string
		wantErr  bool
	}{
		{"gemini", false},
		{"ollama", false},
		{"openai", false},
		{"custom", false},
		{"", true},
		{"anthropic", true},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			_, err := NewProvider(Config{Provider: tt.provider, Model: "m"})
			if (err != nil) != tt.wantErr {
				t.Errorf("NewProvider(%q): err = %v, wantErr %v", tt.provider, err, tt.wantErr)
			}
		})
	}
}

func TestChatRequestSerialization(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("auth header: got %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &captured)
		io.WriteString(w, `{"choices": [{"message": {"content": "MATCH (n) RETURN n"}, "finish_reason": "stop"}], "model": "m", "usage": {"total_tokens": 9}}`)
	}))
	defer srv.Close()

	p := NewOpenAICompat(Config{Provider: "custom", Model: "m", BaseURL: srv.URL, APIKey: "sk-test"})
	resp, err := p.Chat(context.Background(), ChatRequest{
		Messages:    []Message{{Role: "user", Content: "hi"}},
		Temperature: 0,
		MaxTokens:   1024,
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if resp.Content != "MATCH (n) RETURN n" {
		t.Errorf("content: got %q", resp.Content)
	}
	if resp.TotalTokens != 9 {
		t.Errorf("total tokens: got %d", resp.TotalTokens)
	}
	// Temperature 0 must reach the wire; deterministic generation depends
	// on it.
	if v, ok := captured["temperature"]; !ok || v != float64(0) {
		t.Errorf("temperature missing or wrong in request body: %v", captured)
	}
	if captured["model"] != "m" {
		t.Errorf("model should default from config, got %v", captured["model"])
	}
}

func TestChatErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, "rate limited")
	}))
	defer srv.Close()

	p := NewOpenAICompat(Config{Provider: "custom", Model: "m", BaseURL: srv.URL})
	if _, err := p.Chat(context.Background(), ChatRequest{}); err == nil {
		t.Fatal("non-200 status should error")
	}
}

func TestEmbedReordersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		io.WriteString(w, `{"data": [
			{"index": 1, "embedding": [0.2]},
			{"index": 0, "embedding": [0.1]}
		]}`)
	}))
	defer srv.Close()

	p := NewOpenAICompat(Config{Provider: "custom", Model: "m", BaseURL: srv.URL})
	got, err := p.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if got[0][0] != 0.1 || got[1][0] != 0.2 {
		t.Errorf("embeddings not ordered by index: %v", got)
	}
}

func TestOllamaEmbedNativeEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"model":"all-minilm"`) {
			t.Errorf("request body: %s", body)
		}
		io.WriteString(w, `{"embeddings": [[0.5, 0.25]]}`)
	}))
	defer srv.Close()

	p := NewOllama(Config{Provider: "ollama", Model: "all-minilm", BaseURL: srv.URL})
	got, err := p.Embed(context.Background(), []string{"hello"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(got) != 1 || got[0][0] != 0.5 || got[0][1] != 0.25 {
		t.Errorf("embeddings: got %v", got)
	}
}

func TestGeminiBaseURL(t *testing.T) {
	p := NewGemini(Config{Provider: "gemini", Model: "gemini-1.5-flash"})
	g, ok := p.(*geminiProvider)
	if !ok {
		t.Fatalf("unexpected provider type %T", p)
	}
	if !strings.Contains(g.base.cfg.BaseURL, "generativelanguage.googleapis.com") {
		t.Errorf("default base URL: got %q", g.base.cfg.BaseURL)
	}
	if g.base.pathPrefix != "" {
		t.Errorf("gemini path prefix should be empty, got %q", g.base.pathPrefix)
	}
}
