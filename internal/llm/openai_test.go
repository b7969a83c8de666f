package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestOpenAIClient_Generate(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "Annual leave is twenty days."}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{
		Model:   "gpt-4o-mini",
		APIKey:  "sk-test",
		BaseURL: srv.URL,
		Logger:  zap.NewNop(),
	})

	got, err := c.Generate(context.Background(), "system rules", "user question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Annual leave is twenty days." {
		t.Errorf("unexpected completion: %q", got)
	}

	if gotReq.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if gotReq.Temperature != 0 {
		t.Errorf("temperature = %f, want 0", gotReq.Temperature)
	}
	if len(gotReq.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(gotReq.Messages))
	}
	if gotReq.Messages[0].Role != "system" || gotReq.Messages[0].Content != "system rules" {
		t.Errorf("unexpected system message: %+v", gotReq.Messages[0])
	}
	if gotReq.Messages[1].Role != "user" || gotReq.Messages[1].Content != "user question" {
		t.Errorf("unexpected user message: %+v", gotReq.Messages[1])
	}
}

func TestOpenAIClient_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{Model: "gpt-4o-mini", BaseURL: srv.URL, Logger: zap.NewNop()})

	got, err := c.Generate(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("empty choices must not be an error: %v", err)
	}
	if got != "" {
		t.Errorf("completion = %q, want empty", got)
	}
}

func TestOpenAIClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{Model: "gpt-4o-mini", BaseURL: srv.URL, Logger: zap.NewNop()})

	_, err := c.Generate(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("expected error on 429")
	}
	if !strings.Contains(err.Error(), "status 429") {
		t.Errorf("error should carry the status code: %v", err)
	}
}
