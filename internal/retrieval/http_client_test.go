package retrieval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestHTTPSearcher_Search(t *testing.T) {
	var gotBody searchRequest
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/search" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": [
			{"text": "annual leave is twenty days", "score": 0.82},
			{"text": "leave carries over one year", "score": 0.61}
		]}`))
	}))
	defer srv.Close()

	s := NewHTTPSearcher(HTTPSearcherConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Logger:  zap.NewNop(),
	})

	docs, err := s.Search(context.Background(), "leave policy", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotBody.Query != "leave policy" || gotBody.TopK != 5 {
		t.Errorf("unexpected request body: %+v", gotBody)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if len(docs) != 2 {
		t.Fatalf("docs = %d, want 2", len(docs))
	}
	if docs[0].Text != "annual leave is twenty days" || docs[0].Score != 0.82 {
		t.Errorf("unexpected first doc: %+v", docs[0])
	}
}

func TestHTTPSearcher_EmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	s := NewHTTPSearcher(HTTPSearcherConfig{BaseURL: srv.URL, Logger: zap.NewNop()})

	docs, err := s.Search(context.Background(), "leave policy", 5)
	if err != nil {
		t.Fatalf("empty results must not be an error: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("docs = %d, want 0", len(docs))
	}
}

func TestHTTPSearcher_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "index unavailable", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewHTTPSearcher(HTTPSearcherConfig{BaseURL: srv.URL, Logger: zap.NewNop()})

	_, err := s.Search(context.Background(), "leave policy", 5)
	if err == nil {
		t.Fatal("expected error on 500")
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Errorf("error should carry the status code: %v", err)
	}
}

func TestHTTPSearcher_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	s := NewHTTPSearcher(HTTPSearcherConfig{BaseURL: srv.URL, Logger: zap.NewNop()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Search(ctx, "leave policy", 5); err == nil {
		t.Fatal("expected error on cancelled context")
	}
}
