package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		wantOK bool
	}{
		{"valid", "Bearer pgk_abc123", "pgk_abc123", true},
		{"trailing space trimmed", "Bearer pgk_abc123  ", "pgk_abc123", true},
		{"missing header", "", "", false},
		{"wrong scheme", "Basic dXNlcjpwYXNz", "", false},
		{"no scheme", "pgk_abc123", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			got, ok := extractBearerToken(r)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("extractBearerToken() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAuthMiddleware_RejectsWithoutStoreLookup(t *testing.T) {
	// These requests fail before any Postgres lookup, so a nil Store is safe.
	deps := &Dependencies{Logger: zap.NewNop(), CacheTTL: 30 * time.Second}
	handler := deps.authMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("handler must not be reached")
	})

	tests := []struct {
		name   string
		header string
	}{
		{"no authorization", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"wrong key prefix", "Bearer sk-1234567890"},
		{"token too short", "Bearer pgk_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/v1/decide", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler(rec, r)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestParseThresholdConfig(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantNil bool
	}{
		{"empty", "", true},
		{"empty object", "{}", true},
		{"null", "null", true},
		{"invalid json", "{min_docs", true},
		{"wrong types", `{"min_docs": "three"}`, true},
		{"valid overrides", `{"min_docs": 3, "confidence_threshold": 0.8}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseThresholdConfig(json.RawMessage(tt.raw))
			if (got == nil) != tt.wantNil {
				t.Errorf("parseThresholdConfig(%q) = %+v, wantNil=%v", tt.raw, got, tt.wantNil)
			}
		})
	}
}

func TestParseThresholdConfig_Values(t *testing.T) {
	got := parseThresholdConfig(json.RawMessage(`{"min_docs": 3, "top_k": 8}`))
	if got == nil {
		t.Fatal("expected overrides")
	}
	if got.MinDocs == nil || *got.MinDocs != 3 {
		t.Errorf("MinDocs = %v, want 3", got.MinDocs)
	}
	if got.TopK == nil || *got.TopK != 8 {
		t.Errorf("TopK = %v, want 8", got.TopK)
	}
	if got.MinScore != nil || got.ConfidenceThreshold != nil {
		t.Error("unset fields must stay nil")
	}
}

func TestAuthCache_StaleWhileRevalidate(t *testing.T) {
	cache := newAuthCache(time.Minute)
	client := &authClient{ID: "client-1"}

	if _, hit, _ := cache.get("pgk_token"); hit {
		t.Fatal("empty cache must miss")
	}

	cache.set("pgk_token", client)
	got, hit, needsRefresh := cache.get("pgk_token")
	if !hit || needsRefresh || got.ID != "client-1" {
		t.Fatalf("fresh entry: hit=%v refresh=%v client=%+v", hit, needsRefresh, got)
	}

	// Expired entries still serve, but exactly one caller wins the refresh.
	stale := newAuthCache(-time.Second)
	stale.set("pgk_token", client)
	_, hit, first := stale.get("pgk_token")
	if !hit || !first {
		t.Fatalf("stale entry should hit and request refresh: hit=%v refresh=%v", hit, first)
	}
	_, _, second := stale.get("pgk_token")
	if second {
		t.Error("second caller must not also refresh")
	}
}
