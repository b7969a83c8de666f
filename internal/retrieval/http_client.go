package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// HTTPSearcher queries a hosted similarity-search service over JSON/HTTP.
// The service contract: POST {base}/search with {"query": ..., "top_k": N}
// returns {"results": [{"text": ..., "score": ...}, ...]} ordered by
// descending score. An empty results array is a valid response.
type HTTPSearcher struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// HTTPSearcherConfig configures an HTTPSearcher.
type HTTPSearcherConfig struct {
	BaseURL string
	APIKey  string        // optional bearer token
	Timeout time.Duration // default 10s
	Logger  *zap.Logger
}

// NewHTTPSearcher creates a searcher for the given endpoint.
func NewHTTPSearcher(cfg HTTPSearcherConfig) *HTTPSearcher {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSearcher{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     cfg.Logger,
	}
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type searchResponse struct {
	Results []struct {
		Text  string  `json:"text"`
		Score float64 `json:"score"`
	} `json:"results"`
}

// Search executes one similarity search. The caller's context deadline is
// honored; transport and non-2xx failures are returned as errors.
func (s *HTTPSearcher) Search(ctx context.Context, queryText string, topK int) ([]Document, error) {
	body, err := json.Marshal(searchRequest{Query: queryText, TopK: topK})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	docs := make([]Document, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		docs = append(docs, Document{Text: r.Text, Score: r.Score})
	}

	s.logger.Debug("retrieval search",
		zap.Int("top_k", topK),
		zap.Int("results", len(docs)),
		zap.Duration("duration", time.Since(start)),
	)

	return docs, nil
}
