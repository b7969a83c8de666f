// Package retrieval provides clients for the policy-document similarity
// search backends. All implementations must be safe for concurrent use.
package retrieval

import "context"

// Document is one search hit: a policy excerpt and its similarity score.
type Document struct {
	Text  string
	Score float64 // 0.0 – 1.0, descending within a result set
}

// Searcher is the capability the pipeline needs from a retrieval backend.
// An empty result set is a valid return, not an error; errors are reserved
// for backend failures (connectivity, timeout, malformed response).
type Searcher interface {
	Search(ctx context.Context, queryText string, topK int) ([]Document, error)
}
