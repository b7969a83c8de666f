package retrieval

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"
)

// ChromemSearcher serves similarity search from a local chromem-go index,
// for deployments without a hosted retrieval service. The index is built by
// an external ingestion job; this searcher only reads it.
type ChromemSearcher struct {
	collection *chromem.Collection
}

// ChromemConfig configures a ChromemSearcher.
type ChromemConfig struct {
	PersistPath string // path to the persisted index
	Collection  string // collection name, default "policies"
}

// NewChromemSearcher opens the persisted index and binds the embedding
// function used for query-time embedding.
func NewChromemSearcher(cfg ChromemConfig, embed chromem.EmbeddingFunc) (*ChromemSearcher, error) {
	if cfg.Collection == "" {
		cfg.Collection = "policies"
	}

	db, err := chromem.NewPersistentDB(cfg.PersistPath, false)
	if err != nil {
		return nil, fmt.Errorf("open policy index: %w", err)
	}

	collection, err := db.GetOrCreateCollection(cfg.Collection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("open collection %q: %w", cfg.Collection, err)
	}

	return &ChromemSearcher{collection: collection}, nil
}

// Search runs a query-time embedding and similarity lookup against the
// local index. "No results" is an empty slice, never an error.
func (s *ChromemSearcher) Search(ctx context.Context, queryText string, topK int) ([]Document, error) {
	// chromem rejects nResults larger than the collection size.
	count := s.collection.Count()
	if count == 0 {
		return []Document{}, nil
	}
	if topK > count {
		topK = count
	}

	results, err := s.collection.Query(ctx, queryText, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query policy index: %w", err)
	}

	docs := make([]Document, 0, len(results))
	for _, r := range results {
		docs = append(docs, Document{Text: r.Content, Score: float64(r.Similarity)})
	}
	return docs, nil
}
