package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/veritia-ai/policygate/internal/retrieval"
)

// ErrRetrievalUnavailable wraps any retrieval backend failure. It is never
// silently converted into "no evidence found" — callers must be able to tell
// "policy says no" apart from "system is broken".
var ErrRetrievalUnavailable = errors.New("retrieval backend unavailable")

// EvidenceCollector executes retrieval and scores the sufficiency of the
// returned evidence.
type EvidenceCollector struct {
	searcher retrieval.Searcher
}

// NewEvidenceCollector creates a collector backed by the given searcher.
func NewEvidenceCollector(searcher retrieval.Searcher) *EvidenceCollector {
	return &EvidenceCollector{searcher: searcher}
}

// RetrieveAndEvaluate runs one backend search and derives the evidence score
// and sufficiency verdict.
//
// The evidence score is the mean over ALL returned scores, not a top-k
// subset — low-scoring filler pulls the mean down, and that conservatism is
// intentional. Sufficiency requires both MinDocs documents and at least one
// score at or above MinScore.
func (c *EvidenceCollector) RetrieveAndEvaluate(ctx context.Context, queryText string, th Thresholds) (*EvidenceSet, error) {
	hits, err := c.searcher.Search(ctx, queryText, th.TopK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalUnavailable, err)
	}

	if len(hits) == 0 {
		return &EvidenceSet{
			Documents:     []RetrievedDocument{},
			EvidenceScore: 0.0,
			Sufficient:    false,
		}, nil
	}

	docs := make([]RetrievedDocument, len(hits))
	var sum, maxScore float64
	for i, hit := range hits {
		docs[i] = RetrievedDocument{Text: hit.Text, Score: hit.Score}
		sum += hit.Score
		if hit.Score > maxScore {
			maxScore = hit.Score
		}
	}

	return &EvidenceSet{
		Documents:     docs,
		EvidenceScore: sum / float64(len(docs)),
		Sufficient:    len(docs) >= th.MinDocs && maxScore >= th.MinScore,
	}, nil
}
