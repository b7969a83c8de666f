package pipeline

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/veritia-ai/policygate/internal/retrieval"
)

type fakeSearcher struct {
	docs  []retrieval.Document
	err   error
	calls int
	topK  int
}

func (f *fakeSearcher) Search(_ context.Context, _ string, topK int) ([]retrieval.Document, error) {
	f.calls++
	f.topK = topK
	return f.docs, f.err
}

func TestEvidenceCollector_MeanAndSufficiency(t *testing.T) {
	tests := []struct {
		name           string
		scores         []float64
		wantScore      float64
		wantSufficient bool
	}{
		{"three strong docs", []float64{0.7, 0.65, 0.6}, 0.65, true},
		{"single doc below min count", []float64{0.9}, 0.9, false},
		{"two docs all below min score", []float64{0.5, 0.55}, 0.525, false},
		{"low filler drags mean but max carries", []float64{0.9, 0.1}, 0.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := make([]retrieval.Document, len(tt.scores))
			for i, s := range tt.scores {
				docs[i] = retrieval.Document{Text: "policy excerpt", Score: s}
			}
			collector := NewEvidenceCollector(&fakeSearcher{docs: docs})

			evidence, err := collector.RetrieveAndEvaluate(context.Background(), "what is the leave policy", DefaultThresholds())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(evidence.EvidenceScore-tt.wantScore) > 1e-9 {
				t.Errorf("evidence score = %f, want %f", evidence.EvidenceScore, tt.wantScore)
			}
			if evidence.Sufficient != tt.wantSufficient {
				t.Errorf("sufficient = %v, want %v", evidence.Sufficient, tt.wantSufficient)
			}
			if len(evidence.Documents) != len(tt.scores) {
				t.Errorf("documents = %d, want %d", len(evidence.Documents), len(tt.scores))
			}
		})
	}
}

func TestEvidenceCollector_NoResults(t *testing.T) {
	collector := NewEvidenceCollector(&fakeSearcher{docs: []retrieval.Document{}})

	evidence, err := collector.RetrieveAndEvaluate(context.Background(), "what is the leave policy", DefaultThresholds())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evidence.Sufficient {
		t.Error("expected insufficient evidence")
	}
	if evidence.EvidenceScore != 0.0 {
		t.Errorf("evidence score = %f, want 0.0", evidence.EvidenceScore)
	}
	if evidence.Documents == nil || len(evidence.Documents) != 0 {
		t.Errorf("expected empty document slice, got %v", evidence.Documents)
	}
}

func TestEvidenceCollector_BackendError(t *testing.T) {
	collector := NewEvidenceCollector(&fakeSearcher{err: errors.New("connection refused")})

	evidence, err := collector.RetrieveAndEvaluate(context.Background(), "what is the leave policy", DefaultThresholds())
	if evidence != nil {
		t.Errorf("expected nil evidence on backend error, got %v", evidence)
	}
	if !errors.Is(err, ErrRetrievalUnavailable) {
		t.Errorf("expected ErrRetrievalUnavailable, got %v", err)
	}
}

func TestEvidenceCollector_PassesTopK(t *testing.T) {
	searcher := &fakeSearcher{}
	collector := NewEvidenceCollector(searcher)

	th := DefaultThresholds()
	th.TopK = 3
	if _, err := collector.RetrieveAndEvaluate(context.Background(), "what is the leave policy", th); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if searcher.topK != 3 {
		t.Errorf("topK = %d, want 3", searcher.topK)
	}
}
