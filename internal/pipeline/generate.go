package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/veritia-ai/policygate/internal/llm"
)

// ErrGenerationUnavailable wraps any generation backend failure.
var ErrGenerationUnavailable = errors.New("generation backend unavailable")

// InsufficientEvidenceSentinel is the literal out-of-band signal the model is
// instructed to emit when the excerpts do not fully answer the question.
const InsufficientEvidenceSentinel = "INSUFFICIENT_EVIDENCE"

// generationSystemPrompt is fixed and not caller-modifiable. The model is a
// constrained text transformation component here, not a source of knowledge.
const generationSystemPrompt = "You are a policy answer generation component.\n" +
	"Rules:\n" +
	"- Use only the provided policy excerpts.\n" +
	"- Do not use external knowledge.\n" +
	"- Do not interpret or extend policies.\n" +
	"- If the documents do not fully answer the question, respond with:\n" +
	"  " + InsufficientEvidenceSentinel + "\n" +
	"- Do not provide advice or opinions.\n"

// AnswerGenerator invokes the generation backend under the constrained prompt
// contract and classifies its output. It performs no grounding check — that
// is the verifier's job.
type AnswerGenerator struct {
	generator llm.Generator
}

// NewAnswerGenerator creates a generator backed by the given LLM client.
func NewAnswerGenerator(generator llm.Generator) *AnswerGenerator {
	return &AnswerGenerator{generator: generator}
}

// Generate produces a controlled answer from the evidence documents.
// With no evidence it short-circuits to INSUFFICIENT_EVIDENCE without
// calling the backend.
func (g *AnswerGenerator) Generate(ctx context.Context, q Query, docs []RetrievedDocument) (*GenerationResult, error) {
	if len(docs) == 0 {
		return &GenerationResult{
			UsedDocuments: []RetrievedDocument{},
			Status:        StatusInsufficientEvidence,
		}, nil
	}

	userPrompt := fmt.Sprintf("Question:\n%s\n\nPolicy Documents:\n%s", q.Text, formatEvidence(docs))

	response, err := g.generator.Generate(ctx, generationSystemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}

	if response == "" || strings.TrimSpace(response) == InsufficientEvidenceSentinel {
		return &GenerationResult{
			UsedDocuments: docs,
			Status:        StatusInsufficientEvidence,
		}, nil
	}

	return &GenerationResult{
		AnswerText:    response,
		UsedDocuments: docs,
		Status:        StatusGenerated,
	}, nil
}

// formatEvidence serializes the excerpts for the user-facing prompt.
func formatEvidence(docs []RetrievedDocument) string {
	var sb strings.Builder
	for i, doc := range docs {
		fmt.Fprintf(&sb, "%d. (score %.2f) %s\n", i+1, doc.Score, doc.Text)
	}
	return sb.String()
}
