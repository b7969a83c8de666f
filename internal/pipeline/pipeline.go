// Package pipeline implements the six-gate decision chain that decides, for
// a single user query, whether to produce a policy-grounded answer or to
// refuse. Refusal is a first-class outcome: every gate returns a result
// record, and only backend failures travel on the error channel.
package pipeline

import (
	"context"
	"strings"

	"github.com/veritia-ai/policygate/internal/llm"
	"github.com/veritia-ai/policygate/internal/retrieval"
	"go.uber.org/zap"
)

// Stage names recorded in the decision trace.
const (
	StageValidation = "validation"
	StageEvidence   = "evidence"
	StageGeneration = "generation"
	StageGrounding  = "grounding"
)

// Input-validation refusal reasons.
const (
	reasonEmptyQuery  = "Query text is required"
	reasonUnknownRole = "Unrecognized user role"
)

// Pipeline runs the gates and backend stages in strict sequence,
// short-circuiting to REFUSE at the first failing stage. It holds no
// per-query state and is safe for concurrent use as long as its backend
// clients are.
type Pipeline struct {
	gates     []Gate
	collector *EvidenceCollector
	generator *AnswerGenerator
	verifier  *GroundingVerifier
	defaults  Thresholds
	logger    *zap.Logger
}

// New creates a pipeline over the given gates and backend clients.
func New(gs []Gate, searcher retrieval.Searcher, gen llm.Generator, defaults Thresholds, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		gates:     gs,
		collector: NewEvidenceCollector(searcher),
		generator: NewAnswerGenerator(gen),
		verifier:  NewGroundingVerifier(),
		defaults:  defaults,
		logger:    logger,
	}
}

// HandleQuery executes all decision stages in order and returns the final
// ANSWER or REFUSE decision. Per-client overrides (may be nil) are resolved
// against the server defaults for this invocation only.
//
// A non-nil error means the policy could not be evaluated (a backend
// failed); it is never returned for an expected refusal.
func (p *Pipeline) HandleQuery(ctx context.Context, q Query, overrides *ThresholdOverrides) (*Decision, error) {
	th := overrides.Apply(p.defaults)
	trace := make([]StageTrace, 0, len(p.gates)+4)

	// Input validation: malformed input is a legitimate REFUSE, not a crash.
	if strings.TrimSpace(q.Text) == "" {
		trace = append(trace, StageTrace{Stage: StageValidation})
		return refusal(reasonEmptyQuery, 0, trace), nil
	}
	if q.Role != RoleEmployee && q.Role != RolePreJoiningCandidate {
		trace = append(trace, StageTrace{Stage: StageValidation})
		return refusal(reasonUnknownRole, 0, trace), nil
	}
	trace = append(trace, StageTrace{Stage: StageValidation, Admitted: true})

	for _, g := range p.gates {
		result := g.Admit(q)
		trace = append(trace, StageTrace{Stage: g.Name(), Admitted: result.Admitted})
		if !result.Admitted {
			p.logger.Debug("gate refused query",
				zap.String("gate", g.Name()),
				zap.String("role", q.Role.String()),
			)
			return refusal(result.Reason, 0, trace), nil
		}
	}

	evidence, err := p.collector.RetrieveAndEvaluate(ctx, q.Text, th)
	if err != nil {
		return nil, err
	}
	trace = append(trace, StageTrace{Stage: StageEvidence, Admitted: evidence.Sufficient})
	if !evidence.Sufficient {
		return refusal("Insufficient policy evidence", evidence.EvidenceScore, trace), nil
	}

	generation, err := p.generator.Generate(ctx, q, evidence.Documents)
	if err != nil {
		return nil, err
	}
	generated := generation.Status == StatusGenerated
	trace = append(trace, StageTrace{Stage: StageGeneration, Admitted: generated})
	if !generated {
		return refusal("Model could not generate grounded answer", evidence.EvidenceScore, trace), nil
	}

	verification := p.verifier.Verify(generation.AnswerText, evidence.Documents, evidence.EvidenceScore, th)
	trace = append(trace, StageTrace{Stage: StageGrounding, Admitted: verification.Outcome == OutcomeAnswer})
	if verification.Outcome != OutcomeAnswer {
		return refusal(verification.RefusalReason, verification.ConfidenceScore, trace), nil
	}

	p.logger.Debug("query answered",
		zap.Float64("confidence_score", verification.ConfidenceScore),
		zap.Int("supporting_documents", len(evidence.Documents)),
	)

	return &Decision{
		Outcome:             OutcomeAnswer,
		Answer:              generation.AnswerText,
		ConfidenceScore:     verification.ConfidenceScore,
		SupportingDocuments: evidence.Documents,
		Stages:              trace,
	}, nil
}

func refusal(reason string, confidence float64, trace []StageTrace) *Decision {
	return &Decision{
		Outcome:         OutcomeRefuse,
		RefusalReason:   reason,
		ConfidenceScore: confidence,
		Stages:          trace,
	}
}
