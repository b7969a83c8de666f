package gates

import (
	"strings"

	"github.com/veritia-ai/policygate/internal/pipeline"
)

// Signals of interpretive or speculative intent — requests for judgment
// rather than a lookup.
var interpretiveSignals = []string{
	"why",
	"intent",
	"reason",
	"what happens if",
	"explain why",
	"should",
}

// Signals of vague or overly broad queries.
var vagueSignals = []string{
	"tell me about",
	"overview",
	"everything",
	"all policies",
	"general rules",
}

// Signals of factual or procedural queries that a document lookup can answer.
var factualSignals = []string{
	"what is",
	"how many",
	"how long",
	"when does",
	"process",
	"procedure",
	"steps",
	"policy on",
	"is there",
}

const eligibilityRefusalReason = "Query not suitable for document-based answering"

// EligibilityGate decides whether a query's phrasing justifies attempting
// retrieval at all.
type EligibilityGate struct{}

func NewEligibilityGate() *EligibilityGate {
	return &EligibilityGate{}
}

func (g *EligibilityGate) Name() string {
	return "eligibility"
}

func (g *EligibilityGate) Admit(q pipeline.Query) pipeline.GateResult {
	if !ShouldRetrieveDocuments(q.Text) {
		return pipeline.GateResult{Reason: eligibilityRefusalReason}
	}
	return pipeline.GateResult{Admitted: true}
}

// ShouldRetrieveDocuments reports whether the query is specific and factual
// enough to justify retrieval. Checks run in order — empty, interpretive,
// vague, factual allowlist — each short-circuiting.
func ShouldRetrieveDocuments(text string) bool {
	query := normalize(text)
	if query == "" {
		return false
	}

	for _, signal := range interpretiveSignals {
		if strings.Contains(query, signal) {
			return false
		}
	}

	for _, signal := range vagueSignals {
		if strings.Contains(query, signal) {
			return false
		}
	}

	for _, signal := range factualSignals {
		if strings.Contains(query, signal) {
			return true
		}
	}

	return false
}
