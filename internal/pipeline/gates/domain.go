package gates

import (
	"strings"

	"github.com/veritia-ai/policygate/internal/pipeline"
)

// Matching throughout this package is plain substring containment on the
// lowercased query, exactly as the rule set was audited. Short signals like
// "hr" will also hit inside unrelated words; that precision gap is accepted
// rather than silently changed to word-boundary matching.

// Advice-seeking, speculative, or personal patterns. Any hit refuses the
// query before the allowlist is consulted.
var domainRejectionSignals = []string{
	"should i",
	"do you think",
	"is it fair",
	"what happens if",
	"will i",
	"my salary",
	"my manager",
	"recommend",
	"opinion",
	"best way",
	"what should i do",
}

// Policy-domain allowlist. A query must contain at least one of these to be
// in scope at all.
var policyDomainKeywords = []string{
	"policy",
	"leave",
	"vacation",
	"pto",
	"probation",
	"notice period",
	"benefits",
	"insurance",
	"reimbursement",
	"compliance",
	"code of conduct",
	"work hours",
	"remote",
	"hybrid",
	"hr",
	"onboarding",
}

const domainRefusalReason = "Query outside policy domain"

// DomainGate decides whether a query is in scope for policy answering at all.
type DomainGate struct{}

func NewDomainGate() *DomainGate {
	return &DomainGate{}
}

func (g *DomainGate) Name() string {
	return "domain"
}

func (g *DomainGate) Admit(q pipeline.Query) pipeline.GateResult {
	if !IsPolicyDomainQuery(q.Text) {
		return pipeline.GateResult{Reason: domainRefusalReason}
	}
	return pipeline.GateResult{Admitted: true}
}

// IsPolicyDomainQuery reports whether the query text is eligible for policy
// answering. Rejection signals take precedence over the allowlist: a query
// containing both is refused.
func IsPolicyDomainQuery(text string) bool {
	query := normalize(text)
	if query == "" {
		return false
	}

	for _, signal := range domainRejectionSignals {
		if strings.Contains(query, signal) {
			return false
		}
	}

	for _, keyword := range policyDomainKeywords {
		if strings.Contains(query, keyword) {
			return true
		}
	}

	return false
}

// normalize lowercases and trims the query for matching.
func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
