package gates

import (
	"strings"

	"github.com/veritia-ai/policygate/internal/pipeline"
)

// Topics restricted to internal employees only.
var employeeOnlyTopics = []string{
	"disciplinary action",
	"internal investigation",
	"performance review",
	"appraisal",
	"salary structure",
	"internal reimbursement",
	"it access",
	"system access",
	"vpn",
	"internal policy",
	"escalation process",
}

// Topics safe for all roles, including pre-joining candidates.
var publicPolicyTopics = []string{
	"leave",
	"vacation",
	"probation",
	"notice period",
	"work hours",
	"code of conduct",
	"benefits",
	"insurance",
	"onboarding",
	"joining documents",
}

const accessRefusalReason = "User not authorized for this policy query"

// AccessGate enforces role-based access to policy topics. It re-derives topic
// scope independently of DomainGate: a query the domain gate admitted can
// still be refused here, so both gates always run.
type AccessGate struct{}

func NewAccessGate() *AccessGate {
	return &AccessGate{}
}

func (g *AccessGate) Name() string {
	return "access"
}

func (g *AccessGate) Admit(q pipeline.Query) pipeline.GateResult {
	if !IsRoleAuthorized(q.Text, q.Role) {
		return pipeline.GateResult{Reason: accessRefusalReason}
	}
	return pipeline.GateResult{Admitted: true}
}

// IsRoleAuthorized reports whether the given role may receive an answer on
// this topic. Pre-joining candidates are refused on any employee-only topic
// regardless of other matches; everyone needs at least one public topic hit.
func IsRoleAuthorized(text string, role pipeline.Role) bool {
	query := normalize(text)
	if query == "" {
		return false
	}

	if role != pipeline.RoleEmployee && role != pipeline.RolePreJoiningCandidate {
		return false
	}

	if role == pipeline.RolePreJoiningCandidate {
		for _, topic := range employeeOnlyTopics {
			if strings.Contains(query, topic) {
				return false
			}
		}
	}

	for _, topic := range publicPolicyTopics {
		if strings.Contains(query, topic) {
			return true
		}
	}

	return false
}
