package gates

import (
	"testing"

	"github.com/veritia-ai/policygate/internal/pipeline"
)

func TestAccessGate_PublicTopics(t *testing.T) {
	tests := []struct {
		name  string
		query string
		role  pipeline.Role
	}{
		{"employee leave", "What is the leave policy?", pipeline.RoleEmployee},
		{"candidate probation", "How long is the probation period?", pipeline.RolePreJoiningCandidate},
		{"candidate onboarding", "What are the onboarding steps?", pipeline.RolePreJoiningCandidate},
		{"candidate joining documents", "Which joining documents are required?", pipeline.RolePreJoiningCandidate},
		{"employee work hours", "What are the standard work hours?", pipeline.RoleEmployee},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !IsRoleAuthorized(tt.query, tt.role) {
				t.Errorf("expected authorized for role=%s query: %s", tt.role, tt.query)
			}
		})
	}
}

func TestAccessGate_Rejected(t *testing.T) {
	tests := []struct {
		name  string
		query string
		role  pipeline.Role
	}{
		{"empty query", "", pipeline.RoleEmployee},
		{"whitespace query", "  ", pipeline.RolePreJoiningCandidate},
		{"unknown role", "What is the leave policy?", pipeline.RoleUnknown},
		{"no public topic", "What is the cafeteria menu?", pipeline.RoleEmployee},
		{"candidate vpn", "What is the VPN access policy?", pipeline.RolePreJoiningCandidate},
		{"candidate appraisal", "When does the appraisal cycle start?", pipeline.RolePreJoiningCandidate},
		{"candidate salary structure", "Explain the salary structure bands", pipeline.RolePreJoiningCandidate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if IsRoleAuthorized(tt.query, tt.role) {
				t.Errorf("expected unauthorized for role=%s query: %s", tt.role, tt.query)
			}
		})
	}
}

// A candidate query touching an employee-only topic is rejected even when it
// also contains a public topic.
func TestAccessGate_EmployeeOnlyPrecedence(t *testing.T) {
	query := "probation and performance review"

	if IsRoleAuthorized(query, pipeline.RolePreJoiningCandidate) {
		t.Fatal("expected candidate to be rejected on employee-only topic")
	}
	// The same query is fine for an employee.
	if !IsRoleAuthorized(query, pipeline.RoleEmployee) {
		t.Fatal("expected employee to be authorized")
	}
}

func TestAccessGate_Admit(t *testing.T) {
	g := NewAccessGate()

	result := g.Admit(pipeline.Query{Text: "What is the VPN access policy?", Role: pipeline.RolePreJoiningCandidate})
	if result.Admitted {
		t.Fatal("expected refusal")
	}
	if result.Reason != "User not authorized for this policy query" {
		t.Errorf("unexpected reason: %s", result.Reason)
	}
}
