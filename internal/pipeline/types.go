package pipeline

// Outcome represents the final decision for a query.
type Outcome int

const (
	OutcomeRefuse Outcome = iota + 1
	OutcomeAnswer
)

// String returns the wire-format outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeAnswer:
		return "ANSWER"
	case OutcomeRefuse:
		return "REFUSE"
	default:
		return "UNSPECIFIED"
	}
}

// Role identifies the class of user asking the question.
type Role int

const (
	RoleUnknown Role = iota
	RoleEmployee
	RolePreJoiningCandidate
)

// String returns the lowercase role name.
func (r Role) String() string {
	switch r {
	case RoleEmployee:
		return "employee"
	case RolePreJoiningCandidate:
		return "pre_joining_candidate"
	default:
		return "unknown"
	}
}

// ParseRole maps a role string from the HTTP API to a Role.
// Unrecognized values return RoleUnknown.
func ParseRole(s string) Role {
	switch s {
	case "employee":
		return RoleEmployee
	case "pre_joining_candidate":
		return RolePreJoiningCandidate
	default:
		return RoleUnknown
	}
}

// Query is a single user question plus the asker's role.
type Query struct {
	Text string
	Role Role
}

// RetrievedDocument is one policy excerpt returned by the retrieval backend.
type RetrievedDocument struct {
	Text  string
	Score float64 // similarity, 0.0 – 1.0
}

// EvidenceSet holds the retrieved documents and their derived sufficiency.
type EvidenceSet struct {
	Documents     []RetrievedDocument
	EvidenceScore float64 // mean of all returned scores
	Sufficient    bool
}

// GenerationStatus classifies the generation backend's output.
type GenerationStatus int

const (
	StatusInsufficientEvidence GenerationStatus = iota + 1
	StatusGenerated
)

// String returns the audit-log status name.
func (s GenerationStatus) String() string {
	switch s {
	case StatusGenerated:
		return "GENERATED"
	case StatusInsufficientEvidence:
		return "INSUFFICIENT_EVIDENCE"
	default:
		return "UNSPECIFIED"
	}
}

// GenerationResult is the classified output of the generation backend.
type GenerationResult struct {
	AnswerText    string // empty unless Status == StatusGenerated
	UsedDocuments []RetrievedDocument
	Status        GenerationStatus
}

// VerificationResult is the grounding verifier's decision for an answer.
type VerificationResult struct {
	Outcome         Outcome
	ConfidenceScore float64
	RefusalReason   string // empty when Outcome == OutcomeAnswer
}

// StageTrace records one pipeline stage's decision, for auditability.
type StageTrace struct {
	Stage    string
	Admitted bool
}

// Decision is the final record returned to the caller.
type Decision struct {
	Outcome             Outcome
	Answer              string // empty on REFUSE
	RefusalReason       string // empty on ANSWER
	ConfidenceScore     float64
	SupportingDocuments []RetrievedDocument // nil on REFUSE
	Stages              []StageTrace
}
