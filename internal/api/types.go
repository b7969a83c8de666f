package api

import (
	"encoding/json"
	"time"
)

// --- POST /v1/decide request/response ---

// DecideRequest is the JSON body for POST /v1/decide.
type DecideRequest struct {
	Query   string `json:"query"`
	Role    string `json:"role"`
	UserID  string `json:"user_id,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// SupportingDocumentResp is one policy excerpt backing an answer.
type SupportingDocumentResp struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// StageResp records one pipeline stage's decision.
type StageResp struct {
	Stage    string `json:"stage"`
	Admitted bool   `json:"admitted"`
}

// DecideResponse is the JSON body returned for POST /v1/decide.
type DecideResponse struct {
	Decision            string                   `json:"decision"` // "ANSWER" or "REFUSE"
	Answer              *string                  `json:"answer"`
	RefusalReason       *string                  `json:"refusal_reason"`
	ConfidenceScore     float64                  `json:"confidence_score"`
	SupportingDocuments []SupportingDocumentResp `json:"supporting_documents"`
	Stages              []StageResp              `json:"stages"`
	RequestID           string                   `json:"request_id"`
	LatencyMs           float64                  `json:"latency_ms"`
}

// --- Client CRUD ---

// CreateClientReq is the JSON body for POST /api/policygate/clients.
type CreateClientReq struct {
	Name string `json:"name"`
}

// CreateClientResp includes the plaintext API key (shown once).
type CreateClientResp struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	APIKey       string    `json:"api_key"`
	APIKeyPrefix string    `json:"api_key_prefix"`
	CreatedAt    time.Time `json:"created_at"`
}

// ClientResp is a client record without the plaintext key.
type ClientResp struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	APIKeyPrefix string    `json:"api_key_prefix"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RotateKeyResp includes the new plaintext API key (shown once).
type RotateKeyResp struct {
	APIKey       string `json:"api_key"`
	APIKeyPrefix string `json:"api_key_prefix"`
}

// --- Threshold overrides ---

// ThresholdsResp is a client's threshold override configuration.
type ThresholdsResp struct {
	ClientID        string          `json:"client_id"`
	ThresholdConfig json.RawMessage `json:"threshold_config"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// --- Decision audit ---

// DecisionResp mirrors one persisted decision event.
type DecisionResp struct {
	RequestID       string      `json:"request_id"`
	ClientID        string      `json:"client_id"`
	Role            string      `json:"role"`
	QueryPreview    string      `json:"query_preview"`
	Decision        string      `json:"decision"`
	RefusalReason   *string     `json:"refusal_reason"`
	ConfidenceScore float64     `json:"confidence_score"`
	Stages          []StageResp `json:"stages"`
	DocumentCount   uint32      `json:"document_count"`
	UserID          *string     `json:"user_id"`
	ClientTraceID   *string     `json:"client_trace_id"`
	LatencyMs       float32     `json:"latency_ms"`
	Timestamp       time.Time   `json:"timestamp"`
}

// DecisionListResp is a paginated decision listing.
type DecisionListResp struct {
	Decisions []DecisionResp `json:"decisions"`
	Total     int            `json:"total"`
	Page      int            `json:"page"`
	PageSize  int            `json:"page_size"`
}

// ErrorResp is a standard error response body.
type ErrorResp struct {
	Detail string `json:"detail"`
}
