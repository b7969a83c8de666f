// Package audit persists one event per pipeline invocation, so operators
// can reconstruct why any query was answered or refused.
package audit

import "time"

// Writer is the interface for writing decision events.
// Write() must NEVER block the caller.
type Writer interface {
	Write(event *DecisionEvent)
	Close()
}

// DecisionEvent represents a single pipeline decision to be persisted.
type DecisionEvent struct {
	RequestID       string
	ClientID        string
	Timestamp       time.Time
	Role            string
	QueryPreview    string // first 500 chars
	QueryHash       string // SHA256 of the full query
	QuerySize       uint32
	Outcome         string // "ANSWER" or "REFUSE"
	RefusalReason   string
	ConfidenceScore float64
	StageNames      []string
	StageAdmitted   []bool
	DocumentCount   uint32
	UserID          string
	ClientTraceID   string
	LatencyMs       float32
}

// QueryPreviewLength is the max chars stored in query_preview.
const QueryPreviewLength = 500

// TruncateQuery returns the first N characters (runes) of a query for
// preview storage. It never splits a multi-byte UTF-8 character.
func TruncateQuery(query string, maxLen int) string {
	runes := []rune(query)
	if len(runes) <= maxLen {
		return query
	}
	return string(runes[:maxLen])
}
