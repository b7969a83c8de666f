package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/veritia-ai/policygate/internal/audit"
	"go.uber.org/zap"
)

// handleListDecisions implements GET /api/policygate/decisions.
// Requires a client_id query parameter; supports outcome/role/user_id and
// time-range filters plus pagination.
func (d *Dependencies) handleListDecisions(w http.ResponseWriter, r *http.Request) {
	if d.Reader == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResp{Detail: "Decision history not available"})
		return
	}

	q := r.URL.Query()
	clientID := q.Get("client_id")
	if clientID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "client_id is required"})
		return
	}

	params := audit.ListDecisionsParams{
		ClientID: clientID,
		Page:     1,
		PageSize: 50,
	}
	if v := q.Get("outcome"); v != "" {
		params.Outcome = &v
	}
	if v := q.Get("role"); v != "" {
		params.Role = &v
	}
	if v := q.Get("user_id"); v != "" {
		params.UserID = &v
	}
	if v := q.Get("start_time"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "start_time must be RFC3339"})
			return
		}
		params.StartTime = &t
	}
	if v := q.Get("end_time"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "end_time must be RFC3339"})
			return
		}
		params.EndTime = &t
	}
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			params.Page = n
		}
	}
	if v := q.Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			params.PageSize = n
		}
	}

	decisions, total, err := d.Reader.ListDecisions(r.Context(), params)
	if err != nil {
		d.Logger.Error("failed to list decisions", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to list decisions"})
		return
	}

	resp := DecisionListResp{
		Decisions: make([]DecisionResp, 0, len(decisions)),
		Total:     total,
		Page:      params.Page,
		PageSize:  params.PageSize,
	}
	for i := range decisions {
		resp.Decisions = append(resp.Decisions, decisionToResp(&decisions[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetDecision implements GET /api/policygate/decisions/{request_id}.
func (d *Dependencies) handleGetDecision(w http.ResponseWriter, r *http.Request) {
	if d.Reader == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResp{Detail: "Decision history not available"})
		return
	}

	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "client_id is required"})
		return
	}
	requestID := r.PathValue("request_id")

	row, err := d.Reader.GetDecision(r.Context(), clientID, requestID)
	if err != nil {
		d.Logger.Error("failed to get decision", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to get decision"})
		return
	}
	if row == nil {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Decision not found."})
		return
	}
	writeJSON(w, http.StatusOK, decisionToResp(row))
}

// handleGetAnalytics implements GET /api/policygate/analytics.
func (d *Dependencies) handleGetAnalytics(w http.ResponseWriter, r *http.Request) {
	if d.Reader == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResp{Detail: "Analytics not available"})
		return
	}

	q := r.URL.Query()
	clientID := q.Get("client_id")
	if clientID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "client_id is required"})
		return
	}

	days := 7
	if v := q.Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 90 {
			days = n
		}
	}

	result, err := d.Reader.GetAnalytics(r.Context(), clientID, days)
	if err != nil {
		d.Logger.Error("failed to get analytics", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to get analytics"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func decisionToResp(row *audit.DecisionRow) DecisionResp {
	var reason, userID, traceID *string
	if row.RefusalReason != "" {
		reason = &row.RefusalReason
	}
	if row.UserID != "" {
		userID = &row.UserID
	}
	if row.ClientTraceID != "" {
		traceID = &row.ClientTraceID
	}

	stages := make([]StageResp, 0, len(row.StageNames))
	for i, name := range row.StageNames {
		admitted := i < len(row.StageAdmitted) && row.StageAdmitted[i] == 1
		stages = append(stages, StageResp{Stage: name, Admitted: admitted})
	}

	return DecisionResp{
		RequestID:       row.RequestID,
		ClientID:        row.ClientID,
		Role:            row.Role,
		QueryPreview:    row.QueryPreview,
		Decision:        row.Outcome,
		RefusalReason:   reason,
		ConfidenceScore: row.ConfidenceScore,
		Stages:          stages,
		DocumentCount:   row.DocumentCount,
		UserID:          userID,
		ClientTraceID:   traceID,
		LatencyMs:       row.LatencyMs,
		Timestamp:       row.Timestamp,
	}
}
