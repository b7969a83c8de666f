package api

import (
	"crypto/sha256"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/veritia-ai/policygate/internal/audit"
	"github.com/veritia-ai/policygate/internal/pipeline"
	"go.uber.org/zap"
)

// handleDecide implements POST /v1/decide.
// Auth middleware has already validated the Bearer token and injected the client.
func (d *Dependencies) handleDecide(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req DecideRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}

	client := clientFromContext(r.Context())
	if client == nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "missing client context"})
		return
	}

	query := pipeline.Query{
		Text: req.Query,
		Role: pipeline.ParseRole(req.Role),
	}

	decision, err := d.Pipeline.HandleQuery(r.Context(), query, client.Thresholds)
	if err != nil {
		// Backend failure — distinct from a policy refusal, so operators can
		// tell "policy says no" apart from "system is broken".
		d.Logger.Error("pipeline backend failure", zap.Error(err))
		switch {
		case errors.Is(err, pipeline.ErrRetrievalUnavailable):
			writeJSON(w, http.StatusBadGateway, ErrorResp{Detail: "retrieval backend unavailable"})
		case errors.Is(err, pipeline.ErrGenerationUnavailable):
			writeJSON(w, http.StatusBadGateway, ErrorResp{Detail: "generation backend unavailable"})
		default:
			writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "failed to evaluate policy"})
		}
		return
	}

	requestID := uuid.New().String()
	latencyMs := float64(time.Since(start)) / float64(time.Millisecond)

	// Fire-and-forget: write decision event to ClickHouse
	d.writeDecisionEvent(req, client.ID, requestID, decision, float32(latencyMs))

	writeJSON(w, http.StatusOK, buildDecideResponse(decision, requestID, latencyMs))
}

// buildDecideResponse maps a pipeline decision to the wire format.
func buildDecideResponse(decision *pipeline.Decision, requestID string, latencyMs float64) DecideResponse {
	var answer, reason *string
	if decision.Outcome == pipeline.OutcomeAnswer {
		a := decision.Answer
		answer = &a
	}
	if decision.RefusalReason != "" {
		rr := decision.RefusalReason
		reason = &rr
	}

	var docs []SupportingDocumentResp
	if decision.SupportingDocuments != nil {
		docs = make([]SupportingDocumentResp, 0, len(decision.SupportingDocuments))
		for _, doc := range decision.SupportingDocuments {
			docs = append(docs, SupportingDocumentResp{Text: doc.Text, Score: doc.Score})
		}
	}

	stages := make([]StageResp, 0, len(decision.Stages))
	for _, s := range decision.Stages {
		stages = append(stages, StageResp{Stage: s.Stage, Admitted: s.Admitted})
	}

	return DecideResponse{
		Decision:            decision.Outcome.String(),
		Answer:              answer,
		RefusalReason:       reason,
		ConfidenceScore:     decision.ConfidenceScore,
		SupportingDocuments: docs,
		Stages:              stages,
		RequestID:           requestID,
		LatencyMs:           latencyMs,
	}
}

// writeDecisionEvent builds a DecisionEvent and fires it to the async writer.
func (d *Dependencies) writeDecisionEvent(
	req DecideRequest,
	clientID, requestID string,
	decision *pipeline.Decision,
	latencyMs float32,
) {
	names := make([]string, len(decision.Stages))
	admitted := make([]bool, len(decision.Stages))
	for i, s := range decision.Stages {
		names[i] = s.Stage
		admitted[i] = s.Admitted
	}

	hashBytes := sha256.Sum256([]byte(req.Query))

	event := &audit.DecisionEvent{
		RequestID:       requestID,
		ClientID:        clientID,
		Timestamp:       time.Now(),
		Role:            req.Role,
		QueryPreview:    audit.TruncateQuery(req.Query, audit.QueryPreviewLength),
		QueryHash:       string(hashBytes[:]),
		QuerySize:       uint32(len(req.Query)),
		Outcome:         decision.Outcome.String(),
		RefusalReason:   decision.RefusalReason,
		ConfidenceScore: decision.ConfidenceScore,
		StageNames:      names,
		StageAdmitted:   admitted,
		DocumentCount:   uint32(len(decision.SupportingDocuments)),
		UserID:          req.UserID,
		ClientTraceID:   req.TraceID,
		LatencyMs:       latencyMs,
	}

	d.Writer.Write(event)
}
