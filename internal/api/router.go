package api

import (
	"net/http"
	"time"

	"github.com/veritia-ai/policygate/internal/audit"
	"github.com/veritia-ai/policygate/internal/pipeline"
	"github.com/veritia-ai/policygate/internal/store"
	"go.uber.org/zap"
)

// Dependencies holds shared state injected into all HTTP handlers.
type Dependencies struct {
	Store    *store.Store
	Pipeline *pipeline.Pipeline
	Writer   audit.Writer
	Reader   *audit.Reader // nil if ClickHouse unavailable
	Logger   *zap.Logger
	CacheTTL time.Duration
}

// NewRouter builds the HTTP mux with all routes wired up.
func NewRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	// Decide endpoint (auth required via Bearer pgk_ token)
	mux.HandleFunc("POST /v1/decide", deps.authMiddleware(deps.handleDecide))

	// Client CRUD (no auth — dashboard auth added later)
	mux.HandleFunc("POST /api/policygate/clients", deps.handleCreateClient)
	mux.HandleFunc("GET /api/policygate/clients", deps.handleListClients)
	mux.HandleFunc("GET /api/policygate/clients/{client_id}", deps.handleGetClient)
	mux.HandleFunc("POST /api/policygate/clients/{client_id}/rotate-key", deps.handleRotateKey)

	// Threshold overrides (no auth)
	mux.HandleFunc("GET /api/policygate/clients/{client_id}/thresholds", deps.handleGetThresholds)
	mux.HandleFunc("PUT /api/policygate/clients/{client_id}/thresholds", deps.handleUpdateThresholds)

	// Decision audit & analytics (no auth)
	mux.HandleFunc("GET /api/policygate/decisions", deps.handleListDecisions)
	mux.HandleFunc("GET /api/policygate/decisions/{request_id}", deps.handleGetDecision)
	mux.HandleFunc("GET /api/policygate/analytics", deps.handleGetAnalytics)

	// Health check
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return corsMiddleware(requestLogging(mux, deps.Logger))
}
