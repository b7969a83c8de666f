package api

import (
	"encoding/json"
	"net/http"

	"github.com/veritia-ai/policygate/internal/pipeline"
	"github.com/veritia-ai/policygate/internal/store"
	"go.uber.org/zap"
)

func (d *Dependencies) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var req CreateClientReq
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if req.Name == "" || len(req.Name) > 255 {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "name must be 1-255 characters"})
		return
	}

	client, plainKey, err := d.Store.CreateClient(r.Context(), req.Name)
	if err != nil {
		d.Logger.Error("failed to create client", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to create client"})
		return
	}

	writeJSON(w, http.StatusCreated, CreateClientResp{
		ID:           client.ID,
		Name:         client.Name,
		APIKey:       plainKey,
		APIKeyPrefix: client.APIKeyPrefix,
		CreatedAt:    client.CreatedAt,
	})
}

func (d *Dependencies) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := d.Store.ListClients(r.Context())
	if err != nil {
		d.Logger.Error("failed to list clients", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to list clients"})
		return
	}

	resp := make([]ClientResp, 0, len(clients))
	for _, c := range clients {
		resp = append(resp, clientToResp(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (d *Dependencies) handleGetClient(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("client_id")
	client, err := d.Store.GetClient(r.Context(), id)
	if err != nil {
		d.Logger.Error("failed to get client", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to get client"})
		return
	}
	if client == nil {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Client not found."})
		return
	}
	writeJSON(w, http.StatusOK, clientToResp(client))
}

func (d *Dependencies) handleRotateKey(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("client_id")
	plainKey, prefix, err := d.Store.RotateKey(r.Context(), id)
	if err != nil {
		d.Logger.Error("failed to rotate key", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to rotate key"})
		return
	}
	if plainKey == "" {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Client not found."})
		return
	}
	writeJSON(w, http.StatusOK, RotateKeyResp{
		APIKey:       plainKey,
		APIKeyPrefix: prefix,
	})
}

func (d *Dependencies) handleGetThresholds(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("client_id")
	client, err := d.Store.GetClient(r.Context(), id)
	if err != nil {
		d.Logger.Error("failed to get thresholds", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to get thresholds"})
		return
	}
	if client == nil {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Client not found."})
		return
	}
	writeJSON(w, http.StatusOK, ThresholdsResp{
		ClientID:        client.ID,
		ThresholdConfig: client.ThresholdConfig,
		UpdatedAt:       client.UpdatedAt,
	})
}

func (d *Dependencies) handleUpdateThresholds(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("client_id")

	var config json.RawMessage
	if err := readJSON(r, &config); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}

	// Reject configs that don't parse as threshold overrides.
	if len(config) > 0 && string(config) != "null" {
		var overrides pipeline.ThresholdOverrides
		if err := json.Unmarshal(config, &overrides); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid threshold config"})
			return
		}
	}

	client, err := d.Store.UpdateThresholds(r.Context(), id, config)
	if err != nil {
		d.Logger.Error("failed to update thresholds", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to update thresholds"})
		return
	}
	if client == nil {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Client not found."})
		return
	}
	writeJSON(w, http.StatusOK, ThresholdsResp{
		ClientID:        client.ID,
		ThresholdConfig: client.ThresholdConfig,
		UpdatedAt:       client.UpdatedAt,
	})
}

func clientToResp(c *store.Client) ClientResp {
	return ClientResp{
		ID:           c.ID,
		Name:         c.Name,
		APIKeyPrefix: c.APIKeyPrefix,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
