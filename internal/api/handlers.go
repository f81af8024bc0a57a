package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AireshBhat/nramh-lis/internal/config"
	"github.com/AireshBhat/nramh-lis/internal/supervisor"
)

// AnalyzerHandler implements the command surface spec.md §6 describes:
// fetch_config, update_config, start_service, stop_service,
// service_status, all scoped by analyzer id. Grounded on
// marmos91-dittofs/internal/controlplane/api/handlers/adapters.go's
// handler-per-resource shape (request struct, chi.URLParam, problem/JSON
// response helpers).
type AnalyzerHandler struct {
	store *config.AnalyzerConfigStore
	sup   *supervisor.Supervisor
}

// NewAnalyzerHandler constructs an AnalyzerHandler.
func NewAnalyzerHandler(store *config.AnalyzerConfigStore, sup *supervisor.Supervisor) *AnalyzerHandler {
	return &AnalyzerHandler{store: store, sup: sup}
}

// updateConfigRequest is the PUT /analyzers/{id} request body. Pointer
// fields distinguish "not sent" from "sent zero value", matching
// dittofs's UpdateAdapterRequest convention.
type updateConfigRequest struct {
	DisplayName     *string `json:"display_name,omitempty"`
	Host            *string `json:"host,omitempty"`
	Port            *int    `json:"port,omitempty"`
	TimeoutMs       int     `json:"timeout_ms,omitempty"`
	RetryAttempts   int     `json:"retry_attempts,omitempty"`
	Encoding        string  `json:"encoding,omitempty"`
	ActivateOnStart *bool   `json:"activate_on_start,omitempty"`
}

// analyzerResponse is the JSON shape returned by the config endpoints.
type analyzerResponse struct {
	ID              string `json:"id"`
	DisplayName     string `json:"display_name"`
	Model           string `json:"model"`
	Manufacturer    string `json:"manufacturer,omitempty"`
	Protocol        string `json:"protocol"`
	Host            string `json:"host,omitempty"`
	Port            int    `json:"port,omitempty"`
	ActivateOnStart bool   `json:"activate_on_start"`
	Status          string `json:"status"`
}

func toAnalyzerResponse(cfg config.AnalyzerConfig) analyzerResponse {
	return analyzerResponse{
		ID:              cfg.ID,
		DisplayName:     cfg.DisplayName,
		Model:           cfg.Model,
		Manufacturer:    cfg.Manufacturer,
		Protocol:        string(cfg.Protocol),
		Host:            cfg.Transport.Host,
		Port:            cfg.Transport.Port,
		ActivateOnStart: cfg.ActivateOnStart,
		Status:          string(cfg.Status),
	}
}

// GetConfig handles GET /analyzers/{id}.
func (h *AnalyzerHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cfg, ok, err := h.store.Get(id)
	if err != nil {
		internalServerError(w, err.Error())
		return
	}
	if !ok {
		notFound(w, "analyzer not found")
		return
	}
	writeJSONOK(w, toAnalyzerResponse(cfg))
}

// UpdateConfig handles PUT /analyzers/{id}.
func (h *AnalyzerHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cfg, ok, err := h.store.Get(id)
	if err != nil {
		internalServerError(w, err.Error())
		return
	}
	if !ok {
		notFound(w, "analyzer not found")
		return
	}

	var req updateConfigRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	updated := cfg.Clone()
	if req.DisplayName != nil {
		updated.DisplayName = *req.DisplayName
	}
	if req.Host != nil {
		updated.Transport.Host = *req.Host
	}
	if req.Port != nil {
		updated.Transport.Port = *req.Port
	}
	if req.ActivateOnStart != nil {
		updated.ActivateOnStart = *req.ActivateOnStart
	}

	if err := config.ValidateConfig(updated, req.TimeoutMs, req.RetryAttempts, req.Encoding, nil); err != nil {
		badRequest(w, err.Error())
		return
	}

	if err := h.store.Set(updated); err != nil {
		internalServerError(w, err.Error())
		return
	}
	writeJSONOK(w, toAnalyzerResponse(updated))
}

// StartService handles POST /analyzers/{id}/start.
func (h *AnalyzerHandler) StartService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.sup.StartService(id)
	switch {
	case err == nil:
		writeJSONOK(w, map[string]string{"status": "started"})
	case errors.Is(err, supervisor.ErrUnknownAnalyzer):
		notFound(w, err.Error())
	case errors.Is(err, supervisor.ErrAlreadyRunning):
		conflict(w, err.Error())
	default:
		internalServerError(w, err.Error())
	}
}

// StopService handles POST /analyzers/{id}/stop.
func (h *AnalyzerHandler) StopService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.sup.StopService(id)
	switch {
	case err == nil:
		writeJSONOK(w, map[string]string{"status": "stopped"})
	case errors.Is(err, supervisor.ErrUnknownAnalyzer):
		notFound(w, err.Error())
	case errors.Is(err, supervisor.ErrNotRunning):
		conflict(w, err.Error())
	default:
		internalServerError(w, err.Error())
	}
}

// ServiceStatus handles GET /analyzers/{id}/status.
func (h *AnalyzerHandler) ServiceStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	status, connections, err := h.sup.ServiceStatus(id)
	if errors.Is(err, supervisor.ErrUnknownAnalyzer) {
		notFound(w, err.Error())
		return
	}
	if err != nil {
		internalServerError(w, err.Error())
		return
	}
	writeJSONOK(w, map[string]any{
		"status":      string(status),
		"connections": connections,
	})
}
