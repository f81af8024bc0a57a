// Package api implements the command HTTP surface (spec.md §6, C11):
// fetch/update analyzer config, start/stop/status. Grounded on
// marmos91-dittofs/internal/controlplane/api/handlers/problem.go's RFC
// 7807 problem-response helpers and pkg/controlplane/api/router.go's
// chi middleware stack (request ID, recoverer, timeout, a custom
// logging middleware) — trimmed of dittofs's JWT/RBAC layer since
// spec.md §1 names no authentication requirement for this surface.
package api

import (
	"encoding/json"
	"net/http"
)

// Problem is an RFC 7807 problem-details response body.
type Problem struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

const contentTypeProblemJSON = "application/problem+json"

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", contentTypeProblemJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{Type: "about:blank", Title: title, Status: status, Detail: detail})
}

func badRequest(w http.ResponseWriter, detail string) {
	writeProblem(w, http.StatusBadRequest, "Bad Request", detail)
}

func notFound(w http.ResponseWriter, detail string) {
	writeProblem(w, http.StatusNotFound, "Not Found", detail)
}

func conflict(w http.ResponseWriter, detail string) {
	writeProblem(w, http.StatusConflict, "Conflict", detail)
}

func internalServerError(w http.ResponseWriter, detail string) {
	writeProblem(w, http.StatusInternalServerError, "Internal Server Error", detail)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeJSONOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, data)
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "invalid request body")
		return false
	}
	return true
}
