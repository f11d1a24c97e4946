package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// errorBody is the single error shape every endpoint returns.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// respondJSON writes data as JSON with the given status.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes {"error": message} and, when non-empty, details.
func respondError(w http.ResponseWriter, status int, message, details string) {
	respondJSON(w, status, errorBody{Error: message, Details: details})
}
