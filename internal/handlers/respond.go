package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// errorBody is the JSON shape of every rejection sent before a stream opens.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func httpError(w http.ResponseWriter, logger *slog.Logger, code int, msg, details string) {
	if code >= http.StatusInternalServerError {
		logger.Error("HTTP Error", "code", code, "message", msg, "details", details)
	} else {
		logger.Warn("HTTP Error", "code", code, "message", msg, "details", details)
	}
	writeJSON(w, logger, code, errorBody{Error: msg, Details: details})
}
