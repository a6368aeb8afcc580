// Package api provides HTTP handlers for the course RAG API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "Course Materials RAG System"

// defaultMaxRequestBodySize is the default maximum allowed request body size (1MB).
const defaultMaxRequestBodySize = 1 << 20

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "status", status, "error", err)
	}
}

// Error writes a JSON error response carrying a detail field.
func Error(w http.ResponseWriter, status int, detail string) {
	JSON(w, status, map[string]string{"detail": detail})
}
