package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sundayezeilo/engagebot/internal/errx"
)

// ErrorResponse represents a JSON error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// HealthResponse is the body of a passing health check.
type HealthResponse struct {
	Status  string `json:"status"`
	Env     string `json:"env,omitempty"`
	Storage string `json:"storage"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent.
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, code, message string, details any) {
	WriteJSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
		Details: details,
	})
}

// WriteKindError writes err using the status and code of its errx kind and
// returns the status sent.
func WriteKindError(w http.ResponseWriter, err error, message string, details any) int {
	kind := errx.KindOf(err)
	status := ErrorKindToStatus(kind)
	WriteError(w, status, ErrorKindToCode(kind), message, details)
	return status
}

// WriteHealthy writes a 200 health response for the named storage backend.
func WriteHealthy(w http.ResponseWriter, env, storage string) {
	WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok", Env: env, Storage: storage})
}
