package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmelero/compra/internal/ops"
	"github.com/dmelero/compra/internal/sheet"
)

// errorResponse is the wire shape of every failed request.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// successResponse is the wire shape of every successful mutation.
type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write json response", "err", err)
	}
}

// writeError writes the structured error body.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, errorResponse{Error: message, Details: details})
}

// respondError maps the error taxonomy to HTTP statuses: validation errors
// are 400s naming the missing field, configuration errors are 500s with a
// fixed message, and anything else is an upstream store failure reported as
// a 500 with the upstream message attached for diagnostics.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ops.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Message, "")
		return
	}

	var cerr *sheet.ConfigurationError
	if errors.As(err, &cerr) {
		logFor(r.Context()).Error("configuration error", "err", err)
		writeError(w, http.StatusInternalServerError, "Server configuration error.", cerr.Error())
		return
	}

	logFor(r.Context()).Error("api error", "err", err)
	writeError(w, http.StatusInternalServerError, "An API error occurred.", err.Error())
}
