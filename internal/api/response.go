package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/rigasset/internal/workflow"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(target)
}

// workflowError writes the response for an error returned by the engine.
func workflowError(w http.ResponseWriter, r *http.Request, err error) {
	var werr *workflow.Error
	if !errors.As(err, &werr) {
		slog.Error("unexpected workflow error", "path", r.URL.Path, "request_id", RequestID(r.Context()), "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	body := map[string]any{"error": werr.Message}
	status := http.StatusInternalServerError
	switch werr.Kind {
	case workflow.KindInvalidInput:
		status = http.StatusBadRequest
		if werr.Field != "" {
			body["field"] = werr.Field
		}
	case workflow.KindNotFound:
		status = http.StatusNotFound
	case workflow.KindForbidden:
		status = http.StatusForbidden
		body["required_roles"] = werr.Roles
	case workflow.KindConflict:
		status = http.StatusConflict
		if werr.Status != "" {
			body["status"] = werr.Status
		}
	default:
		slog.Error("workflow failure", "path", r.URL.Path, "request_id", RequestID(r.Context()), "error", err)
	}
	jsonResponse(w, status, body)
}
