package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/triplink-app/triplink-api/internal/app/accounts"
	"github.com/triplink-app/triplink-api/internal/app/events"
	"github.com/triplink-app/triplink-api/internal/app/trips"
)

type errorResponse struct {
	Result    bool           `json:"result"`
	Code      string         `json:"code"`
	Error     string         `json:"error"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details map[string]any) {
	resp := errorResponse{
		Code:    code,
		Error:   message,
		Details: details,
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		resp.RequestID = rid
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeAppError maps application-layer errors onto the response envelope.
// Anything that is not a typed app error is reported as an opaque 500.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	if ae := (*accounts.Error)(nil); errors.As(err, &ae) {
		writeError(w, r, ae.Status, ae.Code, ae.Message, ae.Details)
		return
	}
	if ae := (*trips.Error)(nil); errors.As(err, &ae) {
		writeError(w, r, ae.Status, ae.Code, ae.Message, ae.Details)
		return
	}
	if ae := (*events.Error)(nil); errors.As(err, &ae) {
		writeError(w, r, ae.Status, ae.Code, ae.Message, ae.Details)
		return
	}
	writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
