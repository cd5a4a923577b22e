package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/logger"
)

type errorResponse struct {
	Error       string   `json:"error"`
	Code        string   `json:"code"`
	Field       string   `json:"field,omitempty"`
	Conflicting []string `json:"conflicting,omitempty"`
}

// statusFor maps a domain error onto an HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrOverlap):
		return http.StatusConflict, "overlap"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, domain.ErrSettlement):
		return http.StatusBadGateway, "settlement_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	body := errorResponse{Error: err.Error(), Code: code}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		body.Field = ve.Field
	}
	var oe *domain.OverlapError
	if errors.As(err, &oe) {
		for _, id := range oe.Conflicting {
			body.Conflicting = append(body.Conflicting, id.String())
		}
	}
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		body.Error = "internal error"
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}
