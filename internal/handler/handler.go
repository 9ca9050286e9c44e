package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"ironware/internal/model"

	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Warn().Str("code", code).Int("status", status).Msg(message)
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeServiceError translates a service error into an HTTP response.
// Domain errors map to a status by code; anything else is an opaque 500.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var de *model.DomainError
	if !errors.As(err, &de) {
		logger.Error().Err(err).Msg("internal error")
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			Error:   model.ErrCodeInternalError,
			Message: "internal server error",
		})
		return
	}

	resp := model.ErrorResponse{Error: de.Code, Message: de.Message}
	if de.Code == model.ErrCodeInsufficientStock {
		available := de.Available
		resp.Available = &available
	}

	status := statusForCode(de.Code)
	logger.Warn().Str("code", de.Code).Int("status", status).Msg(de.Message)
	writeJSON(w, status, resp)
}

func statusForCode(code string) int {
	switch code {
	case model.ErrCodeProductNotFound,
		model.ErrCodeVariantNotFound,
		model.ErrCodeCartItemNotFound,
		model.ErrCodeCouponNotFound,
		model.ErrCodeOrderNotFound:
		return http.StatusNotFound
	case model.ErrCodeInsufficientStock,
		model.ErrCodeStockEntryExists,
		model.ErrCodeOrderUnexpectedState:
		return http.StatusConflict
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

// queryInt reads an integer query parameter, falling back on absence or
// garbage.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
