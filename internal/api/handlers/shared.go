package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/api/response"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/apperrors"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/codec"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/validation"
)

// portfolioParam is the query parameter carrying the shareable portfolio code.
const portfolioParam = "portfolio"

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data any) {
	response.RespondJSON(w, status, data)
}

// errorStatus maps a service error to its HTTP status and response details.
// Validation and decode errors are the caller's fault; oracle failures keep
// their own status so clients can tell "unknown symbol" from "try later".
func errorStatus(err error) (int, any) {
	var vErr *validation.Error
	var dErr *codec.DecodeError

	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest, vErr.Fields
	case errors.As(err, &dErr):
		return http.StatusBadRequest, dErr
	case errors.Is(err, apperrors.ErrSymbolNotFound), errors.Is(err, apperrors.ErrNoPriceForDate):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, apperrors.ErrRateLimited):
		return http.StatusTooManyRequests, err.Error()
	case errors.Is(err, apperrors.ErrPriceUnavailable):
		return http.StatusServiceUnavailable, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

// respondServiceError writes err as a structured error response. op is the
// user-facing message of the failed operation.
func respondServiceError(w http.ResponseWriter, r *http.Request, op error, err error) {
	status, details := errorStatus(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("operation", op.Error()).Msg("Request failed")
	}
	response.RespondError(w, status, op.Error(), details)
}
