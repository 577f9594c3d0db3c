// Package handler contains the HTTP layer: request parsing, calls into the
// service layer, and response/error writing. No business rules live here.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/bookshelf/internal/apperror"
)

// ErrorResponse is the single error shape every endpoint returns:
// {"error": "<message>"} with an HTTP status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON sends a JSON response with the given status code. Headers must
// be set before the first body write, hence the ordering here.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already gone; logging is all that's left.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error onto an HTTP status and the standard
// error body. This is the only place that translation happens:
//
//	ErrValidation   → 400
//	ErrUnauthorized → 401
//	ErrNotFound     → 404 (also covers "not yours" — no existence leaks)
//	ErrConflict     → 409
//	anything else   → 500 with a generic message
//
// errors.Is walks the wrap chain, so services can annotate errors with
// fmt.Errorf("...: %w", err) freely.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
		}

		writeJSON(w, status, ErrorResponse{Error: appErr.Message})
		return
	}

	// Unknown error. The raw message might contain SQL or file paths —
	// never expose it to the client.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// decodeJSON reads the request body into dst, turning malformed JSON into
// a validation error.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "request body is not valid JSON")
	}
	return nil
}
