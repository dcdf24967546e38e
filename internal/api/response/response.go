package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/edvin/unihub/internal/core"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse acknowledges an operation that returns no resource.
type SuccessResponse struct {
	Success bool `json:"success"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// WriteSuccess writes {"success":true}.
func WriteSuccess(w http.ResponseWriter) {
	WriteJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// WriteInternalError logs err with the request logger and writes a generic 500.
func WriteInternalError(w http.ResponseWriter, r *http.Request, err error) {
	zerolog.Ctx(r.Context()).Error().Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("internal error")
	WriteError(w, http.StatusInternalServerError, "Internal Server Error")
}

// WriteServiceError maps a service error to a status code. Unrecognised
// errors are logged and hidden behind a 500.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		WriteError(w, http.StatusBadRequest, ve.Message)
	case errors.Is(err, core.ErrNotFound):
		WriteError(w, http.StatusNotFound, message(err, core.ErrNotFound, "Not Found", " not found"))
	case errors.Is(err, core.ErrConflict):
		WriteError(w, http.StatusConflict, message(err, core.ErrConflict, "Conflict", ""))
	case errors.Is(err, core.ErrForbidden):
		WriteError(w, http.StatusForbidden, message(err, core.ErrForbidden, "Forbidden", ""))
	case errors.Is(err, core.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, core.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "Unauthorized")
	default:
		WriteInternalError(w, r, err)
	}
}

// message strips the trailing sentinel from a wrapped error so clients see
// "contact abc not found" rather than "contact abc: not found".
func message(err, sentinel error, fallback, suffix string) string {
	msg := strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
	if msg == "" || msg == err.Error() {
		return fallback
	}
	return msg + suffix
}
