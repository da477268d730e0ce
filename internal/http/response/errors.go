package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/diagnosis/marketinn/internal/domain"
	"github.com/diagnosis/marketinn/pkg/logger"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
	ID     string            `json:"id,omitempty"`
}

// Common error codes
const (
	CodeInvalidInput  = "INVALID_INPUT"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeNotFound      = "NOT_FOUND"
	CodeRateLimit     = "RATE_LIMIT_EXCEEDED"
	CodeInternalError = "INTERNAL_ERROR"
	CodeEmailExists   = "EMAIL_EXISTS"
)

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	JSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// FromError maps a service error onto the HTTP error contract. Unknown errors
// are logged and reported without detail.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *domain.ValidationError
		nf   *domain.NotFoundError
		pub  *domain.PublicError
	)
	switch {
	case errors.As(err, &verr):
		msg := verr.Message
		if msg == "" {
			msg = "validation failed"
		}
		JSON(w, http.StatusBadRequest, ErrorResponse{Error: msg, Code: CodeInvalidInput, Fields: verr.Fields})
	case errors.Is(err, domain.ErrConflict):
		WriteError(w, http.StatusBadRequest, "email already in use", CodeEmailExists)
	case errors.Is(err, domain.ErrUnauthorized):
		msg := "authentication required"
		if errors.As(err, &pub) {
			msg = pub.Msg
		}
		Unauthorized(w, msg)
	case errors.Is(err, domain.ErrForbidden):
		msg := "insufficient permissions"
		if errors.As(err, &pub) {
			msg = pub.Msg
		}
		Forbidden(w, msg)
	case errors.As(err, &nf):
		JSON(w, http.StatusNotFound, ErrorResponse{Error: nf.Resource + " not found", Code: CodeNotFound, ID: nf.ID})
	case errors.Is(err, domain.ErrNotFound):
		NotFound(w, "not found")
	default:
		logger.ErrorContext(r.Context(), "Request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
		)
		InternalError(w, "internal server error")
	}
}

// Convenience functions for common errors
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message, CodeForbidden)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}

func RateLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message, CodeRateLimit)
}
