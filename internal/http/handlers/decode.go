package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/diagnosis/marketinn/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object into v. Malformed bodies come back
// as validation errors so they map to 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var (
			syntaxErr *json.SyntaxError
			typeErr   *json.UnmarshalTypeError
			maxErr    *http.MaxBytesError
		)
		switch {
		case errors.Is(err, io.EOF):
			return domain.NewValidationError("request body is required")
		case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
			return domain.NewValidationError("invalid JSON body")
		case errors.As(err, &typeErr) && typeErr.Field != "":
			return &domain.ValidationError{Fields: map[string]string{
				typeErr.Field: fmt.Sprintf("must be a %s", typeErr.Type),
			}}
		case errors.As(err, &maxErr):
			return domain.NewValidationError("request body too large")
		default:
			return domain.NewValidationError("invalid request body: %v", err)
		}
	}
	if dec.More() {
		return domain.NewValidationError("request body must contain a single JSON object")
	}
	return nil
}

func bookingIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, &domain.ValidationError{Fields: map[string]string{"id": "must be a positive integer"}}
	}
	return id, nil
}

func userIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, &domain.ValidationError{Fields: map[string]string{"id": "must be a UUID"}}
	}
	return id, nil
}

type messageResponse struct {
	Message string `json:"message"`
}
