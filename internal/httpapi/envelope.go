package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/fixline/admin-api/internal/apperr"
	"github.com/fixline/admin-api/internal/obs"
)

// envelope is the uniform response shape every endpoint serializes through.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

func writeCreated(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusCreated, envelope{Success: true, Message: message, Data: data})
}

// writeError is the single taxonomy-to-status mapping. Unrecognized errors
// default to an internal failure; internal causes are logged, never
// serialized.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	message := "internal server error"
	switch {
	case errors.Is(err, apperr.ErrValidation):
		code, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperr.ErrAuth):
		code, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, apperr.ErrForbidden):
		code, message = http.StatusForbidden, err.Error()
	case errors.Is(err, apperr.ErrConflict):
		code, message = http.StatusConflict, err.Error()
	case errors.Is(err, apperr.ErrNotFound):
		code, message = http.StatusNotFound, err.Error()
	default:
		obs.LogError("request failed", err, map[string]any{
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": RequestIDFromContext(r.Context()),
		})
	}
	writeJSON(w, code, envelope{Success: false, Message: message})
}

func writeValidationError(w http.ResponseWriter, r *http.Request, msg string) {
	writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: msg})
}

// decodeJSON parses one strict JSON document from the request body. Body
// size is capped upstream by the MaxBodyBytes middleware.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}
