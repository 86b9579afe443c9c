// Package apperr defines the error taxonomy shared by every service layer.
// Callers classify failures with errors.Is against these sentinels; the HTTP
// layer owns the mapping to status codes.
package apperr

import "errors"

var (
	ErrValidation = errors.New("validation failed")
	ErrAuth       = errors.New("unauthorized")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("resource conflict")
	ErrNotFound   = errors.New("not found")
	ErrInternal   = errors.New("internal error")
)
