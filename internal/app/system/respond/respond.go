// internal/app/system/respond/respond.go
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aloria/backoffice/internal/app/system/apierr"
	"go.uber.org/zap"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Detail string            `json:"detail"`
	Kind   string            `json:"kind"`
	Fields map[string]string `json:"fields,omitempty"`
}

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes v with 200.
func OK(w http.ResponseWriter, v any) { JSON(w, http.StatusOK, v) }

// Created writes v with 201.
func Created(w http.ResponseWriter, v any) { JSON(w, http.StatusCreated, v) }

// StatusFor maps an error kind to its HTTP status.
// State conflicts are reported as 400 to keep one client-error class for
// "the request cannot be applied to the record as it stands".
func StatusFor(k apierr.Kind) int {
	switch k {
	case apierr.KindValidation, apierr.KindConflict:
		return http.StatusBadRequest
	case apierr.KindUnauthorized:
		return http.StatusUnauthorized
	case apierr.KindForbidden:
		return http.StatusForbidden
	case apierr.KindNotFound:
		return http.StatusNotFound
	case apierr.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as a JSON error response. Internal errors are logged
// with their cause and answered with a generic message.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var body errorBody
	kind := apierr.KindOf(err)
	status := StatusFor(kind)

	var e *apierr.Error
	if kind != apierr.KindInternal && errors.As(err, &e) {
		body = errorBody{Detail: e.Message, Kind: kind.String(), Fields: e.Fields}
	} else {
		if log != nil {
			log.Error("request failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Error(err))
		}
		body = errorBody{Detail: "internal error", Kind: apierr.KindInternal.String()}
	}
	JSON(w, status, body)
}

// Detail writes a plain error with the given status and message.
func Detail(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"detail": msg})
}
