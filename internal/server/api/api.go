// Package api provides HTTP API handlers for profiles and sessions.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ayusman/repsense/internal/rep"
	"github.com/ayusman/repsense/internal/session"
	"github.com/ayusman/repsense/internal/store"
)

// maxBodyBytes bounds request bodies; a 33-landmark frame is a few KiB.
const maxBodyBytes = 1 << 20

const timeFormat = "2006-01-02T15:04:05Z07:00"

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// decodeJSON decodes a size-limited request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, session.ErrClosed):
		return http.StatusGone
	case errors.Is(err, rep.ErrUnknownExercise),
		errors.Is(err, rep.ErrInvalidConfig),
		errors.Is(err, session.ErrInvalidScope):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func formatTime(t time.Time) string {
	return t.Format(timeFormat)
}
