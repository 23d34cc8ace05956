package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ayusman/repsense/internal/rep"
	"github.com/ayusman/repsense/internal/session"
	"github.com/ayusman/repsense/internal/store"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"session not found", session.ErrNotFound, http.StatusNotFound},
		{"profile not found", store.ErrNotFound, http.StatusNotFound},
		{"duplicate profile", fmt.Errorf("%w: name", store.ErrDuplicate), http.StatusConflict},
		{"closed session", session.ErrClosed, http.StatusGone},
		{"unknown exercise", fmt.Errorf("resolve: %w", rep.ErrUnknownExercise), http.StatusBadRequest},
		{"invalid config", rep.ErrInvalidConfig, http.StatusBadRequest},
		{"invalid scope", session.ErrInvalidScope, http.StatusBadRequest},
		{"anything else", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusBadRequest, "bad frame")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var body errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "bad frame" {
		t.Errorf("error = %q, want %q", body.Error, "bad frame")
	}
}

func TestSessionHandler_FrameTooLarge(t *testing.T) {
	sessions := session.NewManager(session.Config{})
	s, err := sessions.Create(session.Options{Exercise: rep.Squat})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	router := NewSessionHandler(sessions, nil, nil).Routes()
	body := strings.NewReader(`{"landmarks": [` + strings.Repeat(" ", maxBodyBytes) + `]}`)
	req := httptest.NewRequest(http.MethodPost, "/"+s.ID()+"/frames", body)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusRequestEntityTooLarge)
	}
	if s.Info().Frames != 0 {
		t.Error("oversized frame must not reach the detector")
	}
}

func TestSessionHandler_ProfileWithoutStore(t *testing.T) {
	router := NewSessionHandler(session.NewManager(session.Config{}), nil, nil).Routes()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"profile_id": "p1"}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
