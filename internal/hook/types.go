// Package hook discovers external executables and notifies them about workout events.
package hook

import (
	"encoding/json"
	"slices"
	"time"
)

// Event types a hook can subscribe to.
const (
	EventSessionStarted = "session_started"
	EventRepCompleted   = "rep_completed"
	EventSessionEnded   = "session_ended"
)

// Manifest describes a hook's metadata and the events it wants.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Events      []string        `json:"events"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Event is written as JSON to the hook's stdin.
type Event struct {
	Type      string          `json:"event"`
	SessionID string          `json:"session_id"`
	Exercise  string          `json:"exercise"`
	Side      string          `json:"side"`
	RepCount  int             `json:"rep_count"`
	FormScore int             `json:"form_score,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Config    json.RawMessage `json:"config,omitempty"`
	Time      time.Time       `json:"time"`
}

// Response is what a hook prints on stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Wants reports whether the hook subscribed to the event type.
// A manifest without events receives only rep_completed.
func (h *Hook) Wants(eventType string) bool {
	if len(h.Manifest.Events) == 0 {
		return eventType == EventRepCompleted
	}
	return slices.Contains(h.Manifest.Events, eventType)
}
