package main

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ayusman/repsense/internal/hook"
)

func stubSpeak(t *testing.T, err error) *[]string {
	t.Helper()
	var spoken []string
	orig := speak
	speak = func(phrase, voice string) error {
		spoken = append(spoken, voice+": "+phrase)
		return err
	}
	t.Cleanup(func() { speak = orig })
	return &spoken
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name string
		ev   hook.Event
		want string
	}{
		{
			name: "session started",
			ev:   hook.Event{Type: hook.EventSessionStarted, Exercise: "elbow_flexion"},
			want: ": Starting curls. Let's go.",
		},
		{
			name: "plain rep",
			ev:   hook.Event{Type: hook.EventRepCompleted, RepCount: 3, FormScore: 75},
			want: ": 3",
		},
		{
			name: "good rep",
			ev:   hook.Event{Type: hook.EventRepCompleted, RepCount: 4, FormScore: 97},
			want: ": 4. Great form.",
		},
		{
			name: "configured voice",
			ev: hook.Event{
				Type:     hook.EventRepCompleted,
				RepCount: 1,
				Config:   json.RawMessage(`{"voice":"Daniel","praise_above":100}`),
			},
			want: "Daniel: 1",
		},
		{
			name: "session ended",
			ev:   hook.Event{Type: hook.EventSessionEnded, RepCount: 1},
			want: ": Set complete. One rep.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spoken := stubSpeak(t, nil)

			if err := handle(tt.ev); err != nil {
				t.Fatalf("handle() error = %v", err)
			}
			if len(*spoken) != 1 || (*spoken)[0] != tt.want {
				t.Errorf("spoken = %q, want %q", *spoken, tt.want)
			}
		})
	}
}

func TestHandle_Errors(t *testing.T) {
	t.Run("unknown event", func(t *testing.T) {
		stubSpeak(t, nil)
		if err := handle(hook.Event{Type: "bogus"}); err == nil {
			t.Error("expected error for unknown event")
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		stubSpeak(t, nil)
		ev := hook.Event{Type: hook.EventRepCompleted, Config: json.RawMessage(`[1]`)}
		if err := handle(ev); err == nil {
			t.Error("expected error for invalid config")
		}
	})

	t.Run("speech failure", func(t *testing.T) {
		boom := errors.New("no audio")
		stubSpeak(t, boom)
		err := handle(hook.Event{Type: hook.EventRepCompleted, RepCount: 1})
		if !errors.Is(err, boom) {
			t.Errorf("handle() error = %v, want %v", err, boom)
		}
	})
}
