// Package main provides a voice coach hook for macOS.
// It speaks the rep count and a short form cue via the say command.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/ayusman/repsense/internal/hook"
)

// voiceConfig is the "config" block of hook.json.
type voiceConfig struct {
	Voice string `json:"voice"`
	// PraiseAbove adds a compliment when the form score exceeds it.
	PraiseAbove int `json:"praise_above"`
}

// eventHandler builds the phrase to speak for an event.
type eventHandler func(ev hook.Event, cfg voiceConfig) string

// eventHandlers maps event types to their handler functions.
var eventHandlers = map[string]eventHandler{
	hook.EventSessionStarted: sessionStarted,
	hook.EventRepCompleted:   repCompleted,
	hook.EventSessionEnded:   sessionEnded,
}

// speak is replaced in tests.
var speak = say

func main() {
	// Read event from stdin
	var ev hook.Event
	if err := json.NewDecoder(os.Stdin).Decode(&ev); err != nil {
		writeResponse(fmt.Errorf("failed to decode event: %w", err))
		return
	}
	writeResponse(handle(ev))
}

func handle(ev hook.Event) error {
	handler, ok := eventHandlers[ev.Type]
	if !ok {
		return fmt.Errorf("unknown event: %s", ev.Type)
	}

	cfg := voiceConfig{PraiseAbove: 90}
	if len(ev.Config) > 0 {
		if err := json.Unmarshal(ev.Config, &cfg); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}

	phrase := handler(ev, cfg)
	if phrase == "" {
		return nil
	}
	if err := speak(phrase, cfg.Voice); err != nil {
		return fmt.Errorf("speak failed: %w", err)
	}
	return nil
}

func sessionStarted(ev hook.Event, _ voiceConfig) string {
	return fmt.Sprintf("Starting %s. Let's go.", exerciseName(ev.Exercise))
}

func repCompleted(ev hook.Event, cfg voiceConfig) string {
	if cfg.PraiseAbove > 0 && ev.FormScore > cfg.PraiseAbove {
		return fmt.Sprintf("%d. Great form.", ev.RepCount)
	}
	return fmt.Sprintf("%d", ev.RepCount)
}

func sessionEnded(ev hook.Event, _ voiceConfig) string {
	if ev.RepCount == 1 {
		return "Set complete. One rep."
	}
	return fmt.Sprintf("Set complete. %d reps.", ev.RepCount)
}

func exerciseName(exercise string) string {
	switch exercise {
	case "slr":
		return "straight leg raises"
	case "elbow_flexion":
		return "curls"
	case "squat":
		return "squats"
	default:
		return exercise
	}
}

// writeResponse writes the hook response to stdout.
func writeResponse(err error) {
	resp := hook.Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// say runs the macOS say command and returns any error.
func say(phrase, voice string) error {
	args := []string{phrase}
	if voice != "" {
		args = []string{"-v", voice, phrase}
	}
	output, err := exec.Command("say", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
