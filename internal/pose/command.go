package pose

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// CommandSource reads frames from an external pose-service process.
// The process writes one JSON frame per line to stdout; it is started lazily
// on the first call to Next. Next must not be called concurrently.
type CommandSource struct {
	name    string
	args    []string
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	lines   *JSONLSource
	mu      sync.Mutex
	started bool
	closed  bool
}

// NewCommandSource creates a CommandSource for the given executable and arguments.
// A bare name that is not on PATH is looked up with FindPoseService.
func NewCommandSource(name string, args ...string) (*CommandSource, error) {
	if name == "" {
		return nil, errors.New("pose service command is empty")
	}
	if _, err := exec.LookPath(name); err != nil {
		script := ""
		if !strings.ContainsRune(name, filepath.Separator) {
			script = FindPoseService(name)
		}
		if script == "" {
			return nil, fmt.Errorf("pose service %q: %w", name, err)
		}
		if _, err := exec.LookPath(script); err != nil {
			return nil, fmt.Errorf("pose service %q: %w", script, err)
		}
		name = script
	}

	return &CommandSource{
		name: name,
		args: args,
	}, nil
}

// Next implements Source.
func (s *CommandSource) Next(ctx context.Context) (Frame, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Frame{}, io.EOF
	}
	if err := s.ensureStarted(); err != nil {
		s.mu.Unlock()
		return Frame{}, err
	}
	lines := s.lines
	s.mu.Unlock()

	// Read without the lock so Close can interrupt a blocked read.
	return lines.Next(ctx)
}

// Close stops the pose-service process.
func (s *CommandSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.shutdown()
}

func (s *CommandSource) ensureStarted() error {
	if s.started {
		return nil
	}

	s.cmd = exec.Command(s.name, s.args...)

	stdout, err := s.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Capture stderr for debugging
	s.cmd.Stderr = os.Stderr

	if err := s.cmd.Start(); err != nil {
		return fmt.Errorf("start pose service: %w", err)
	}

	s.stdout = stdout
	s.lines = NewJSONLSource(stdout)
	s.started = true

	return nil
}

func (s *CommandSource) shutdown() error {
	if !s.started {
		return nil
	}

	if s.cmd.Process != nil {
		s.cmd.Process.Signal(os.Interrupt)
	}
	s.stdout.Close()

	err := s.cmd.Wait()
	s.started = false
	s.cmd = nil
	s.stdout = nil
	s.lines = nil

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Interrupted on purpose.
		return nil
	}
	return err
}

// FindPoseService looks for a pose-service script in the usual install locations.
// It checks ./scripts, ../scripts, the executable's directory and ~/.repsense/scripts.
// Returns an empty string if none is found.
func FindPoseService(script string) string {
	candidates := []string{
		filepath.Join("scripts", script),
		filepath.Join("..", "scripts", script),
	}
	if execPath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), "scripts", script))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".repsense", "scripts", script))
	}

	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}
