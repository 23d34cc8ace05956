package pose

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Source delivers frames from a pose-detection service in timestamp order.
type Source interface {
	// Next returns the next frame. It returns io.EOF when the stream is exhausted.
	Next(ctx context.Context) (Frame, error)

	// Close releases any resources held by the source.
	Close() error
}

// maxLineBytes bounds a single JSONL frame; 33 landmarks fit in well under 8 KiB.
const maxLineBytes = 1 << 20

// JSONLSource reads one JSON-encoded Frame per line.
// Blank lines and lines starting with '#' are skipped.
type JSONLSource struct {
	r       io.Reader
	scanner *bufio.Scanner
	line    int
}

// NewJSONLSource creates a JSONLSource reading from r.
// If r implements io.Closer it is closed by Close.
func NewJSONLSource(r io.Reader) *JSONLSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &JSONLSource{
		r:       r,
		scanner: scanner,
	}
}

// Next implements Source.
func (s *JSONLSource) Next(ctx context.Context) (Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return Frame{}, fmt.Errorf("read line %d: %w", s.line+1, err)
			}
			return Frame{}, io.EOF
		}
		s.line++

		text := strings.TrimSpace(s.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		frame, err := DecodeFrame([]byte(text))
		if err != nil {
			return Frame{}, fmt.Errorf("line %d: %w", s.line, err)
		}
		return frame, nil
	}
}

// Close implements Source.
func (s *JSONLSource) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// DecodeFrame parses a single JSON frame.
func DecodeFrame(data []byte) (Frame, error) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return Frame{}, fmt.Errorf("parse frame: %w", err)
	}
	if frame.TimestampMs < 0 {
		return Frame{}, fmt.Errorf("parse frame: negative timestamp %d", frame.TimestampMs)
	}
	return frame, nil
}
