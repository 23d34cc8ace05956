package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ayusman/repsense/internal/pose"
	"github.com/ayusman/repsense/internal/rep"
)

// Feeder consumes frames one at a time.
type Feeder interface {
	Feed(frame pose.Frame) (rep.Output, error)
}

// Replay pulls frames from src until it is exhausted, feeds each one and
// passes the frame and output to fn. It returns the number of frames fed.
// A nil fn discards outputs.
func Replay(ctx context.Context, src pose.Source, f Feeder, fn func(pose.Frame, rep.Output) error) (int, error) {
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("read frame %d: %w", n+1, err)
		}

		out, err := f.Feed(frame)
		if err != nil {
			return n, fmt.Errorf("feed frame %d: %w", n+1, err)
		}
		n++

		if fn != nil {
			if err := fn(frame, out); err != nil {
				return n, err
			}
		}
	}
}
