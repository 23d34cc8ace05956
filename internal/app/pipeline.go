package app

import (
	"context"
	"errors"
	"io"

	"github.com/ayusman/repsense/internal/session"
)

// runPipeline reads frames until the source is exhausted, fails or the
// pipeline is cancelled. Paused frames are read and dropped so the pose
// service never blocks on a full pipe.
func (a *App) runPipeline(ctx context.Context, p *pipeline) {
	defer close(p.done)

	for {
		frame, err := p.source.Next(ctx)
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, io.EOF) {
			a.log.Info("pose stream ended", "session", p.session.ID(), "frames", p.frames)
			return
		}
		if err != nil {
			p.err = err
			a.log.Error("pose stream failed", "session", p.session.ID(), "error", err)
			return
		}

		if !a.IsEnabled() {
			continue
		}

		if _, err := p.session.Feed(frame); err != nil {
			if !errors.Is(err, session.ErrClosed) {
				p.err = err
				a.log.Error("feed failed", "session", p.session.ID(), "error", err)
			}
			return
		}
		p.frames++
	}
}
