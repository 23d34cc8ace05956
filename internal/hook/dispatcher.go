package hook

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ayusman/repsense/internal/metrics"
)

// Dispatcher fans events out to subscribed hooks, one goroutine per run.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	logger   *slog.Logger
	metrics  *metrics.Manager

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. metrics may be nil.
func NewDispatcher(manager *Manager, executor *Executor, logger *slog.Logger, m *metrics.Manager) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		manager:  manager,
		executor: executor,
		logger:   logger,
		metrics:  m,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Notify starts every hook subscribed to ev.Type and returns immediately.
// After Close it does nothing.
func (d *Dispatcher) Notify(ev Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	for _, h := range d.manager.Subscribers(ev.Type) {
		d.wg.Add(1)
		go d.run(h, ev)
	}
}

func (d *Dispatcher) run(h *Hook, ev Event) {
	defer d.wg.Done()

	resp, err := d.executor.Execute(d.ctx, h, ev)
	result := "ok"
	switch {
	case err != nil:
		result = "error"
		d.logger.Warn("hook failed", "hook", h.Manifest.Name, "event", ev.Type, "error", err)
	case !resp.Success:
		result = "rejected"
		d.logger.Warn("hook reported failure", "hook", h.Manifest.Name, "event", ev.Type, "error", resp.Error)
	default:
		d.logger.Debug("hook ran", "hook", h.Manifest.Name, "event", ev.Type, "session", ev.SessionID)
	}

	if d.metrics != nil {
		d.metrics.CounterHookRuns.WithLabelValues(h.Manifest.Name, result).Inc()
	}
}

// Wait blocks until every started hook has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close cancels running hooks and waits for them to exit.
// It is safe to call concurrently with Notify and more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
}
