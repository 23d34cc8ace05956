package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ayusman/repsense/internal/app"
	"github.com/ayusman/repsense/internal/config"
	"github.com/ayusman/repsense/internal/hook"
	"github.com/ayusman/repsense/internal/metrics"
	"github.com/ayusman/repsense/internal/rep"
	"github.com/ayusman/repsense/internal/server"
	"github.com/ayusman/repsense/internal/session"
	"github.com/ayusman/repsense/internal/store"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (defaults apply when empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.Log)
	slog.SetDefault(log)
	log.Info("RepSense starting", "version", Version)

	if err := run(cfg, log); err != nil {
		log.Error("RepSense failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// run wires the components and serves until SIGINT, SIGTERM or a listener error.
func run(cfg *config.Config, log *slog.Logger) error {
	// Initialize the store
	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create data directory %s: %w", dir, err)
		}
	}
	st, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("initialize store %s: %w", cfg.Database.Path, err)
	}
	defer st.Close()

	// Metrics
	var (
		mm  *metrics.Manager
		reg *prometheus.Registry
	)
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		mm = metrics.NewManager(cfg.Metrics.Namespace, "", reg)
	}

	// Hooks
	hooks := hook.NewManager(cfg.Hooks.Dir)
	if err := hooks.Discover(); err != nil {
		log.Warn("hook discovery failed", "dir", hooks.HookDir(), "error", err)
	}
	for _, h := range hooks.List() {
		log.Info("hook loaded", "name", h.Manifest.Name, "dir", hooks.HookDir(), "events", h.Manifest.Events)
	}
	dispatcher := hook.NewDispatcher(hooks, hook.NewExecutor(cfg.Hooks.HookTimeout()), log, mm)
	defer dispatcher.Close()

	sessions := session.NewManager(session.Config{
		Overrides: session.EngineOverrides{
			Alpha:            cfg.Engine.Alpha,
			MinRepDurationMs: cfg.Engine.MinRepDurationMs,
			MinVisibility:    cfg.Engine.MinVisibility,
		},
		Logger:   log,
		Metrics:  mm,
		Notifier: dispatcher,
	})
	// Ending sessions fires their session_ended hooks before the dispatcher closes.
	defer func() {
		sessions.Close()
		dispatcher.Wait()
	}()

	// Live pipeline from a local pose service
	var live *app.App
	if fields := strings.Fields(cfg.Pose.Command); len(fields) > 0 {
		live = app.New(app.Config{
			Sessions:   sessions,
			OpenSource: app.CommandOpener(fields[0], fields[1:]...),
			Logger:     log,
		})
		// Validated by config.Load.
		exercise, _ := rep.ParseExercise(cfg.Pose.Exercise)
		side, _ := rep.ParseSide(cfg.Pose.Side)
		if _, err := live.Start(session.Options{Exercise: exercise, Side: side}); err != nil {
			return fmt.Errorf("start live pipeline %q: %w", cfg.Pose.Command, err)
		}
		defer func() {
			if summary, err := live.Stop(); err == nil {
				log.Info("live session summary", "reps", summary.Reps, "mean_form_score", summary.MeanFormScore)
			}
		}()
	}

	webDir := findWebDir()
	if webDir != "" {
		log.Info("serving static files", "dir", webDir)
	}

	srvCfg := server.Config{
		StaticDir: webDir,
		Store:     st,
		Sessions:  sessions,
		Metrics:   mm,
		Logger:    log,
	}
	if reg != nil {
		srvCfg.Gatherer = reg
	}
	httpSrv := &http.Server{Addr: cfg.Server.Addr, Handler: server.New(srvCfg)}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutting down", "signal", sig)
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace())
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	return nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.repsense/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	homeWebDir := filepath.Join(homeDir, ".repsense", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}
	return ""
}
