// Command repsense-replay runs recorded or live pose frames through a rep
// detector and prints one output line per frame followed by the session summary.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ayusman/repsense/internal/pose"
	"github.com/ayusman/repsense/internal/rep"
	"github.com/ayusman/repsense/internal/session"
	"github.com/ayusman/repsense/internal/store"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("repsense-replay", flag.ContinueOnError)
	fs.SetOutput(stderr)
	exercise := fs.String("exercise", "squat", "exercise to count (squat, slr, elbow_flexion)")
	side := fs.String("side", "left", "body side to track (left, right)")
	input := fs.String("in", "-", "JSONL frame file, - for stdin")
	command := fs.String("cmd", "", "pose-service command producing JSONL frames (overrides -in)")
	dbPath := fs.String("db", "", "profile database (with -profile)")
	profile := fs.String("profile", "", "name of a stored tuning profile")
	alpha := fs.Float64("alpha", 0, "smoothing factor override (0 keeps the default)")
	quiet := fs.Bool("quiet", false, "print only the summary")
	verbose := fs.Bool("v", false, "log rep events to stderr")
	version := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *version {
		fmt.Fprintln(stdout, "repsense-replay", Version)
		return nil
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	opts, err := sessionOptions(*exercise, *side, *dbPath, *profile)
	if err != nil {
		return err
	}

	src, err := openSource(*command, *input, stdin)
	if err != nil {
		return err
	}
	defer src.Close()

	sessions := session.NewManager(session.Config{
		Overrides: session.EngineOverrides{Alpha: *alpha},
		Logger:    log,
	})
	sess, err := sessions.Create(opts)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	var emit func(pose.Frame, rep.Output) error
	if !*quiet {
		emit = func(_ pose.Frame, out rep.Output) error {
			return enc.Encode(out)
		}
	}

	n, err := session.Replay(ctx, src, sess, emit)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("replay finished", "frames", n)

	summary, err := sessions.Delete(sess.ID())
	if err != nil {
		return err
	}
	return enc.Encode(struct {
		Summary session.Summary `json:"summary"`
	}{summary})
}

func sessionOptions(exercise, side, dbPath, profile string) (session.Options, error) {
	if profile == "" {
		ex, err := rep.ParseExercise(exercise)
		if err != nil {
			return session.Options{}, err
		}
		sd, err := rep.ParseSide(side)
		if err != nil {
			return session.Options{}, err
		}
		return session.Options{Exercise: ex, Side: sd}, nil
	}

	if dbPath == "" {
		return session.Options{}, errors.New("-profile requires -db")
	}
	st, err := store.New(dbPath)
	if err != nil {
		return session.Options{}, err
	}
	defer st.Close()

	p, err := st.Profiles().GetByName(profile)
	if err != nil {
		return session.Options{}, fmt.Errorf("profile %q: %w", profile, err)
	}
	cfg := p.Config
	return session.Options{Config: &cfg, ProfileID: p.ID}, nil
}

func openSource(command, input string, stdin io.Reader) (pose.Source, error) {
	if fields := strings.Fields(command); len(fields) > 0 {
		return pose.NewCommandSource(fields[0], fields[1:]...)
	}
	if input == "-" {
		return pose.NewJSONLSource(io.NopCloser(stdin)), nil
	}
	f, err := os.Open(input)
	if err != nil {
		return nil, err
	}
	return pose.NewJSONLSource(f), nil
}
