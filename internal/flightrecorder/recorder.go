// Package flightrecorder keeps a rolling execution trace in memory and writes it to disk when a
// command turns out to be slow.
package flightrecorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/trace"
	"time"
)

const (
	defaultMinAge   = 30 * time.Second
	defaultMaxBytes = 16 * 1024 * 1024
)

// Recorder wraps a [trace.FlightRecorder] that dumps into a traces directory.
type Recorder struct {
	logger    *slog.Logger
	fr        *trace.FlightRecorder
	dir       string
	threshold time.Duration
}

// Config configures a Recorder. Zero MinAge and MaxBytes pick the defaults.
type Config struct {
	Logger   *slog.Logger
	MinAge   time.Duration
	MaxBytes uint64
	// Directory receives the trace files. It is created when missing.
	Directory string
	// Threshold is the command duration from which a trace is kept.
	Threshold time.Duration
}

// New creates a Recorder. Call [Recorder.Start] to begin recording.
func New(cfg Config) (*Recorder, error) {
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if cfg.Directory == "" {
		return nil, errors.New("traces directory is required")
	}
	if err := os.MkdirAll(cfg.Directory, 0o700); err != nil { //nolint:mnd // owner only
		return nil, fmt.Errorf("create traces directory: %w", err)
	}

	minAge := cfg.MinAge
	if minAge == 0 {
		minAge = defaultMinAge
	}
	maxBytes := cfg.MaxBytes
	if maxBytes == 0 {
		maxBytes = defaultMaxBytes
	}

	return &Recorder{
		logger:    cfg.Logger,
		fr:        trace.NewFlightRecorder(trace.FlightRecorderConfig{MinAge: minAge, MaxBytes: maxBytes}),
		dir:       cfg.Directory,
		threshold: cfg.Threshold,
	}, nil
}

// Start begins recording.
func (r *Recorder) Start(ctx context.Context) error {
	if err := r.fr.Start(); err != nil {
		return fmt.Errorf("start flight recorder: %w", err)
	}
	r.logger.LogAttrs(ctx, slog.LevelDebug, "flight recorder started", slog.Duration("threshold", r.threshold))
	return nil
}

// Stop ends recording.
func (r *Recorder) Stop(ctx context.Context) {
	r.fr.Stop()
	r.logger.LogAttrs(ctx, slog.LevelDebug, "flight recorder stopped")
}

// CaptureIfSlow writes the recorded trace when elapsed reached the threshold and returns the file
// path, or "" when the command was fast enough.
func (r *Recorder) CaptureIfSlow(ctx context.Context, name string, elapsed time.Duration) (string, error) {
	if elapsed < r.threshold {
		return "", nil
	}
	path := filepath.Join(r.dir, fmt.Sprintf("slow-%s-%s.trace", name, time.Now().UTC().Format("20060102-150405.000")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create trace file: %w", err)
	}
	n, err := r.fr.WriteTo(f)
	if closeErr := f.Close(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("close trace file: %w", closeErr))
	}
	if err != nil {
		return "", fmt.Errorf("write trace %s: %w", path, err)
	}
	r.logger.LogAttrs(ctx, slog.LevelWarn, "captured slow command trace",
		slog.String("command", name), slog.Duration("elapsed", elapsed),
		slog.String("file", path), slog.Int64("bytes", n))
	return path, nil
}
