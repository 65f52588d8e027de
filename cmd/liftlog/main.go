package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/myrjola/liftlog/internal/envstruct"
	"github.com/myrjola/liftlog/internal/errors"
	"github.com/myrjola/liftlog/internal/flightrecorder"
	"github.com/myrjola/liftlog/internal/logging"
	"github.com/myrjola/liftlog/internal/sqlite"
	"github.com/myrjola/liftlog/internal/state"
)

type application struct {
	logger *slog.Logger
	db     *sqlite.Database
	repo   *state.Repository
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	now    func() time.Time
}

type config struct {
	// SqliteURL is the URL to the SQLite database. ":memory:" gives a throwaway database.
	SqliteURL string `env:"LIFTLOG_SQLITE_URL" envDefault:"./liftlog.sqlite3"`
	// LogLevel is one of debug, info, warn or error. Logs go to stderr.
	LogLevel string `env:"LIFTLOG_LOG_LEVEL" envDefault:"info"`
	// TracesDir enables the flight recorder. Commands running for at least SlowCommandMS leave an
	// execution trace there.
	TracesDir     string `env:"LIFTLOG_TRACES_DIR" envDefault:""`
	SlowCommandMS int    `env:"LIFTLOG_SLOW_COMMAND_MS" envDefault:"1000"`
}

var errUsage = errors.NewSentinel("usage")

func run(
	ctx context.Context,
	args []string,
	stdin io.Reader,
	stdout, stderr io.Writer,
	lookupEnv func(string) (string, bool),
) (err error) {
	var cancel context.CancelFunc
	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = errors.DecoratePanic(r)
		}
	}()

	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return errors.Wrap(err, "parse log level", slog.String("level", cfg.LogLevel))
	}
	logger := logging.NewLogger(stderr, level)

	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage(stderr)
		if len(args) == 0 {
			return errUsage
		}
		return nil
	}
	name := args[0]
	cmd, ok := commandByName(name)
	if !ok {
		printUsage(stderr)
		return errors.Wrap(errUsage, "unknown command", slog.String("command", name))
	}
	ctx = logging.WithAttrs(ctx, slog.String("command", name))

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: liftlog %s %s\n\n%s\n", name, cmd.args, cmd.summary)
		fs.PrintDefaults()
	}
	handler := cmd.setup(fs)
	if err = fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return errors.Wrap(errUsage, err.Error())
	}
	if cmd.nargs >= 0 && fs.NArg() != cmd.nargs {
		fs.Usage()
		return errors.Wrap(errUsage, "wrong number of arguments",
			slog.Int("want", cmd.nargs), slog.Int("got", fs.NArg()))
	}

	if cfg.TracesDir != "" {
		var recorder *flightrecorder.Recorder
		if recorder, err = startRecorder(ctx, logger, cfg); err != nil {
			return err
		}
		defer recorder.Stop(ctx)
		start := time.Now()
		defer func() {
			if _, traceErr := recorder.CaptureIfSlow(ctx, name, time.Since(start)); traceErr != nil {
				logger.LogAttrs(ctx, slog.LevelWarn, "capture trace", errors.SlogError(traceErr))
			}
		}()
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if optimizeErr := db.Optimize(ctx); optimizeErr != nil {
			logger.LogAttrs(ctx, slog.LevelWarn, "optimize database", errors.SlogError(optimizeErr))
		}
		if closeErr := db.Close(); closeErr != nil {
			err = errors.Join(err, errors.Wrap(closeErr, "close db"))
		}
	}()

	app := &application{
		logger: logger,
		db:     db,
		repo:   state.NewRepository(db, logger),
		in:     stdin,
		out:    stdout,
		errOut: stderr,
		now:    time.Now,
	}
	start := time.Now()
	if err = handler(ctx, app, fs.Args()); err != nil {
		return errors.Wrap(err, "run command", slog.String("command", name))
	}
	logger.LogAttrs(ctx, slog.LevelDebug, "command finished", slog.Duration("duration", time.Since(start)))
	return nil
}

func startRecorder(ctx context.Context, logger *slog.Logger, cfg config) (*flightrecorder.Recorder, error) {
	recorder, err := flightrecorder.New(flightrecorder.Config{
		Logger:    logger,
		MinAge:    0,
		MaxBytes:  0,
		Directory: cfg.TracesDir,
		Threshold: time.Duration(cfg.SlowCommandMS) * time.Millisecond,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create flight recorder", slog.String("dir", cfg.TracesDir))
	}
	if err = recorder.Start(ctx); err != nil {
		return nil, errors.Wrap(err, "start flight recorder")
	}
	return recorder, nil
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: liftlog <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	width := 0
	for _, c := range commands {
		width = max(width, len(c.name))
	}
	for _, c := range commands {
		fmt.Fprintf(w, "  %s%s  %s\n", c.name, strings.Repeat(" ", width-len(c.name)), c.summary)
	}
}

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.LookupEnv); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2) //nolint:mnd // usage error
		}
		logger := logging.NewLogger(os.Stderr, slog.LevelError)
		logger.LogAttrs(ctx, slog.LevelError, "liftlog failed", errors.SlogError(err))
		os.Exit(1)
	}
}
