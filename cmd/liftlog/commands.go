package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/myrjola/liftlog/internal/errors"
	"github.com/myrjola/liftlog/internal/plates"
	"github.com/myrjola/liftlog/internal/report"
	"github.com/myrjola/liftlog/internal/schedule"
	"github.com/myrjola/liftlog/internal/state"
	"github.com/myrjola/liftlog/internal/workout"
)

type handlerFunc func(ctx context.Context, app *application, args []string) error

type command struct {
	name    string
	args    string
	summary string
	nargs   int
	// setup registers the command's flags and returns the handler reading them.
	setup func(fs *flag.FlagSet) handlerFunc
}

var errNoSession = errors.NewSentinel("no active session")

var commands = []command{
	{name: "today", args: "[-date YYYY-MM-DD] [-html]", summary: "Show the workout scheduled for a day.", nargs: 0, setup: todayCmd},
	{name: "suggest", args: "<exercise-id>", summary: "Suggest the next load for an exercise.", nargs: 1, setup: suggestCmd},
	{name: "plates", args: "[-bar 45] <total> | -counts 45:1,10:1", summary: "Convert between barbell totals and plates.", nargs: -1, setup: platesCmd},
	{name: "start", args: "[-date YYYY-MM-DD] [-workout id]", summary: "Start a session of the scheduled workout.", nargs: 0, setup: startCmd},
	{name: "log", args: "-exercise id -clean n [-dirty n] [-weight w | -plates 45:1] [-drop set-id]", summary: "Log a set in the active session.", nargs: 0, setup: logCmd},
	{name: "edit-set", args: "[-clean n] [-dirty n] [-notes text] <set-id>", summary: "Correct the reps or notes of a logged set.", nargs: 1, setup: editSetCmd},
	{name: "finish", args: "[-session id]", summary: "Complete a session.", nargs: 0, setup: closeCmd(state.CompleteSession)},
	{name: "skip", args: "[-session id]", summary: "Skip a session.", nargs: 0, setup: closeCmd(state.SkipSession)},
	{name: "export", args: "[-o file]", summary: "Write the whole document as JSON.", nargs: 0, setup: exportCmd},
	{name: "import", args: "<file|->", summary: "Replace the document, backing up the current one.", nargs: 1, setup: importCmd},
	{name: "export-split", args: "[-o file]", summary: "Write the weekly split as JSON.", nargs: 0, setup: exportSplitCmd},
	{name: "import-split", args: "<file|->", summary: "Replace the weekly split.", nargs: 1, setup: importSplitCmd},
	{name: "add-workout", args: "-name text [-exercises a,b]", summary: "Add a workout to the library.", nargs: 0, setup: addWorkoutCmd},
	{name: "delete-workout", args: "<workout-id>", summary: "Delete a workout and clear its day slots.", nargs: 1, setup: deleteWorkoutCmd},
	{name: "add-week", args: "[-id id] [-name text]", summary: "Add an all-rest week to the split.", nargs: 0, setup: addWeekCmd},
	{name: "duplicate-week", args: "[-id id] [-name text] <week-id>", summary: "Copy a week.", nargs: 1, setup: duplicateWeekCmd},
	{name: "delete-week", args: "<week-id>", summary: "Delete a week. The last week cannot be deleted.", nargs: 1, setup: planCmd(schedule.DeleteWeek)},
	{name: "activate-week", args: "<week-id>", summary: "Make a week the active one.", nargs: 1, setup: planCmd(schedule.SetActiveWeek)},
	{name: "assign", args: "-week id -day Monday [-workout id]", summary: "Assign a workout to a day, or rest without -workout.", nargs: 0, setup: assignCmd},
	{name: "query", args: "[-max-rows 100] <sql>", summary: "Run a read-only SQL query against the database.", nargs: 1, setup: queryCmd},
	{name: "backup", args: "<path>", summary: "Copy the database file.", nargs: 1, setup: backupCmd},
	{name: "backups", args: "", summary: "List the document backups.", nargs: 0, setup: backupsCmd},
	{name: "restore", args: "<backup-id>", summary: "Restore a document backup.", nargs: 1, setup: restoreCmd},
}

func commandByName(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false //nolint:exhaustruct // not found
}

// parseDate returns now on the given calendar date, or now itself when s is empty.
func parseDate(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now, nil
	}
	d, err := time.ParseInLocation(time.DateOnly, s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(),
		now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), now.Location()), nil
}

func todayCmd(fs *flag.FlagSet) handlerFunc {
	date := fs.String("date", "", "calendar date, defaults to today")
	html := fs.Bool("html", false, "render HTML instead of Markdown")
	return func(ctx context.Context, app *application, _ []string) error {
		day, err := parseDate(*date, app.now())
		if err != nil {
			return err
		}
		doc, err := app.repo.Load(ctx)
		if err != nil {
			return errors.Wrap(err, "load document")
		}
		plan := doc.Today(day)
		if !*html {
			fmt.Fprint(app.out, report.Markdown(plan))
			return nil
		}
		page, err := report.HTML(plan)
		if err != nil {
			return errors.Wrap(err, "render html")
		}
		fmt.Fprint(app.out, page)
		return nil
	}
}

func suggestCmd(_ *flag.FlagSet) handlerFunc {
	return func(ctx context.Context, app *application, args []string) error {
		doc, err := app.repo.Load(ctx)
		if err != nil {
			return errors.Wrap(err, "load document")
		}
		id := args[0]
		if _, ok := doc.Exercise(id); !ok {
			return errors.Wrap(state.ErrNotFound, "unknown exercise", slog.String("exercise", id))
		}
		s, ok := doc.Suggest(id)
		if !ok {
			fmt.Fprintf(app.out, "%s: no history yet\n", doc.ExerciseName(id))
			return nil
		}
		fmt.Fprintf(app.out, "%s: %s %s -> %s\n", doc.ExerciseName(id), s.Action,
			workout.FormatWeight(s.CurrentWeight), workout.FormatWeight(s.NextWeight))
		fmt.Fprintln(app.out, s.Assessment)
		fmt.Fprintln(app.out, s.Goal)
		if s.NextPlates != nil {
			fmt.Fprintf(app.out, "plates per side: %s\n", s.NextPlates)
		}
		if s.UnloadedPerSide > 0 {
			fmt.Fprintf(app.out, "not loadable per side: %s\n", workout.FormatWeight(s.UnloadedPerSide))
		}
		return nil
	}
}

func platesCmd(fs *flag.FlagSet) handlerFunc {
	bar := fs.Float64("bar", workout.DefaultBarWeight, "bar weight")
	counts := fs.String("counts", "", "per-side plates such as 45:1,10:1, prints the total")
	return func(_ context.Context, app *application, args []string) error {
		if *counts != "" {
			if len(args) != 0 {
				return errors.Wrap(errUsage, "pass either -counts or a total")
			}
			c, err := plates.ParseCounts(*counts)
			if err != nil {
				return errors.Wrap(errUsage, err.Error())
			}
			fmt.Fprintf(app.out, "%s\n", workout.FormatWeight(plates.TotalFromPerSide(c, *bar)))
			return nil
		}
		if len(args) != 1 {
			return errors.Wrap(errUsage, "expected a total weight")
		}
		total, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return errors.Wrap(errUsage, "parse total", slog.String("total", args[0]))
		}
		c, rest := plates.Decompose((total - *bar) / 2) //nolint:mnd // two sides
		fmt.Fprintf(app.out, "per side: %s\n", c)
		if rest > 0 {
			fmt.Fprintf(app.out, "not loadable per side: %s\n", workout.FormatWeight(rest))
		}
		return nil
	}
}

func startCmd(fs *flag.FlagSet) handlerFunc {
	date := fs.String("date", "", "calendar date, defaults to today")
	workoutID := fs.String("workout", "", "workout to start instead of the scheduled one")
	return func(ctx context.Context, app *application, _ []string) error {
		day, err := parseDate(*date, app.now())
		if err != nil {
			return err
		}
		var started state.Session
		_, err = app.repo.Update(ctx, func(doc state.Document) (state.Document, error) {
			id := *workoutID
			if id == "" {
				res := doc.Today(day).Resolution
				if res.Workout == nil {
					return doc, fmt.Errorf("no workout scheduled on %s, pass -workout: %w", state.DateOf(day), state.ErrNotFound)
				}
				id = res.WorkoutID
			}
			var (
				out      state.Document
				startErr error
			)
			out, started, startErr = state.StartSession(doc, id, day)
			return out, startErr
		})
		if err != nil {
			return errors.Wrap(err, "start session")
		}
		app.logger.LogAttrs(ctx, slog.LevelInfo, "started session",
			slog.String("session", started.ID), slog.String("workout", started.WorkoutID))
		fmt.Fprintln(app.out, started.ID)
		return nil
	}
}

// sessionOrActive returns id, or the active session's id when id is empty.
func sessionOrActive(doc state.Document, id string) (string, error) {
	if id != "" {
		return id, nil
	}
	s, ok := doc.ActiveSession()
	if !ok {
		return "", errNoSession
	}
	return s.ID, nil
}

func logCmd(fs *flag.FlagSet) handlerFunc {
	sessionID := fs.String("session", "", "session to log into, defaults to the active one")
	exerciseID := fs.String("exercise", "", "exercise id")
	clean := fs.Int("clean", 0, "clean reps")
	dirty := fs.Int("dirty", 0, "dirty reps")
	var weight *float64
	fs.Func("weight", "scalar load, per hand for dumbbells", func(s string) error {
		w, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parse weight: %w", err)
		}
		weight = &w
		return nil
	})
	plateFlag := fs.String("plates", "", "per-side barbell plates such as 45:1,10:1")
	drop := fs.String("drop", "", "log a drop set following this set id")
	notes := fs.String("notes", "", "free text")
	return func(ctx context.Context, app *application, _ []string) error {
		if *exerciseID == "" {
			return errors.Wrap(errUsage, "-exercise is required")
		}
		set := workout.SetEntry{ //nolint:exhaustruct // ids and timestamps are assigned by LogSet
			ExerciseID: *exerciseID,
			CleanReps:  *clean,
			DirtyReps:  *dirty,
			Weight:     weight,
			Kind:       workout.SetKindNormal,
			Notes:      *notes,
		}
		if *plateFlag != "" {
			c, err := plates.ParseCounts(*plateFlag)
			if err != nil {
				return errors.Wrap(errUsage, err.Error())
			}
			set.Plates = &c
		}
		if *drop != "" {
			set.Kind = workout.SetKindDrop
			set.ParentSetID = *drop
		}

		var logged workout.SetEntry
		_, err := app.repo.Update(ctx, func(doc state.Document) (state.Document, error) {
			id, err := sessionOrActive(doc, *sessionID)
			if err != nil {
				return doc, err
			}
			var out state.Document
			out, logged, err = state.LogSet(doc, id, set, app.now())
			return out, err
		})
		if err != nil {
			return errors.Wrap(err, "log set", slog.String("exercise", *exerciseID))
		}
		fmt.Fprintln(app.out, logged.ID)
		return nil
	}
}

func editSetCmd(fs *flag.FlagSet) handlerFunc {
	var edit state.SetEdit
	fs.Func("clean", "clean reps", intFlag(&edit.CleanReps))
	fs.Func("dirty", "dirty reps", intFlag(&edit.DirtyReps))
	fs.Func("notes", "free text, empty clears", func(s string) error {
		edit.Notes = &s
		return nil
	})
	return func(ctx context.Context, app *application, args []string) error {
		_, err := app.repo.Update(ctx, func(doc state.Document) (state.Document, error) {
			out, _, err := state.EditSet(doc, args[0], edit)
			return out, err
		})
		if err != nil {
			return errors.Wrap(err, "edit set", slog.String("set", args[0]))
		}
		return nil
	}
}

func intFlag(dst **int) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("parse int: %w", err)
		}
		*dst = &n
		return nil
	}
}

func closeCmd(
	closeFn func(doc state.Document, sessionID string, now time.Time) (state.Document, error),
) func(fs *flag.FlagSet) handlerFunc {
	return func(fs *flag.FlagSet) handlerFunc {
		sessionID := fs.String("session", "", "session to close, defaults to the active one")
		return func(ctx context.Context, app *application, _ []string) error {
			var closed string
			_, err := app.repo.Update(ctx, func(doc state.Document) (state.Document, error) {
				id, err := sessionOrActive(doc, *sessionID)
				if err != nil {
					return doc, err
				}
				closed = id
				return closeFn(doc, id, app.now())
			})
			if err != nil {
				return errors.Wrap(err, "close session")
			}
			app.logger.LogAttrs(ctx, slog.LevelInfo, "closed session", slog.String("session", closed))
			return nil
		}
	}
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(app *application, path string, data []byte) error {
	if path == "" {
		_, err := app.out.Write(append(data, '\n'))
		return err //nolint:wrapcheck // stdout
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil { //nolint:mnd // owner only
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// readInput reads path, or stdin when path is "-".
func readInput(app *application, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(app.in)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func exportCmd(fs *flag.FlagSet) handlerFunc {
	output := fs.String("o", "", "output file, defaults to stdout")
	return func(ctx context.Context, app *application, _ []string) error {
		doc, err := app.repo.Load(ctx)
		if err != nil {
			return errors.Wrap(err, "load document")
		}
		data, err := state.Encode(doc)
		if err != nil {
			return errors.Wrap(err, "encode document")
		}
		return writeOutput(app, *output, data)
	}
}

func importCmd(_ *flag.FlagSet) handlerFunc {
	return func(ctx context.Context, app *application, args []string) error {
		data, err := readInput(app, args[0])
		if err != nil {
			return err
		}
		doc, err := state.Decode(data)
		if err != nil {
			return errors.Wrap(err, "decode document")
		}
		if err = doc.ValidateLoads(); err != nil {
			return errors.Wrap(err, "validate document")
		}
		if err = app.repo.Replace(ctx, doc, "import"); err != nil {
			return errors.Wrap(err, "replace document")
		}
		app.logger.LogAttrs(ctx, slog.LevelInfo, "imported document",
			slog.Int("exercises", len(doc.Exercises)), slog.Int("sessions", len(doc.Sessions)))
		return nil
	}
}

func exportSplitCmd(fs *flag.FlagSet) handlerFunc {
	output := fs.String("o", "", "output file, defaults to stdout")
	return func(ctx context.Context, app *application, _ []string) error {
		doc, err := app.repo.Load(ctx)
		if err != nil {
			return errors.Wrap(err, "load document")
		}
		data, err := schedule.ExportSplit(doc.Plan)
		if err != nil {
			return errors.Wrap(err, "export split")
		}
		return writeOutput(app, *output, data)
	}
}

func importSplitCmd(_ *flag.FlagSet) handlerFunc {
	return func(ctx context.Context, app *application, args []string) error {
		data, err := readInput(app, args[0])
		if err != nil {
			return err
		}
		_, err = app.repo.Update(ctx, func(doc state.Document) (state.Document, error) {
			return state.UpdatePlan(doc, func(p schedule.Plan) (schedule.Plan, error) {
				return schedule.ImportSplit(p, data)
			})
		})
		if err != nil {
			return errors.Wrap(err, "import split")
		}
		return nil
	}
}

func addWorkoutCmd(fs *flag.FlagSet) handlerFunc {
	name := fs.String("name", "", "workout name")
	exercises := fs.String("exercises", "", "comma separated exercise ids")
	return func(ctx context.Context, app *application, _ []string) error {
		var ids []string
		for id := range strings.SplitSeq(*exercises, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		var added schedule.Workout
		_, err := app.repo.Update(ctx, func(doc state.Document) (state.Document, error) {
			var (
				out state.Document
				err error
			)
			out, added, err = state.AddWorkout(doc, *name, ids)
			return out, err
		})
		if err != nil {
			return errors.Wrap(err, "add workout")
		}
		fmt.Fprintln(app.out, added.ID)
		return nil
	}
}

func deleteWorkoutCmd(_ *flag.FlagSet) handlerFunc {
	return func(ctx context.Context, app *application, args []string) error {
		_, err := app.repo.Update(ctx, func(doc state.Document) (state.Document, error) {
			return state.UpdatePlan(doc, func(p schedule.Plan) (schedule.Plan, error) {
				return schedule.DeleteWorkout(p, args[0])
			})
		})
		if err != nil {
			return errors.Wrap(err, "delete workout", slog.String("workout", args[0]))
		}
		return nil
	}
}

// planCmd adapts a plan mutation taking a single id argument.
func planCmd(fn func(plan schedule.Plan, id string) (schedule.Plan, error)) func(*flag.FlagSet) handlerFunc {
	return func(_ *flag.FlagSet) handlerFunc {
		return func(ctx context.Context, app *application, args []string) error {
			_, err := app.repo.Update(ctx, func(doc state.Document) (state.Document, error) {
				return state.UpdatePlan(doc, func(p schedule.Plan) (schedule.Plan, error) {
					return fn(p, args[0])
				})
			})
			if err != nil {
				return errors.Wrap(err, "update plan", slog.String("id", args[0]))
			}
			return nil
		}
	}
}

func addWeekCmd(fs *flag.FlagSet) handlerFunc {
	id := fs.String("id", "", "week id, generated when empty")
	name := fs.String("name", "", "week name")
	return func(ctx context.Context, app *application, _ []string) error {
		var added string
		_, err := app.repo.Update(ctx, func(doc state.Document) (state.Document, error) {
			return state.UpdatePlan(doc, func(p schedule.Plan) (schedule.Plan, error) {
				var err error
				p, added, err = schedule.AddWeek(p, *id, *name)
				return p, err
			})
		})
		if err != nil {
			return errors.Wrap(err, "add week")
		}
		fmt.Fprintln(app.out, added)
		return nil
	}
}

func duplicateWeekCmd(fs *flag.FlagSet) handlerFunc {
	id := fs.String("id", "", "id of the copy, generated when empty")
	name := fs.String("name", "", "name of the copy")
	return func(ctx context.Context, app *application, args []string) error {
		var added string
		_, err := app.repo.Update(ctx, func(doc state.Document) (state.Document, error) {
			return state.UpdatePlan(doc, func(p schedule.Plan) (schedule.Plan, error) {
				var err error
				p, added, err = schedule.DuplicateWeek(p, args[0], *id, *name)
				return p, err
			})
		})
		if err != nil {
			return errors.Wrap(err, "duplicate week", slog.String("week", args[0]))
		}
		fmt.Fprintln(app.out, added)
		return nil
	}
}

func assignCmd(fs *flag.FlagSet) handlerFunc {
	weekID := fs.String("week", "", "week id")
	dayFlag := fs.String("day", "", "day name such as Monday")
	workoutID := fs.String("workout", "", "workout id, empty for rest")
	return func(ctx context.Context, app *application, _ []string) error {
		day, ok := schedule.ParseDayName(*dayFlag)
		if !ok {
			return errors.Wrap(errUsage, "invalid day", slog.String("day", *dayFlag))
		}
		_, err := app.repo.Update(ctx, func(doc state.Document) (state.Document, error) {
			return state.UpdatePlan(doc, func(p schedule.Plan) (schedule.Plan, error) {
				return schedule.AssignDay(p, *weekID, day, *workoutID)
			})
		})
		if err != nil {
			return errors.Wrap(err, "assign day", slog.String("week", *weekID), slog.String("day", string(day)))
		}
		return nil
	}
}

func backupCmd(_ *flag.FlagSet) handlerFunc {
	return func(ctx context.Context, app *application, args []string) error {
		path, err := app.db.BackupTo(ctx, args[0])
		if err != nil {
			return errors.Wrap(err, "backup database")
		}
		fmt.Fprintln(app.out, path)
		return nil
	}
}

func backupsCmd(_ *flag.FlagSet) handlerFunc {
	return func(ctx context.Context, app *application, _ []string) error {
		backups, err := app.repo.Backups(ctx)
		if err != nil {
			return errors.Wrap(err, "list backups")
		}
		for _, b := range backups {
			fmt.Fprintf(app.out, "%d\tv%d\t%s\t%s\n", b.ID, b.Version, b.CreatedAt.Format(time.RFC3339), b.Reason)
		}
		return nil
	}
}

func restoreCmd(_ *flag.FlagSet) handlerFunc {
	return func(ctx context.Context, app *application, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return errors.Wrap(errUsage, "backup id must be a number", slog.String("id", args[0]))
		}
		if _, err = app.repo.RestoreBackup(ctx, id); err != nil {
			return errors.Wrap(err, "restore backup", slog.Int("id", id))
		}
		return nil
	}
}

func queryCmd(fs *flag.FlagSet) handlerFunc {
	maxRows := fs.Int("max-rows", 100, "maximum number of rows to print") //nolint:mnd // flag default
	return func(ctx context.Context, app *application, args []string) error {
		res, err := app.db.Query(ctx, args[0], *maxRows)
		if err != nil {
			return errors.Wrap(err, "query")
		}
		fmt.Fprintln(app.out, strings.Join(res.Columns, "\t"))
		for _, row := range res.Rows {
			cells := make([]string, len(row))
			for i, v := range row {
				if v == nil {
					cells[i] = "NULL"
					continue
				}
				cells[i] = fmt.Sprint(v)
			}
			fmt.Fprintln(app.out, strings.Join(cells, "\t"))
		}
		if res.Truncated {
			fmt.Fprintf(app.errOut, "output truncated to %d rows\n", *maxRows)
		}
		return nil
	}
}
