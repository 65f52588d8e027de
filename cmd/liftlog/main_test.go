package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/myrjola/liftlog/internal/errors"
	"github.com/myrjola/liftlog/internal/schedule"
	"github.com/myrjola/liftlog/internal/sqlite"
	"github.com/myrjola/liftlog/internal/testhelpers"
	"github.com/myrjola/liftlog/internal/workout"
)

// cli runs commands against one database file that lives as long as the test.
type cli struct {
	t   *testing.T
	env map[string]string
}

func newCLI(t *testing.T) cli {
	t.Helper()
	return cli{t: t, env: map[string]string{
		"LIFTLOG_SQLITE_URL": filepath.Join(t.TempDir(), "liftlog.sqlite3"),
		"LIFTLOG_LOG_LEVEL":  "debug",
	}}
}

func (c cli) run(stdin string, args ...string) (string, error) {
	c.t.Helper()
	var out bytes.Buffer
	lookupEnv := func(key string) (string, bool) {
		v, ok := c.env[key]
		return v, ok
	}
	err := run(c.t.Context(), args, strings.NewReader(stdin), &out, testhelpers.NewWriter(c.t), lookupEnv)
	return out.String(), err
}

func (c cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run("", args...)
	if err != nil {
		c.t.Fatalf("liftlog %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func Test_run_usage(t *testing.T) {
	c := newCLI(t)
	tests := []struct {
		name string
		args []string
	}{
		{name: "no command", args: nil},
		{name: "unknown command", args: []string{"lift"}},
		{name: "missing argument", args: []string{"suggest"}},
		{name: "unknown flag", args: []string{"today", "-weekday", "Monday"}},
		{name: "log without exercise", args: []string{"log", "-clean", "5"}},
		{name: "invalid day", args: []string{"assign", "-week", "week-1", "-day", "Someday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.run("", tt.args...); !errors.Is(err, errUsage) {
				t.Errorf("err = %v, want usage error", err)
			}
		})
	}
}

func Test_run_help(t *testing.T) {
	if _, err := newCLI(t).run("", "help"); err != nil {
		t.Fatalf("help: %v", err)
	}
}

func Test_today_html(t *testing.T) {
	c := newCLI(t)
	out := c.mustRun("today", "-date", "2024-03-04", "-html")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	if got, want := doc.Find("h1").Text(), "Monday, 4 March 2024: Upper A"; got != want {
		t.Errorf("h1 = %q, want %q", got, want)
	}
	if got := doc.Find("h2").Length(); got != 4 {
		t.Errorf("got %d exercise sections, want 4", got)
	}
	if got := doc.Find("table tbody tr").Length(); got != 4 {
		t.Errorf("got %d table rows, want 4", got)
	}
}

func Test_sessionFlow(t *testing.T) {
	c := newCLI(t)
	sessionID := strings.TrimSpace(c.mustRun("start", "-date", "2024-03-04"))
	if sessionID == "" {
		t.Fatal("start printed no session id")
	}
	again := strings.TrimSpace(c.mustRun("start", "-date", "2024-03-04"))
	if again != sessionID {
		t.Errorf("second start = %q, want the same session %q", again, sessionID)
	}

	setID := strings.TrimSpace(c.mustRun("log", "-exercise", "bench-press", "-clean", "8", "-plates", "45:1"))
	c.mustRun("edit-set", "-clean", "10", setID)
	c.mustRun("log", "-exercise", "bench-press", "-clean", "6", "-plates", "25:1", "-drop", setID)
	if _, err := c.run("", "log", "-exercise", "ghost", "-clean", "5", "-weight", "10"); err == nil {
		t.Error("logging an unknown exercise succeeded")
	}
	c.mustRun("finish")

	if _, err := c.run("", "finish"); !errors.Is(err, errNoSession) {
		t.Errorf("finish without active session: err = %v, want %v", err, errNoSession)
	}
	if _, err := c.run("", "log", "-exercise", "bench-press", "-clean", "5", "-weight", "10"); !errors.Is(err, errNoSession) {
		t.Errorf("log without active session: err = %v, want %v", err, errNoSession)
	}

	out := c.mustRun("suggest", "bench-press")
	if !strings.Contains(out, "increase 135 -> 155") {
		t.Errorf("suggest output %q does not increase from 135 to 155", out)
	}
	if !strings.Contains(out, "45×1 + 10×1") {
		t.Errorf("suggest output %q does not list the next plates", out)
	}
	if out = c.mustRun("suggest", "leg-curl"); !strings.Contains(out, "no history") {
		t.Errorf("suggest without history = %q", out)
	}
}

func Test_skip(t *testing.T) {
	c := newCLI(t)
	c.mustRun("start", "-date", "2024-03-05")
	c.mustRun("skip")
	if _, err := c.run("", "skip"); !errors.Is(err, errNoSession) {
		t.Errorf("err = %v, want %v", err, errNoSession)
	}
	if _, err := c.run("", "start", "-date", "2024-03-06"); err == nil {
		t.Error("starting on a rest day without -workout succeeded")
	}
	c.mustRun("start", "-date", "2024-03-06", "-workout", "lower-b")
}

func Test_plates(t *testing.T) {
	c := newCLI(t)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "total to plates", args: []string{"plates", "185"}, want: "per side: 45×1 + 25×1\n"},
		{name: "remainder", args: []string{"plates", "-bar", "45", "146"}, want: "per side: 45×1 + 5×1\nnot loadable per side: 0.5\n"},
		{name: "plates to total", args: []string{"plates", "-counts", "45:1,10:1"}, want: "155\n"},
		{name: "other bar", args: []string{"plates", "-bar", "35", "-counts", "45:1"}, want: "125\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.mustRun(tt.args...); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func Test_split(t *testing.T) {
	c := newCLI(t)
	splitPath := filepath.Join(t.TempDir(), "split.json")
	c.mustRun("export-split", "-o", splitPath)

	c.mustRun("assign", "-week", "week-1", "-day", "monday")
	if out := c.mustRun("today", "-date", "2024-03-04"); !strings.Contains(out, "Rest day.") {
		t.Errorf("after clearing Monday got %q", out)
	}

	c.mustRun("import-split", splitPath)
	if out := c.mustRun("today", "-date", "2024-03-04"); !strings.Contains(out, "Upper A") {
		t.Errorf("after import got %q", out)
	}
	if _, err := c.run(`{"weeks":[]}`, "import-split", "-"); !errors.Is(err, schedule.ErrInvalidSplit) {
		t.Errorf("importing an empty split: err = %v, want %v", err, schedule.ErrInvalidSplit)
	}

	c.mustRun("activate-week", "week-2")
	if out := c.mustRun("today", "-date", "2024-03-04"); !strings.Contains(out, "Upper B") {
		t.Errorf("week 2 Monday got %q", out)
	}

	copyID := strings.TrimSpace(c.mustRun("duplicate-week", "-name", "Deload", "week-2"))
	c.mustRun("delete-week", "week-1")
	c.mustRun("delete-week", "week-2")
	if _, err := c.run("", "delete-week", copyID); !errors.Is(err, schedule.ErrLastWeek) {
		t.Errorf("deleting the last week: err = %v, want %v", err, schedule.ErrLastWeek)
	}
	if out := c.mustRun("today", "-date", "2024-03-04"); !strings.Contains(out, "Active week: Deload") {
		t.Errorf("after deleting the active week got %q", out)
	}

	c.mustRun("delete-workout", "upper-b")
	if out := c.mustRun("today", "-date", "2024-03-04"); !strings.Contains(out, "Rest day.") {
		t.Errorf("after deleting the workout got %q", out)
	}

	workoutID := strings.TrimSpace(c.mustRun("add-workout", "-name", "Arms", "-exercises", "dip, pull-up"))
	weekID := strings.TrimSpace(c.mustRun("add-week", "-name", "Arms week"))
	c.mustRun("assign", "-week", weekID, "-day", "Monday", "-workout", workoutID)
	c.mustRun("activate-week", weekID)
	if out := c.mustRun("today", "-date", "2024-03-04"); !strings.Contains(out, "Arms") {
		t.Errorf("arms week Monday got %q", out)
	}
}

func Test_exportImport(t *testing.T) {
	c := newCLI(t)
	c.mustRun("start", "-date", "2024-03-04")
	c.mustRun("log", "-exercise", "dumbbell-row", "-clean", "10", "-weight", "50")
	exported := c.mustRun("export")

	other := newCLI(t)
	other.mustRun("today", "-date", "2024-03-04")
	if _, err := other.run(exported, "import", "-"); err != nil {
		t.Fatalf("import: %v", err)
	}
	if got := other.mustRun("export"); got != exported {
		t.Errorf("export after import differs\ngot:  %s\nwant: %s", got, exported)
	}

	backups := other.mustRun("backups")
	if !strings.Contains(backups, "import") {
		t.Errorf("backups = %q, want an import backup", backups)
	}
	id, _, _ := strings.Cut(backups, "\t")
	other.mustRun("restore", id)
	if got := other.mustRun("export"); got == exported {
		t.Error("restoring the pre-import backup kept the imported document")
	}
	if _, err := other.run("", "restore", "999"); err == nil {
		t.Error("restoring a missing backup succeeded")
	}
	if _, err := other.run("{", "import", "-"); err == nil {
		t.Error("importing invalid json succeeded")
	}
}

func Test_backup(t *testing.T) {
	c := newCLI(t)
	target := filepath.Join(t.TempDir(), "copy.sqlite3")
	if got := strings.TrimSpace(c.mustRun("backup", target)); got != target {
		t.Errorf("backup printed %q, want %q", got, target)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("stat backup: %v", err)
	}
	if _, err := c.run("", "backup", target); !errors.Is(err, sqlite.ErrBackupExists) {
		t.Errorf("err = %v, want %v", err, sqlite.ErrBackupExists)
	}
}

func Test_query(t *testing.T) {
	c := newCLI(t)
	c.mustRun("today")
	out := c.mustRun("query", "-max-rows", "2",
		`SELECT json_extract(value, '$.id') AS id FROM snapshots, json_each(document, '$.workoutLibrary') ORDER BY 1`)
	if want := "id\nlower-a\nlower-b\n"; out != want {
		t.Errorf("got %q, want %q", out, want)
	}
	if _, err := c.run("", "query", "PRAGMA query_only = false"); !errors.Is(err, sqlite.ErrRestrictedQuery) {
		t.Errorf("err = %v, want %v", err, sqlite.ErrRestrictedQuery)
	}
}

func Test_slowCommandTrace(t *testing.T) {
	c := newCLI(t)
	traces := filepath.Join(t.TempDir(), "traces")
	c.env["LIFTLOG_TRACES_DIR"] = traces
	c.env["LIFTLOG_SLOW_COMMAND_MS"] = "0"
	c.mustRun("today")

	entries, err := os.ReadDir(traces)
	if err != nil {
		t.Fatalf("read traces dir: %v", err)
	}
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "slow-today-") {
		t.Errorf("got trace files %v, want one slow-today trace", entries)
	}
}

func Test_loadMustMatchEquipment(t *testing.T) {
	c := newCLI(t)
	c.mustRun("start", "-date", "2024-03-04")
	if _, err := c.run("", "log", "-exercise", "bench-press", "-clean", "5", "-weight", "225"); !errors.Is(err, workout.ErrInvalidSet) {
		t.Errorf("scalar weight on a barbell: err = %v, want %v", err, workout.ErrInvalidSet)
	}
	if _, err := c.run("", "log", "-exercise", "dumbbell-row", "-clean", "5", "-plates", "45:2"); !errors.Is(err, workout.ErrInvalidSet) {
		t.Errorf("plates on a dumbbell: err = %v, want %v", err, workout.ErrInvalidSet)
	}
	if out := c.mustRun("export"); strings.Contains(out, `"exerciseId"`) {
		t.Error("a rejected set was stored")
	}

	mismatched := `{"exercises": [{"id": "curl", "name": "Curl", "equipment": "dumbbell"}],
  "sessions": [{"id": "s1", "workoutId": "arms", "date": "2024-02-26",
    "sets": [{"id": "a", "exerciseId": "curl", "cleanReps": 8, "plates": {"45": 2},
              "createdAt": "2024-02-26T09:30:00Z"}]}]}`
	if _, err := c.run(mismatched, "import", "-"); !errors.Is(err, workout.ErrInvalidSet) {
		t.Errorf("importing plates on a dumbbell: err = %v, want %v", err, workout.ErrInvalidSet)
	}
}
