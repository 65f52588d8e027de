package report_test

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/myrjola/liftlog/internal/plates"
	"github.com/myrjola/liftlog/internal/ptr"
	"github.com/myrjola/liftlog/internal/report"
	"github.com/myrjola/liftlog/internal/schedule"
	"github.com/myrjola/liftlog/internal/state"
	"github.com/myrjola/liftlog/internal/workout"
)

var monday = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC) //nolint:gochecknoglobals // test fixture

func dayPlan(t *testing.T) state.DayPlan {
	t.Helper()
	doc, err := state.Seed()
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	lastWeek := monday.AddDate(0, 0, -7)
	doc, session, err := state.StartSession(doc, "upper-a", lastWeek)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	doc, _, err = state.LogSet(doc, session.ID, workout.SetEntry{
		ExerciseID: "bench-press",
		CleanReps:  10,
		Plates:     ptr.Ref(plates.PlateCounts{}.With(45, 1)),
	}, lastWeek)
	if err != nil {
		t.Fatalf("LogSet: %v", err)
	}
	if doc, err = state.CompleteSession(doc, session.ID, lastWeek); err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}

	doc, today, err := state.StartSession(doc, "upper-a", monday)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	doc, _, err = state.LogSet(doc, today.ID, workout.SetEntry{
		ExerciseID: "dumbbell-row",
		CleanReps:  9,
		DirtyReps:  1,
		Weight:     ptr.Ref(50.0),
		Notes:      "*strap* used",
	}, monday)
	if err != nil {
		t.Fatalf("LogSet: %v", err)
	}
	return doc.Today(monday)
}

func TestHTML(t *testing.T) {
	html, err := report.HTML(dayPlan(t))
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}

	if got := doc.Find("h1").Text(); got != "Monday, 4 March 2024: Upper A" {
		t.Errorf("h1 = %q", got)
	}
	if got := doc.Find("h2").Length(); got != 4 {
		t.Errorf("found %d exercise sections, want 4", got)
	}

	rows := doc.Find("table tbody tr")
	if rows.Length() != 4 {
		t.Fatalf("table rows = %d, want 4", rows.Length())
	}
	bench := rows.First().Find("td")
	if got := bench.Eq(0).Text(); got != "Bench Press" {
		t.Errorf("first row = %q", got)
	}
	if got := bench.Eq(2).Text(); got != "increase" {
		t.Errorf("bench action = %q", got)
	}
	if got := bench.Eq(3).Text(); got != "155 (add 10×1 per side)" {
		t.Errorf("bench next = %q", got)
	}
	if got := rows.Eq(2).Find("td").Eq(2).Text(); got != "-" {
		t.Errorf("row without history action = %q", got)
	}

	items := doc.Find("ol li")
	if items.Length() != 1 {
		t.Fatalf("logged sets listed = %d, want 1", items.Length())
	}
	if got := items.Text(); got != "100 × 9 clean + 1 dirty, *strap* used" {
		t.Errorf("logged set = %q", got)
	}
	if doc.Find("em").Length() != 0 {
		t.Error("notes were rendered as markdown emphasis")
	}
}

func TestMarkdown_RestAndStale(t *testing.T) {
	doc, err := state.Seed()
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	wednesday := monday.AddDate(0, 0, 2)

	rest := report.Markdown(doc.Today(wednesday))
	if !strings.Contains(rest, "# Wednesday, 6 March 2024\n") || !strings.Contains(rest, "Rest day.") {
		t.Errorf("rest day report:\n%s", rest)
	}

	doc, err = state.UpdatePlan(doc, func(p schedule.Plan) (schedule.Plan, error) {
		return schedule.AssignDay(p, "week-1", schedule.Wednesday, "upper-b")
	})
	if err != nil {
		t.Fatalf("AssignDay: %v", err)
	}
	doc.Library = doc.Library[:2] // upper-b removed without cascading
	stale := report.Markdown(doc.Today(wednesday))
	if !strings.Contains(stale, state.UnknownWorkout) || !strings.Contains(stale, "has been deleted") {
		t.Errorf("stale report:\n%s", stale)
	}
}
