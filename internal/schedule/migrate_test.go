package schedule_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/liftlog/internal/schedule"
)

func legacyPlan() schedule.Plan {
	return schedule.Plan{
		Legacy: []schedule.LegacyTemplate{
			{ID: "push", Name: "Push", Day: schedule.Monday, ExerciseIDs: []string{"bench", "dips"}},
			{ID: "pull", Name: "Pull", Day: schedule.Monday, ExerciseIDs: []string{"row"}},
			{ID: "legs", Name: "Legs", Day: "wednesday", ExerciseIDs: []string{"squat"}},
		},
	}
}

func TestEnsureV2_MigratesLegacy(t *testing.T) {
	plan := schedule.EnsureV2(legacyPlan())

	wantLibrary := []schedule.Workout{
		{ID: "push", Name: "Push", ExerciseIDs: []string{"bench", "dips"}},
		{ID: "pull", Name: "Pull", ExerciseIDs: []string{"row"}},
		{ID: "legs", Name: "Legs", ExerciseIDs: []string{"squat"}},
	}
	if diff := cmp.Diff(wantLibrary, plan.Library); diff != "" {
		t.Errorf("library mismatch (-want +got):\n%s", diff)
	}
	if plan.Split == nil || len(plan.Split.Weeks) != 2 {
		t.Fatalf("expected two weeks, got %+v", plan.Split)
	}

	first := plan.Split.Weeks[0]
	if got := first.Slot(schedule.Monday).WorkoutID; got != "push" {
		t.Errorf("Monday = %q, want first template push", got)
	}
	if got := first.Slot(schedule.Wednesday).WorkoutID; got != "legs" {
		t.Errorf("Wednesday = %q, want legs", got)
	}
	if !first.Slot(schedule.Tuesday).IsRest() {
		t.Errorf("Tuesday should be a rest day")
	}
	if diff := cmp.Diff(first.Days, plan.Split.Weeks[1].Days); diff != "" {
		t.Errorf("week 2 should equal week 1 (-week1 +week2):\n%s", diff)
	}
	if plan.Settings == nil || plan.Settings.ActiveWeekID != first.ID {
		t.Errorf("active week = %+v, want %s", plan.Settings, first.ID)
	}
}

func TestEnsureV2_WeeksDoNotAlias(t *testing.T) {
	plan := schedule.EnsureV2(legacyPlan())
	second := plan.Split.Weeks[1].ID

	edited, err := schedule.AssignDay(plan, second, schedule.Monday, "pull")
	if err != nil {
		t.Fatalf("AssignDay: %v", err)
	}
	if got := edited.Split.Weeks[0].Slot(schedule.Monday).WorkoutID; got != "push" {
		t.Errorf("week 1 Monday = %q after editing week 2, want push", got)
	}
	if got := edited.Split.Weeks[1].Slot(schedule.Monday).WorkoutID; got != "pull" {
		t.Errorf("week 2 Monday = %q, want pull", got)
	}
	if got := plan.Split.Weeks[1].Slot(schedule.Monday).WorkoutID; got != "push" {
		t.Errorf("original plan changed: week 2 Monday = %q", got)
	}
}

func TestEnsureV2_Idempotent(t *testing.T) {
	once := schedule.EnsureV2(legacyPlan())
	twice := schedule.EnsureV2(once)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second migration changed the plan (-once +twice):\n%s", diff)
	}
	again := schedule.EnsureV2(legacyPlan())
	if diff := cmp.Diff(once, again); diff != "" {
		t.Errorf("migrating the same document twice differs (-first +second):\n%s", diff)
	}
}

func TestEnsureV2_DoesNotModifyInput(t *testing.T) {
	input := legacyPlan()
	before := input.Clone()
	_ = schedule.EnsureV2(input)
	if diff := cmp.Diff(before, input); diff != "" {
		t.Errorf("input modified (-before +after):\n%s", diff)
	}
}

func TestEnsureV2_KeepsExistingStructures(t *testing.T) {
	library := []schedule.Workout{{ID: "full", Name: "Full body", ExerciseIDs: []string{"squat"}}}
	plan := schedule.EnsureV2(schedule.Plan{Library: library})

	if diff := cmp.Diff(library, plan.Library); diff != "" {
		t.Errorf("library mismatch (-want +got):\n%s", diff)
	}
	if plan.Split == nil || len(plan.Split.Weeks) == 0 {
		t.Fatal("expected at least one week")
	}
	if plan.Settings == nil || plan.Settings.ActiveWeekID != plan.Split.Weeks[0].ID {
		t.Errorf("active week = %+v", plan.Settings)
	}
}

func TestEnsureV2_EmptyDocument(t *testing.T) {
	plan := schedule.EnsureV2(schedule.Plan{})
	if !plan.HasV2() {
		t.Fatal("expected a v2 plan")
	}
	if len(plan.Library) != 0 {
		t.Errorf("library = %v, want empty", plan.Library)
	}
	for _, week := range plan.Split.Weeks {
		for _, day := range week.Days {
			if !day.IsRest() {
				t.Errorf("%s %s = %q, want rest", week.ID, day.Name, day.WorkoutID)
			}
		}
	}
}

func TestEnsureV2_EmptySplitGetsARestWeek(t *testing.T) {
	plan := schedule.EnsureV2(schedule.Plan{
		Library:  []schedule.Workout{},
		Split:    &schedule.Split{Weeks: []schedule.Week{}},
		Settings: &schedule.Settings{},
	})
	if len(plan.Split.Weeks) != 1 {
		t.Fatalf("got %d weeks, want 1", len(plan.Split.Weeks))
	}
	for _, day := range plan.Split.Weeks[0].Days {
		if !day.IsRest() {
			t.Errorf("%s = %q, want rest", day.Name, day.WorkoutID)
		}
	}
	if res := schedule.Resolve(plan, time.Monday); res.ActiveWeekID != plan.Split.Weeks[0].ID {
		t.Errorf("active week = %q, want %q", res.ActiveWeekID, plan.Split.Weeks[0].ID)
	}
}
