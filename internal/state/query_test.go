package state_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/liftlog/internal/plates"
	"github.com/myrjola/liftlog/internal/ptr"
	"github.com/myrjola/liftlog/internal/schedule"
	"github.com/myrjola/liftlog/internal/state"
	"github.com/myrjola/liftlog/internal/workout"
)

func TestToday(t *testing.T) {
	doc, session := startUpperA(t, seeded(t), monday.AddDate(0, 0, -7))
	doc, _ = logSet(t, doc, session.ID, workout.SetEntry{
		ExerciseID: "bench-press",
		CleanReps:  10,
		Plates:     ptr.Ref(plates.PlateCounts{}.With(45, 1)),
	}, monday.AddDate(0, 0, -7))
	doc, err := state.CompleteSession(doc, session.ID, monday.AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}

	plan := doc.Today(monday)
	if plan.IsRest() || plan.WorkoutName != "Upper A" || plan.Day != schedule.Monday {
		t.Fatalf("unexpected plan %+v", plan)
	}
	if plan.ActiveWeekName != "Week 1" {
		t.Errorf("active week = %q", plan.ActiveWeekName)
	}
	if plan.Session != nil {
		t.Errorf("last week's session should not count as today's: %+v", plan.Session)
	}

	var names []string
	for _, e := range plan.Exercises {
		names = append(names, e.Name)
	}
	want := []string{"Bench Press", "One-Arm Dumbbell Row", "Overhead Press", "Lat Pulldown"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("exercise order mismatch (-want +got):\n%s", diff)
	}

	bench := plan.Exercises[0].Suggestion
	if bench == nil {
		t.Fatal("expected a bench press suggestion")
	}
	if bench.Action != workout.ActionIncrease || bench.NextWeight != 155 {
		t.Errorf("bench suggestion = %s to %v, want increase to 155", bench.Action, bench.NextWeight)
	}
	if plan.Exercises[1].Suggestion != nil {
		t.Error("an exercise without history has no suggestion")
	}

	if rest := doc.Today(monday.AddDate(0, 0, 2)); !rest.IsRest() {
		t.Errorf("Wednesday should be a rest day, got %q", rest.WorkoutName)
	}
}

func TestToday_StaleReferences(t *testing.T) {
	doc := seeded(t)
	doc.Exercises = doc.Exercises[1:] // drop back-squat without touching workouts

	doc, err := state.UpdatePlan(doc, func(p schedule.Plan) (schedule.Plan, error) {
		return schedule.AssignDay(p, "week-1", schedule.Wednesday, "upper-a")
	})
	if err != nil {
		t.Fatalf("UpdatePlan: %v", err)
	}
	broken := doc.Clone()
	broken.Library = broken.Library[1:] // remove upper-a without cascading

	plan := broken.Today(monday.AddDate(0, 0, 2))
	if !plan.IsRest() || plan.WorkoutName != state.UnknownWorkout {
		t.Errorf("stale slot: plan = %+v", plan)
	}
	if plan.Resolution.StaleWorkoutID != "upper-a" {
		t.Errorf("StaleWorkoutID = %q", plan.Resolution.StaleWorkoutID)
	}

	lower := doc.Today(monday.AddDate(0, 0, 1))
	if lower.Exercises[0].Known || lower.Exercises[0].Name != state.UnknownExercise {
		t.Errorf("deleted exercise = %+v", lower.Exercises[0])
	}
}

func TestWorkoutLabel(t *testing.T) {
	doc, session := startUpperA(t, seeded(t), monday)
	if got := doc.WorkoutLabel(session); got != "Upper A" {
		t.Errorf("label = %q", got)
	}
	doc, err := state.UpdatePlan(doc, func(p schedule.Plan) (schedule.Plan, error) {
		return schedule.DeleteWorkout(p, "upper-a")
	})
	if err != nil {
		t.Fatalf("DeleteWorkout: %v", err)
	}
	if got := doc.WorkoutLabel(session); got != state.UnknownWorkout {
		t.Errorf("label = %q, want %q", got, state.UnknownWorkout)
	}
	if _, ok := doc.Session(session.ID); !ok {
		t.Error("deleting a workout must keep its sessions")
	}
}

func TestSuggest_UsesLatestWorkingSets(t *testing.T) {
	doc := seeded(t)
	week1 := monday.AddDate(0, 0, -14)
	week2 := monday.AddDate(0, 0, -7)

	doc, first := startUpperA(t, doc, week1)
	doc, _ = logSet(t, doc, first.ID, workout.SetEntry{ExerciseID: "lat-pulldown", CleanReps: 12, Weight: ptr.Ref(100.0)}, week1)
	doc, err := state.CompleteSession(doc, first.ID, week1)
	if err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}

	doc, second := startUpperA(t, doc, week2)
	doc, top := logSet(t, doc, second.ID, workout.SetEntry{ExerciseID: "lat-pulldown", CleanReps: 5, Weight: ptr.Ref(110.0)}, week2)
	doc, _ = logSet(t, doc, second.ID, workout.SetEntry{
		ExerciseID:  "lat-pulldown",
		CleanReps:   15,
		Weight:      ptr.Ref(60.0),
		Kind:        workout.SetKindDrop,
		ParentSetID: top.ID,
	}, week2.Add(time.Minute))

	if got := len(doc.History("lat-pulldown")); got != 3 {
		t.Errorf("history = %d sets, want 3", got)
	}

	s, ok := doc.Suggest("lat-pulldown")
	if !ok {
		t.Fatal("expected a suggestion")
	}
	if s.Set.ID != top.ID || s.Action != workout.ActionDecrease || s.NextWeight != 100 {
		t.Errorf("suggestion = %s from set %s to %v, want decrease from %s to 100", s.Action, s.Set.ID, s.NextWeight, top.ID)
	}

	if _, ok = doc.Suggest("missing"); ok {
		t.Error("unknown exercise should have no suggestion")
	}
}

func TestHistory_SkipsSkippedSessions(t *testing.T) {
	doc, session := startUpperA(t, seeded(t), monday)
	doc, _ = logSet(t, doc, session.ID, workout.SetEntry{ExerciseID: "dip", CleanReps: 3}, monday)
	doc, err := state.SkipSession(doc, session.ID, monday)
	if err != nil {
		t.Fatalf("SkipSession: %v", err)
	}
	if got := doc.History("dip"); len(got) != 0 {
		t.Errorf("history = %v, want none from a skipped session", got)
	}
}
