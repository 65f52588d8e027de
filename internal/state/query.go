package state

import (
	"slices"
	"time"

	"github.com/myrjola/liftlog/internal/schedule"
	"github.com/myrjola/liftlog/internal/workout"
)

// Placeholder labels for references to deleted library items.
const (
	UnknownWorkout  = "Unknown workout"
	UnknownExercise = "Unknown exercise"
)

// WorkoutLabel names the workout of a session, falling back to [UnknownWorkout] when the library
// item has been deleted since.
func (d Document) WorkoutLabel(s Session) string {
	if w, ok := d.Workout(s.WorkoutID); ok {
		return w.Name
	}
	return UnknownWorkout
}

// ExerciseName names an exercise, falling back to [UnknownExercise].
func (d Document) ExerciseName(id string) string {
	if e, ok := d.Exercise(id); ok {
		return e.Name
	}
	return UnknownExercise
}

// ParentSet looks up the set a drop set followed. Not finding it is normal.
func (d Document) ParentSet(set workout.SetEntry) (workout.SetEntry, bool) {
	if !set.IsDrop() || set.ParentSetID == "" {
		return workout.SetEntry{}, false //nolint:exhaustruct // no parent
	}
	for _, s := range d.Sessions {
		for _, candidate := range s.Sets {
			if candidate.ID == set.ParentSetID {
				return cloneSet(candidate), true
			}
		}
	}
	return workout.SetEntry{}, false //nolint:exhaustruct // parent deleted
}

// History returns every set of exercise logged in sessions that were not skipped, oldest first.
func (d Document) History(exerciseID string) []workout.SetEntry {
	var sets []workout.SetEntry
	for _, s := range d.Sessions {
		if s.Status == StatusSkipped {
			continue
		}
		for _, set := range s.Sets {
			if set.ExerciseID == exerciseID {
				sets = append(sets, cloneSet(set))
			}
		}
	}
	slices.SortStableFunc(sets, func(a, b workout.SetEntry) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return sets
}

// recentWorkingSets returns the non-drop sets of exercise from the latest session that has any.
func (d Document) recentWorkingSets(exerciseID string) []workout.SetEntry {
	history := d.History(exerciseID)
	latest := ""
	for _, set := range slices.Backward(history) {
		if !set.IsDrop() {
			latest = set.SessionID
			break
		}
	}
	return slices.DeleteFunc(history, func(s workout.SetEntry) bool {
		return s.IsDrop() || s.SessionID != latest
	})
}

// Suggest runs the progression engine for an exercise. Only the non-drop sets of the most recent
// session that logged the exercise are passed on, not its whole history: older sessions and drop
// sets never drive a recommendation.
func (d Document) Suggest(exerciseID string) (workout.Suggestion, bool) {
	exercise, ok := d.Exercise(exerciseID)
	if !ok {
		return workout.Suggestion{}, false //nolint:exhaustruct // unknown exercise
	}
	return workout.Suggest(exercise, d.recentWorkingSets(exerciseID))
}

// PlannedExercise is one exercise of the day's workout.
type PlannedExercise struct {
	ExerciseID string
	Name       string
	// Known is false when the workout still lists an exercise that was deleted.
	Known      bool
	Exercise   workout.ExerciseSettings
	Suggestion *workout.Suggestion
	// SetsToday are the sets already logged in the day's session.
	SetsToday []workout.SetEntry
}

// DayPlan is everything needed to show one calendar day.
type DayPlan struct {
	Date           time.Time
	Day            schedule.DayName
	Resolution     schedule.Resolution
	WorkoutName    string
	ActiveWeekName string
	// Session is the latest session of the resolved workout on Date, if any.
	Session   *Session
	Exercises []PlannedExercise
}

// IsRest reports whether no workout is scheduled.
func (p DayPlan) IsRest() bool {
	return p.Resolution.Workout == nil
}

// Today resolves the workout scheduled on date and pairs each of its exercises with a suggestion.
func (d Document) Today(date time.Time) DayPlan {
	res := schedule.ResolveDate(schedule.EnsureV2(d.Plan), date)
	plan := DayPlan{
		Date:           date,
		Day:            schedule.DayOf(date.Weekday()),
		Resolution:     res,
		WorkoutName:    "",
		ActiveWeekName: "",
		Session:        nil,
		Exercises:      []PlannedExercise{},
	}
	if week, ok := d.Week(res.ActiveWeekID); ok {
		plan.ActiveWeekName = week.Name
	}
	if res.StaleWorkoutID != "" {
		plan.WorkoutName = UnknownWorkout
	}
	if res.Workout == nil {
		return plan
	}
	plan.WorkoutName = res.Workout.Name

	day := DateOf(date)
	for _, s := range slices.Backward(d.Sessions) {
		if s.WorkoutID == res.WorkoutID && s.Date == day {
			session := s.clone()
			plan.Session = &session
			break
		}
	}

	for _, id := range res.Workout.ExerciseIDs {
		pe := PlannedExercise{
			ExerciseID: id,
			Name:       d.ExerciseName(id),
			Known:      false,
			Exercise:   workout.ExerciseSettings{}, //nolint:exhaustruct // filled below when known
			Suggestion: nil,
			SetsToday:  []workout.SetEntry{},
		}
		if exercise, ok := d.Exercise(id); ok {
			pe.Known = true
			pe.Exercise = exercise
			if s, found := d.Suggest(id); found {
				pe.Suggestion = &s
			}
		}
		if plan.Session != nil {
			for _, set := range plan.Session.Sets {
				if set.ExerciseID == id {
					pe.SetsToday = append(pe.SetsToday, set)
				}
			}
		}
		plan.Exercises = append(plan.Exercises, pe)
	}
	return plan
}
