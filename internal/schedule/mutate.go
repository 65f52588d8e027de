package schedule

import (
	"fmt"
	"slices"
	"strings"
)

// Every mutation below returns a new Plan and leaves its input untouched. Plans are expected to be
// in the v2 shape, see EnsureV2.

// AddWorkout appends w to the library.
func AddWorkout(plan Plan, w Workout) (Plan, error) {
	if strings.TrimSpace(w.ID) == "" {
		return Plan{}, fmt.Errorf("add workout: %w", ErrEmptyID)
	}
	if _, exists := plan.Workout(w.ID); exists {
		return Plan{}, fmt.Errorf("add workout %s: %w", w.ID, ErrDuplicateID)
	}
	out := plan.Clone()
	out.Library = append(out.Library, w.clone())
	return out, nil
}

// RenameWorkout changes the display name of a library item.
func RenameWorkout(plan Plan, id, name string) (Plan, error) {
	return updateWorkout(plan, id, func(w *Workout) error {
		w.Name = name
		return nil
	})
}

// DeleteWorkout removes a library item and turns every slot referencing it, in every week, into a
// rest day. Sessions that reference it are not affected.
func DeleteWorkout(plan Plan, id string) (Plan, error) {
	if _, ok := plan.Workout(id); !ok {
		return Plan{}, fmt.Errorf("delete workout %s: %w", id, ErrNotFound)
	}
	out := plan.Clone()
	out.Library = slices.DeleteFunc(out.Library, func(w Workout) bool { return w.ID == id })
	if out.Split != nil {
		for wi := range out.Split.Weeks {
			for di := range out.Split.Weeks[wi].Days {
				if out.Split.Weeks[wi].Days[di].WorkoutID == id {
					out.Split.Weeks[wi].Days[di].WorkoutID = ""
				}
			}
		}
	}
	return out, nil
}

// AppendExercise adds an exercise to the end of a workout.
func AppendExercise(plan Plan, workoutID, exerciseID string) (Plan, error) {
	return updateWorkout(plan, workoutID, func(w *Workout) error {
		w.ExerciseIDs = append(w.ExerciseIDs, exerciseID)
		return nil
	})
}

// RemoveExercise removes every occurrence of an exercise from a workout.
func RemoveExercise(plan Plan, workoutID, exerciseID string) (Plan, error) {
	return updateWorkout(plan, workoutID, func(w *Workout) error {
		if !slices.Contains(w.ExerciseIDs, exerciseID) {
			return fmt.Errorf("exercise %s: %w", exerciseID, ErrNotFound)
		}
		w.ExerciseIDs = slices.DeleteFunc(w.ExerciseIDs, func(id string) bool { return id == exerciseID })
		return nil
	})
}

// MoveExercise moves the exercise at index from to index to.
func MoveExercise(plan Plan, workoutID string, from, to int) (Plan, error) {
	return updateWorkout(plan, workoutID, func(w *Workout) error {
		n := len(w.ExerciseIDs)
		if from < 0 || from >= n || to < 0 || to >= n {
			return fmt.Errorf("move exercise %d to %d of %d: %w", from, to, n, ErrNotFound)
		}
		id := w.ExerciseIDs[from]
		w.ExerciseIDs = slices.Delete(w.ExerciseIDs, from, from+1)
		w.ExerciseIDs = slices.Insert(w.ExerciseIDs, to, id)
		return nil
	})
}

func updateWorkout(plan Plan, id string, fn func(w *Workout) error) (Plan, error) {
	out := plan.Clone()
	i := slices.IndexFunc(out.Library, func(w Workout) bool { return w.ID == id })
	if i < 0 {
		return Plan{}, fmt.Errorf("workout %s: %w", id, ErrNotFound)
	}
	if err := fn(&out.Library[i]); err != nil {
		return Plan{}, fmt.Errorf("workout %s: %w", id, err)
	}
	return out, nil
}

// AssignDay schedules workoutID on day of a week. An empty workoutID makes it a rest day.
func AssignDay(plan Plan, weekID string, day DayName, workoutID string) (Plan, error) {
	if workoutID != "" {
		if _, ok := plan.Workout(workoutID); !ok {
			return Plan{}, fmt.Errorf("assign workout %s: %w", workoutID, ErrNotFound)
		}
	}
	di := day.Index()
	if di < 0 {
		return Plan{}, fmt.Errorf("assign day %q: %w", day, ErrNotFound)
	}
	return updateWeek(plan, weekID, func(w *Week) error {
		w.Days[di].WorkoutID = workoutID
		return nil
	})
}

// AddWeek appends an empty week. An empty id picks the next free "week-N".
func AddWeek(plan Plan, id, name string) (Plan, string, error) {
	out := plan.Clone()
	if out.Split == nil {
		out.Split = &Split{Weeks: nil}
	}
	if id == "" {
		id = nextWeekID(*out.Split)
	}
	if out.Split.weekIndex(id) >= 0 {
		return Plan{}, "", fmt.Errorf("add week %s: %w", id, ErrDuplicateID)
	}
	out.Split.Weeks = append(out.Split.Weeks, NewWeek(id, name))
	return out, id, nil
}

// DuplicateWeek appends a copy of an existing week. The copy shares no storage with the source.
func DuplicateWeek(plan Plan, sourceID, id, name string) (Plan, string, error) {
	source, ok := plan.Week(sourceID)
	if !ok {
		return Plan{}, "", fmt.Errorf("duplicate week %s: %w", sourceID, ErrNotFound)
	}
	out, id, err := AddWeek(plan, id, name)
	if err != nil {
		return Plan{}, "", fmt.Errorf("duplicate week %s: %w", sourceID, err)
	}
	copied := source
	copied.ID = id
	copied.Name = name
	out.Split.Weeks[len(out.Split.Weeks)-1] = copied
	return out, id, nil
}

// RenameWeek changes the display name of a week.
func RenameWeek(plan Plan, id, name string) (Plan, error) {
	return updateWeek(plan, id, func(w *Week) error {
		w.Name = name
		return nil
	})
}

// DeleteWeek removes a week. The last remaining week cannot be deleted. Deleting the active week
// activates the first remaining one.
func DeleteWeek(plan Plan, id string) (Plan, error) {
	if _, ok := plan.Week(id); !ok {
		return Plan{}, fmt.Errorf("delete week %s: %w", id, ErrNotFound)
	}
	if len(plan.Split.Weeks) <= 1 {
		return Plan{}, fmt.Errorf("delete week %s: %w", id, ErrLastWeek)
	}
	out := plan.Clone()
	out.Split.Weeks = slices.DeleteFunc(out.Split.Weeks, func(w Week) bool { return w.ID == id })
	if out.Settings == nil {
		out.Settings = &Settings{ActiveWeekID: ""}
	}
	if out.Settings.ActiveWeekID == id || out.Settings.ActiveWeekID == "" {
		out.Settings.ActiveWeekID = out.Split.Weeks[0].ID
	}
	return out, nil
}

// SetActiveWeek selects the week used to resolve days.
func SetActiveWeek(plan Plan, id string) (Plan, error) {
	if _, ok := plan.Week(id); !ok {
		return Plan{}, fmt.Errorf("activate week %s: %w", id, ErrNotFound)
	}
	out := plan.Clone()
	out.Settings = &Settings{ActiveWeekID: id}
	return out, nil
}

func updateWeek(plan Plan, id string, fn func(w *Week) error) (Plan, error) {
	out := plan.Clone()
	if out.Split == nil {
		return Plan{}, fmt.Errorf("week %s: %w", id, ErrNotFound)
	}
	i := out.Split.weekIndex(id)
	if i < 0 {
		return Plan{}, fmt.Errorf("week %s: %w", id, ErrNotFound)
	}
	if err := fn(&out.Split.Weeks[i]); err != nil {
		return Plan{}, fmt.Errorf("week %s: %w", id, err)
	}
	return out, nil
}
