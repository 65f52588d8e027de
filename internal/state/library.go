package state

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/myrjola/liftlog/internal/schedule"
	"github.com/myrjola/liftlog/internal/workout"
)

// UpsertExercise replaces the exercise with the same id or appends a new one. Out-of-range
// settings are clamped rather than rejected. An empty id gets a fresh one.
func UpsertExercise(doc Document, exercise workout.ExerciseSettings) (Document, workout.ExerciseSettings, error) {
	exercise = exercise.Normalize()
	exercise.Name = strings.TrimSpace(exercise.Name)
	if exercise.Name == "" {
		return Document{}, workout.ExerciseSettings{}, fmt.Errorf("upsert exercise: %w: empty name", ErrInvalidInput)
	}
	if exercise.ID == "" {
		exercise.ID = uuid.NewString()
	}
	if err := exercise.Validate(); err != nil {
		return Document{}, workout.ExerciseSettings{}, fmt.Errorf("upsert exercise: %w", err)
	}

	out := doc.Clone()
	if i := slices.IndexFunc(out.Exercises, func(e workout.ExerciseSettings) bool { return e.ID == exercise.ID }); i >= 0 {
		out.Exercises[i] = exercise
	} else {
		out.Exercises = append(out.Exercises, exercise)
	}
	return out, exercise, nil
}

// UpdatePlan applies a schedule mutation such as [schedule.AssignDay] to the document.
func UpdatePlan(doc Document, fn func(schedule.Plan) (schedule.Plan, error)) (Document, error) {
	plan, err := fn(schedule.EnsureV2(doc.Plan))
	if err != nil {
		return Document{}, err
	}
	out := doc.Clone()
	out.Plan = plan.Clone()
	return out, nil
}

// AddWorkout creates a library item with a fresh id. Unknown exercise ids are rejected.
func AddWorkout(doc Document, name string, exerciseIDs []string) (Document, schedule.Workout, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Document{}, schedule.Workout{}, fmt.Errorf("add workout: %w: empty name", ErrInvalidInput)
	}
	for _, id := range exerciseIDs {
		if _, ok := doc.Exercise(id); !ok {
			return Document{}, schedule.Workout{}, fmt.Errorf("add workout: exercise %s: %w", id, ErrNotFound)
		}
	}
	w := schedule.Workout{ID: uuid.NewString(), Name: name, ExerciseIDs: slices.Clone(exerciseIDs)}
	out, err := UpdatePlan(doc, func(p schedule.Plan) (schedule.Plan, error) {
		return schedule.AddWorkout(p, w)
	})
	if err != nil {
		return Document{}, schedule.Workout{}, err
	}
	created, _ := out.Workout(w.ID)
	return out, created, nil
}
