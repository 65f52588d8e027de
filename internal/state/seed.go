package state

import (
	"bytes"
	"fmt"

	"github.com/myrjola/liftlog/internal/schedule"
	"github.com/myrjola/liftlog/internal/workout"
	"gopkg.in/yaml.v3"

	_ "embed"
)

//go:embed seed.yaml
var seedCatalogue []byte

type seedExercise struct {
	ID        string                `yaml:"id"`
	Name      string                `yaml:"name"`
	Equipment workout.EquipmentKind `yaml:"equipment"`
	Increment *float64              `yaml:"increment"`
	BarWeight *float64              `yaml:"barWeight"`
	WorkRange []int                 `yaml:"workRange"`
}

type seedWorkout struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Exercises []string `yaml:"exercises"`
}

type seedWeek struct {
	ID   string            `yaml:"id"`
	Name string            `yaml:"name"`
	Days map[string]string `yaml:"days"`
}

type seedFile struct {
	Exercises []seedExercise `yaml:"exercises"`
	Workouts  []seedWorkout  `yaml:"workouts"`
	Weeks     []seedWeek     `yaml:"weeks"`
}

// Seed returns the document a fresh database starts with.
func Seed() (Document, error) {
	return parseSeed(seedCatalogue)
}

func parseSeed(data []byte) (Document, error) {
	var file seedFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return Document{}, fmt.Errorf("decode seed: %w", err)
	}

	doc := Document{
		Exercises: make([]workout.ExerciseSettings, 0, len(file.Exercises)),
		Sessions:  []Session{},
		Plan: schedule.Plan{
			Library:  []schedule.Workout{},
			Split:    &schedule.Split{Weeks: []schedule.Week{}},
			Settings: &schedule.Settings{ActiveWeekID: ""},
			Legacy:   nil,
		},
	}

	var err error
	for _, se := range file.Exercises {
		var exercise workout.ExerciseSettings
		if exercise, err = se.settings(); err != nil {
			return Document{}, err
		}
		if doc, _, err = UpsertExercise(doc, exercise); err != nil {
			return Document{}, fmt.Errorf("seed exercise %s: %w", se.ID, err)
		}
	}

	for _, sw := range file.Workouts {
		for _, id := range sw.Exercises {
			if _, ok := doc.Exercise(id); !ok {
				return Document{}, fmt.Errorf("seed workout %s: exercise %s: %w", sw.ID, id, ErrNotFound)
			}
		}
		w := schedule.Workout{ID: sw.ID, Name: sw.Name, ExerciseIDs: sw.Exercises}
		if doc.Plan, err = schedule.AddWorkout(doc.Plan, w); err != nil {
			return Document{}, fmt.Errorf("seed workout %s: %w", sw.ID, err)
		}
	}

	for _, week := range file.Weeks {
		if doc.Plan, _, err = schedule.AddWeek(doc.Plan, week.ID, week.Name); err != nil {
			return Document{}, fmt.Errorf("seed week %s: %w", week.ID, err)
		}
		for day, workoutID := range week.Days {
			name, ok := schedule.ParseDayName(day)
			if !ok {
				return Document{}, fmt.Errorf("seed week %s: unknown day %q: %w", week.ID, day, ErrInvalidInput)
			}
			if doc.Plan, err = schedule.AssignDay(doc.Plan, week.ID, name, workoutID); err != nil {
				return Document{}, fmt.Errorf("seed week %s: %w", week.ID, err)
			}
		}
	}

	if len(doc.Split.Weeks) == 0 {
		if doc.Plan, _, err = schedule.AddWeek(doc.Plan, "", "Week 1"); err != nil {
			return Document{}, fmt.Errorf("seed default week: %w", err)
		}
	}
	if doc.Plan, err = schedule.SetActiveWeek(doc.Plan, doc.Split.Weeks[0].ID); err != nil {
		return Document{}, fmt.Errorf("seed active week: %w", err)
	}
	return doc, nil
}

func (se seedExercise) settings() (workout.ExerciseSettings, error) {
	eq, err := workout.DefaultEquipment(se.Equipment)
	if err != nil {
		return workout.ExerciseSettings{}, fmt.Errorf("seed exercise %s: %w", se.ID, err)
	}
	if se.Increment != nil {
		inc := *se.Increment
		switch e := eq.(type) {
		case workout.Dumbbell:
			e.IncrementPerHand = inc
			eq = e
		case workout.Barbell:
			e.IncrementPerSide = inc
			eq = e
		case workout.Machine:
			e.Increment = inc
			eq = e
		case workout.Cable:
			e.Increment = inc
			eq = e
		case workout.Bodyweight:
			e.Increment = inc
			eq = e
		}
	}
	if b, ok := eq.(workout.Barbell); ok && se.BarWeight != nil {
		b.BarWeight = *se.BarWeight
		eq = b
	}

	scheme := workout.DefaultRepScheme()
	if len(se.WorkRange) == 2 { //nolint:mnd // [min, max]
		scheme.WorkRangeMin, scheme.WorkRangeMax = se.WorkRange[0], se.WorkRange[1]
		// Progress once the top of the range is reached cleanly.
		scheme.ProgressMinClean = scheme.WorkRangeMax
		scheme.ProgressMaxClean = scheme.WorkRangeMax + 2 //nolint:mnd // two reps of headroom
	}
	return workout.ExerciseSettings{ID: se.ID, Name: se.Name, Equipment: eq, RepScheme: scheme, Notes: ""}, nil
}
