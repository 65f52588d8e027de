package workout_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/liftlog/internal/plates"
	"github.com/myrjola/liftlog/internal/ptr"
	"github.com/myrjola/liftlog/internal/workout"
)

func TestExerciseSettingsJSON_Defaults(t *testing.T) {
	var got workout.ExerciseSettings
	if err := json.Unmarshal([]byte(`{"id":"bench","name":"Bench Press","equipment":"barbell"}`), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := workout.ExerciseSettings{
		ID:        "bench",
		Name:      "Bench Press",
		Equipment: workout.Barbell{BarWeight: 45, IncrementPerSide: 10},
		RepScheme: workout.DefaultRepScheme(),
		Notes:     "",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestExerciseSettingsJSON_RoundTripKeepsVariantFields(t *testing.T) {
	tests := []workout.ExerciseSettings{
		{ID: "curl", Name: "Curl", Equipment: workout.Dumbbell{IncrementPerHand: 2.5}, RepScheme: workout.DefaultRepScheme()},
		{ID: "dip", Name: "Dip", Equipment: workout.Bodyweight{Increment: 10}, RepScheme: workout.RepScheme{
			WorkRangeMin: 5, WorkRangeMax: 8, ProgressMinClean: 8, ProgressMaxClean: 10,
			DirtyPenalty: 0, MaxDirtyRatioToProgress: 0,
		}},
		{ID: "row", Name: "Row", Equipment: workout.Barbell{BarWeight: 35, IncrementPerSide: 5}, RepScheme: workout.DefaultRepScheme(), Notes: "strict"},
	}
	for _, want := range tests {
		t.Run(want.ID, func(t *testing.T) {
			data, err := json.Marshal(want)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var got workout.ExerciseSettings
			if err = json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExerciseSettingsJSON_ClampsInsteadOfRejecting(t *testing.T) {
	var got workout.ExerciseSettings
	err := json.Unmarshal([]byte(`{"id":"x","equipment":"cable","workRangeMin":12,"workRangeMax":8,
		"maxDirtyRatioToProgress":1.5,"flatIncrement":-5}`), &got)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.RepScheme.WorkRangeMin != 8 || got.RepScheme.WorkRangeMax != 12 {
		t.Errorf("work range = %d-%d, want 8-12", got.RepScheme.WorkRangeMin, got.RepScheme.WorkRangeMax)
	}
	if got.RepScheme.MaxDirtyRatioToProgress != 1 {
		t.Errorf("max dirty ratio = %v, want 1", got.RepScheme.MaxDirtyRatioToProgress)
	}
	if diff := cmp.Diff(workout.Equipment(workout.Cable{Increment: 0}), got.Equipment); diff != "" {
		t.Errorf("equipment mismatch (-want +got):\n%s", diff)
	}
	if err = got.Validate(); err != nil {
		t.Errorf("normalized exercise must validate: %v", err)
	}
}

func TestExerciseSettingsJSON_UnknownEquipment(t *testing.T) {
	var got workout.ExerciseSettings
	if err := json.Unmarshal([]byte(`{"id":"x","equipment":"kettlebell"}`), &got); err == nil {
		t.Error("expected error for unknown equipment")
	}
}

func TestRepSchemeValidate(t *testing.T) {
	bad := workout.DefaultRepScheme()
	bad.WorkRangeMin = 11
	if err := bad.Validate(); !errors.Is(err, workout.ErrInvalidRepScheme) {
		t.Errorf("Validate() = %v, want ErrInvalidRepScheme", err)
	}
	bad = workout.DefaultRepScheme()
	bad.MaxDirtyRatioToProgress = -0.1
	if err := bad.Validate(); !errors.Is(err, workout.ErrInvalidRepScheme) {
		t.Errorf("Validate() = %v, want ErrInvalidRepScheme", err)
	}
	if err := workout.DefaultRepScheme().Validate(); err != nil {
		t.Errorf("default rep scheme must validate: %v", err)
	}
}

func TestSetEntry(t *testing.T) {
	p := plates.PlateCounts{}.With(45, 1)
	both := workout.SetEntry{ID: "s", Weight: ptr.Ref(10.0), Plates: &p}
	if err := both.Validate(); !errors.Is(err, workout.ErrInvalidSet) {
		t.Errorf("Validate() = %v, want ErrInvalidSet", err)
	}

	orig := workout.SetEntry{ID: "s", CleanReps: -2, DirtyReps: 3, Weight: ptr.Ref(-5.0)}
	got := orig.Normalize()
	if got.CleanReps != 0 || got.DirtyReps != 3 || *got.Weight != 0 || got.Kind != workout.SetKindNormal {
		t.Errorf("Normalize() = %+v", got)
	}
	if *orig.Weight != -5 {
		t.Error("Normalize mutated the original weight")
	}
	if got.TotalReps() != 3 {
		t.Errorf("TotalReps() = %d, want 3", got.TotalReps())
	}
}
