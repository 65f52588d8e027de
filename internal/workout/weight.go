package workout

import (
	"fmt"

	"github.com/myrjola/liftlog/internal/plates"
	"github.com/myrjola/liftlog/internal/ptr"
)

// TotalWeight is the effective load of set for exercise. Dumbbell weights are doubled, barbell
// plates are summed onto the bar and every other kind passes the scalar through. Missing weights
// count as zero.
func TotalWeight(exercise ExerciseSettings, set SetEntry) float64 {
	scalar := max(ptr.Deref(set.Weight, 0), 0)
	switch eq := exercise.Equipment.(type) {
	case Barbell:
		return plates.TotalFromPerSide(ptr.Deref(set.Plates, plates.PlateCounts{}), max(eq.BarWeight, 0))
	case Dumbbell:
		return 2 * scalar //nolint:mnd // two hands
	case Machine, Cable, Bodyweight:
		return scalar
	default:
		return scalar
	}
}

// ValidateLoad reports whether set carries its load the way exercise's equipment expects: plates
// for barbells and a scalar weight for every other kind. A set without a load is valid.
func ValidateLoad(exercise ExerciseSettings, set SetEntry) error {
	if err := set.Validate(); err != nil {
		return err
	}
	switch exercise.Equipment.(type) {
	case Barbell:
		if set.Weight != nil {
			return fmt.Errorf("%w: barbell exercise %s takes plates, not a scalar weight", ErrInvalidSet, exercise.ID)
		}
	default:
		if set.Plates != nil {
			return fmt.Errorf("%w: %s exercise %s takes a scalar weight, not plates",
				ErrInvalidSet, KindOf(exercise.Equipment), exercise.ID)
		}
	}
	return nil
}
