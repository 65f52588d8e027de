package workout

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"github.com/myrjola/liftlog/internal/plates"
)

// Action is the load recommendation of a Suggestion.
type Action string

const (
	ActionIncrease Action = "increase"
	ActionHold     Action = "hold"
	ActionDecrease Action = "decrease"
)

// Suggestion recommends the next load for an exercise from its representative set.
type Suggestion struct {
	// Set is the representative set that drove the decision.
	Set    SetEntry
	Action Action
	// Assessment judges the representative set, Goal says what to aim for next time.
	Assessment string
	Goal       string

	EffectiveReps float64
	DirtyRatio    float64
	CurrentWeight float64
	NextWeight    float64
	// Increment is the raw total step of the exercise's equipment, regardless of Action.
	Increment float64

	// PlateDelta and NextPlates are set for barbell increases from a set logged with plates.
	PlateDelta *plates.PlateCounts
	NextPlates *plates.PlateCounts
	// UnloadedPerSide is the part of the per-side increment the plate set cannot represent.
	UnloadedPerSide float64
}

// scoredSet is a historical set with its derived metrics.
type scoredSet struct {
	set           SetEntry
	totalReps     int
	dirtyRatio    float64
	effectiveReps float64
	weight        float64
}

func scoreSet(exercise ExerciseSettings, set SetEntry) scoredSet {
	clean := max(set.CleanReps, 0)
	dirty := max(set.DirtyReps, 0)
	total := clean + dirty
	var ratio float64
	if total > 0 {
		ratio = float64(dirty) / float64(total)
	}
	return scoredSet{
		set:           set,
		totalReps:     total,
		dirtyRatio:    ratio,
		effectiveReps: float64(clean) + float64(dirty)*exercise.RepScheme.DirtyPenalty,
		weight:        TotalWeight(exercise, set),
	}
}

// representative picks the set with the most effective reps. Ties keep the earliest set in the
// given order.
func representative(exercise ExerciseSettings, sets []SetEntry) scoredSet {
	scored := make([]scoredSet, len(sets))
	for i, set := range sets {
		scored[i] = scoreSet(exercise, set)
	}
	slices.SortStableFunc(scored, func(a, b scoredSet) int {
		return cmp.Compare(b.effectiveReps, a.effectiveReps)
	})
	return scored[0]
}

// decide applies the progression policy in priority order.
func decide(scheme RepScheme, s scoredSet) (Action, bool) {
	clean := max(s.set.CleanReps, 0)
	switch {
	case clean >= scheme.ProgressMinClean && s.dirtyRatio <= scheme.MaxDirtyRatioToProgress:
		return ActionIncrease, false
	case clean < scheme.WorkRangeMin:
		return ActionDecrease, false
	case s.dirtyRatio > scheme.MaxDirtyRatioToProgress:
		return ActionHold, true
	default:
		return ActionHold, false
	}
}

// Suggest recommends the next load for exercise from all of its logged sets, oldest first. It
// returns false when there is no history.
func Suggest(exercise ExerciseSettings, history []SetEntry) (Suggestion, bool) {
	if len(history) == 0 {
		return Suggestion{}, false //nolint:exhaustruct // no suggestion
	}

	best := representative(exercise, history)
	scheme := exercise.RepScheme
	action, tooDirty := decide(scheme, best)
	increment := Increment(exercise.Equipment)

	next := best.weight
	switch action {
	case ActionIncrease:
		next = best.weight + increment
	case ActionDecrease:
		next = max(best.weight-increment, 0)
	case ActionHold:
	}

	suggestion := Suggestion{
		Set:             best.set,
		Action:          action,
		Assessment:      "",
		Goal:            "",
		EffectiveReps:   best.effectiveReps,
		DirtyRatio:      best.dirtyRatio,
		CurrentWeight:   best.weight,
		NextWeight:      next,
		Increment:       increment,
		PlateDelta:      nil,
		NextPlates:      nil,
		UnloadedPerSide: 0,
	}
	suggestion.Assessment, suggestion.Goal = rationale(scheme, best, action, tooDirty, next)

	if bar, ok := exercise.Equipment.(Barbell); ok && action == ActionIncrease && best.set.Plates != nil {
		delta, remainder := plates.Decompose(bar.IncrementPerSide)
		nextPlates := best.set.Plates.Add(delta)
		suggestion.PlateDelta = &delta
		suggestion.NextPlates = &nextPlates
		suggestion.UnloadedPerSide = remainder
	}

	return suggestion, true
}

func rationale(scheme RepScheme, s scoredSet, action Action, tooDirty bool, next float64) (string, string) {
	var assessment, goal string
	clean := max(s.set.CleanReps, 0)
	switch {
	case action == ActionIncrease:
		assessment = fmt.Sprintf("%d clean reps with %s dirty meets the %d clean rep target.",
			clean, percent(s.dirtyRatio), scheme.ProgressMinClean)
		goal = fmt.Sprintf("Move up to %s and work back up to %d clean reps (at most %d).",
			FormatWeight(next), scheme.ProgressMinClean, scheme.ProgressMaxClean)
	case action == ActionDecrease:
		assessment = fmt.Sprintf("%d clean reps is below the %d rep floor of the work range.",
			clean, scheme.WorkRangeMin)
		goal = fmt.Sprintf("Drop to %s and rebuild to %d-%d clean reps.",
			FormatWeight(next), scheme.WorkRangeMin, scheme.WorkRangeMax)
	case tooDirty:
		assessment = fmt.Sprintf("%s of reps were dirty, above the %s limit.",
			percent(s.dirtyRatio), percent(scheme.MaxDirtyRatioToProgress))
		goal = fmt.Sprintf("Stay at %s and keep dirty reps at or below %s of the set.",
			FormatWeight(next), percent(scheme.MaxDirtyRatioToProgress))
	default:
		assessment = fmt.Sprintf("%d clean reps is short of the %d clean rep target.",
			clean, scheme.ProgressMinClean)
		goal = fmt.Sprintf("Stay at %s until you reach %d clean reps.",
			FormatWeight(next), scheme.ProgressMinClean)
	}
	return assessment, goal
}

// FormatWeight renders a weight without trailing zeros, e.g. 62.5 or 120.
func FormatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}

func percent(ratio float64) string {
	return fmt.Sprintf("%.0f%%", ratio*100) //nolint:mnd // percent
}
