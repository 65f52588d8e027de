// Package workout models exercises and logged sets, normalizes set loads and suggests the next
// load from an exercise's set history.
package workout

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/myrjola/liftlog/internal/plates"
	"github.com/myrjola/liftlog/internal/ptr"
)

// RepScheme configures how an exercise's sets are judged.
type RepScheme struct {
	// WorkRangeMin and WorkRangeMax bound the target clean reps per set.
	WorkRangeMin int
	WorkRangeMax int
	// ProgressMinClean is the clean rep count required to increase the load.
	ProgressMinClean int
	// ProgressMaxClean is an upper reference used in the rationale text.
	ProgressMaxClean int
	// DirtyPenalty weighs dirty reps when scoring a set, 0 ignores them and 1 counts them fully.
	DirtyPenalty float64
	// MaxDirtyRatioToProgress is the largest dirty/total share that still allows an increase.
	MaxDirtyRatioToProgress float64
}

// Rep scheme defaults for new exercises.
const (
	DefaultWorkRangeMin            = 6
	DefaultWorkRangeMax            = 10
	DefaultProgressMinClean        = 10
	DefaultProgressMaxClean        = 12
	DefaultDirtyPenalty            = 0.5
	DefaultMaxDirtyRatioToProgress = 0.2
)

// DefaultRepScheme returns the rep scheme new exercises start with.
func DefaultRepScheme() RepScheme {
	return RepScheme{
		WorkRangeMin:            DefaultWorkRangeMin,
		WorkRangeMax:            DefaultWorkRangeMax,
		ProgressMinClean:        DefaultProgressMinClean,
		ProgressMaxClean:        DefaultProgressMaxClean,
		DirtyPenalty:            DefaultDirtyPenalty,
		MaxDirtyRatioToProgress: DefaultMaxDirtyRatioToProgress,
	}
}

var (
	ErrInvalidRepScheme = errors.New("invalid rep scheme")
	ErrInvalidSet       = errors.New("invalid set")
)

// Validate reports the first violated rep scheme invariant.
func (r RepScheme) Validate() error {
	switch {
	case r.WorkRangeMin < 0 || r.WorkRangeMax < 0 || r.ProgressMinClean < 0 || r.ProgressMaxClean < 0:
		return fmt.Errorf("%w: rep counts must not be negative", ErrInvalidRepScheme)
	case r.WorkRangeMin > r.WorkRangeMax:
		return fmt.Errorf("%w: work range min %d exceeds max %d", ErrInvalidRepScheme, r.WorkRangeMin, r.WorkRangeMax)
	case r.MaxDirtyRatioToProgress < 0 || r.MaxDirtyRatioToProgress > 1:
		return fmt.Errorf("%w: max dirty ratio %v outside [0,1]", ErrInvalidRepScheme, r.MaxDirtyRatioToProgress)
	case r.DirtyPenalty < 0:
		return fmt.Errorf("%w: dirty penalty %v is negative", ErrInvalidRepScheme, r.DirtyPenalty)
	}
	return nil
}

// Normalize clamps out-of-range values instead of rejecting them: negatives become zero, an inverted
// work range is swapped and the dirty ratio is clamped into [0,1].
func (r RepScheme) Normalize() RepScheme {
	r.WorkRangeMin = max(r.WorkRangeMin, 0)
	r.WorkRangeMax = max(r.WorkRangeMax, 0)
	if r.WorkRangeMin > r.WorkRangeMax {
		r.WorkRangeMin, r.WorkRangeMax = r.WorkRangeMax, r.WorkRangeMin
	}
	r.ProgressMinClean = max(r.ProgressMinClean, 0)
	r.ProgressMaxClean = max(r.ProgressMaxClean, 0)
	r.DirtyPenalty = max(r.DirtyPenalty, 0)
	r.MaxDirtyRatioToProgress = min(max(r.MaxDirtyRatioToProgress, 0), 1)
	return r
}

// ExerciseSettings is a user-editable exercise definition.
type ExerciseSettings struct {
	ID        string
	Name      string
	Equipment Equipment
	RepScheme RepScheme
	Notes     string
}

// Validate checks the rep scheme and that the equipment is set.
func (e ExerciseSettings) Validate() error {
	if e.Equipment == nil {
		return fmt.Errorf("exercise %s: %w: missing equipment", e.ID, ErrInvalidRepScheme)
	}
	if err := e.RepScheme.Validate(); err != nil {
		return fmt.Errorf("exercise %s: %w", e.ID, err)
	}
	return nil
}

// Normalize fills missing equipment with a machine and clamps the rep scheme and increments.
func (e ExerciseSettings) Normalize() ExerciseSettings {
	if e.Equipment == nil {
		e.Equipment = Machine{Increment: DefaultMachineIncrement}
	}
	e.Equipment = e.Equipment.normalize()
	e.RepScheme = e.RepScheme.Normalize()
	return e
}

// exerciseJSON is the flat persisted form of ExerciseSettings.
type exerciseJSON struct {
	ID                       string        `json:"id"`
	Name                     string        `json:"name"`
	Equipment                EquipmentKind `json:"equipment"`
	WorkRangeMin             *int          `json:"workRangeMin,omitempty"`
	WorkRangeMax             *int          `json:"workRangeMax,omitempty"`
	ProgressMinClean         *int          `json:"progressMinClean,omitempty"`
	ProgressMaxClean         *int          `json:"progressMaxClean,omitempty"`
	DirtyPenalty             *float64      `json:"dirtyPenalty,omitempty"`
	MaxDirtyRatioToProgress  *float64      `json:"maxDirtyRatioToProgress,omitempty"`
	DumbbellIncrementPerHand *float64      `json:"dumbbellIncrementPerHand,omitempty"`
	BarbellIncrementPerSide  *float64      `json:"barbellIncrementPerSide,omitempty"`
	BarWeight                *float64      `json:"barWeight,omitempty"`
	FlatIncrement            *float64      `json:"flatIncrement,omitempty"`
	Notes                    string        `json:"notes,omitempty"`
}

func (e ExerciseSettings) MarshalJSON() ([]byte, error) {
	r := e.RepScheme
	out := exerciseJSON{
		ID:                       e.ID,
		Name:                     e.Name,
		Equipment:                KindOf(e.Equipment),
		WorkRangeMin:             &r.WorkRangeMin,
		WorkRangeMax:             &r.WorkRangeMax,
		ProgressMinClean:         &r.ProgressMinClean,
		ProgressMaxClean:         &r.ProgressMaxClean,
		DirtyPenalty:             &r.DirtyPenalty,
		MaxDirtyRatioToProgress:  &r.MaxDirtyRatioToProgress,
		DumbbellIncrementPerHand: nil,
		BarbellIncrementPerSide:  nil,
		BarWeight:                nil,
		FlatIncrement:            nil,
		Notes:                    e.Notes,
	}
	switch eq := e.Equipment.(type) {
	case Dumbbell:
		out.DumbbellIncrementPerHand = &eq.IncrementPerHand
	case Barbell:
		out.BarbellIncrementPerSide = &eq.IncrementPerSide
		out.BarWeight = &eq.BarWeight
	case Machine:
		out.FlatIncrement = &eq.Increment
	case Cable:
		out.FlatIncrement = &eq.Increment
	case Bodyweight:
		out.FlatIncrement = &eq.Increment
	case nil:
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal exercise %s: %w", e.ID, err)
	}
	return data, nil
}

// UnmarshalJSON fills absent fields from the defaults and normalizes the rep scheme.
func (e *ExerciseSettings) UnmarshalJSON(data []byte) error {
	var in exerciseJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("unmarshal exercise: %w", err)
	}
	eq, err := DefaultEquipment(in.Equipment)
	if err != nil {
		return fmt.Errorf("exercise %s: %w", in.ID, err)
	}
	switch v := eq.(type) {
	case Dumbbell:
		v.IncrementPerHand = ptr.Deref(in.DumbbellIncrementPerHand, v.IncrementPerHand)
		eq = v
	case Barbell:
		v.IncrementPerSide = ptr.Deref(in.BarbellIncrementPerSide, v.IncrementPerSide)
		v.BarWeight = ptr.Deref(in.BarWeight, v.BarWeight)
		eq = v
	case Machine:
		v.Increment = ptr.Deref(in.FlatIncrement, v.Increment)
		eq = v
	case Cable:
		v.Increment = ptr.Deref(in.FlatIncrement, v.Increment)
		eq = v
	case Bodyweight:
		v.Increment = ptr.Deref(in.FlatIncrement, v.Increment)
		eq = v
	}

	r := DefaultRepScheme()
	r.WorkRangeMin = ptr.Deref(in.WorkRangeMin, r.WorkRangeMin)
	r.WorkRangeMax = ptr.Deref(in.WorkRangeMax, r.WorkRangeMax)
	r.ProgressMinClean = ptr.Deref(in.ProgressMinClean, r.ProgressMinClean)
	r.ProgressMaxClean = ptr.Deref(in.ProgressMaxClean, r.ProgressMaxClean)
	r.DirtyPenalty = ptr.Deref(in.DirtyPenalty, r.DirtyPenalty)
	r.MaxDirtyRatioToProgress = ptr.Deref(in.MaxDirtyRatioToProgress, r.MaxDirtyRatioToProgress)

	*e = ExerciseSettings{
		ID:        in.ID,
		Name:      in.Name,
		Equipment: eq.normalize(),
		RepScheme: r.Normalize(),
		Notes:     in.Notes,
	}
	return nil
}

// SetKind tags a set as a regular working set or a drop set.
type SetKind string

const (
	SetKindNormal SetKind = "normal"
	SetKindDrop   SetKind = "drop"
)

// SetEntry is one logged set. The load is either a scalar Weight (per hand for dumbbells, total
// otherwise) or per-side Plates for barbells, never both.
type SetEntry struct {
	ID         string              `json:"id"`
	SessionID  string              `json:"sessionId"`
	ExerciseID string              `json:"exerciseId"`
	CleanReps  int                 `json:"cleanReps"`
	DirtyReps  int                 `json:"dirtyReps"`
	Weight     *float64            `json:"weight,omitempty"`
	Plates     *plates.PlateCounts `json:"plates,omitempty"`
	Kind       SetKind             `json:"kind,omitempty"`
	// ParentSetID points at the set a drop set followed. It is only a lookup hint.
	ParentSetID string    `json:"parentSetId,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Validate reports whether the set mixes load representations or carries a dangling drop tag.
func (s SetEntry) Validate() error {
	if s.Weight != nil && s.Plates != nil {
		return fmt.Errorf("%w: set %s has both a scalar weight and plates", ErrInvalidSet, s.ID)
	}
	if s.Kind != "" && s.Kind != SetKindNormal && s.Kind != SetKindDrop {
		return fmt.Errorf("%w: set %s has unknown kind %q", ErrInvalidSet, s.ID, s.Kind)
	}
	return nil
}

// Normalize clamps negative reps and weights to zero and fills the default kind.
func (s SetEntry) Normalize() SetEntry {
	s.CleanReps = max(s.CleanReps, 0)
	s.DirtyReps = max(s.DirtyReps, 0)
	if s.Weight != nil {
		w := max(*s.Weight, 0)
		s.Weight = &w
	}
	if s.Plates != nil {
		p := s.Plates.Add(plates.PlateCounts{})
		s.Plates = &p
	}
	if s.Kind == "" {
		s.Kind = SetKindNormal
	}
	return s
}

// IsDrop reports whether the set is a drop set.
func (s SetEntry) IsDrop() bool {
	return s.Kind == SetKindDrop
}

// TotalReps is clean plus dirty reps.
func (s SetEntry) TotalReps() int {
	return max(s.CleanReps, 0) + max(s.DirtyReps, 0)
}
