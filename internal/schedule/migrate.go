package schedule

import (
	"fmt"
)

// Identifiers of the weeks created by migration. They are fixed so that migrating the same legacy
// document twice yields the same plan.
const (
	migratedWeekID     = "week-1"
	migratedWeekName   = "Week 1"
	duplicateWeekID    = "week-2"
	duplicateWeekName  = "Week 2"
	migratedWeekPrefix = "week-"
)

// EnsureV2 returns plan in the v2 shape. A plan that already has library, settings and a split
// with at least one week is returned as is. An empty split gets a single rest week. Otherwise every legacy template becomes a library item, the first template of
// each weekday is scheduled in week 1 (later ones stay in the library only), week 1 is copied by
// value into week 2 and week 1 becomes active. Structures the plan already has are kept. The
// input is never modified.
func EnsureV2(plan Plan) Plan {
	if plan.HasV2() && len(plan.Split.Weeks) > 0 {
		return plan
	}

	out := plan.Clone()

	if out.Library == nil {
		out.Library = make([]Workout, 0, len(plan.Legacy))
		for _, t := range plan.Legacy {
			out.Library = append(out.Library, Workout{
				ID:          t.ID,
				Name:        t.Name,
				ExerciseIDs: append([]string{}, t.ExerciseIDs...),
			})
		}
	}

	if out.Split == nil {
		first := NewWeek(migratedWeekID, migratedWeekName)
		for _, t := range plan.Legacy {
			day, ok := ParseDayName(string(t.Day))
			if !ok {
				continue
			}
			i := day.Index()
			if !first.Days[i].IsRest() {
				continue
			}
			first.Days[i].WorkoutID = t.ID
		}
		second := first
		second.ID = duplicateWeekID
		second.Name = duplicateWeekName
		out.Split = &Split{Weeks: []Week{first, second}}
	}

	if len(out.Split.Weeks) == 0 {
		out.Split.Weeks = []Week{NewWeek(migratedWeekID, migratedWeekName)}
	}

	if out.Settings == nil {
		out.Settings = &Settings{ActiveWeekID: out.Split.Weeks[0].ID}
	}

	return out
}

// nextWeekID returns the first "week-N" id not used by split.
func nextWeekID(split Split) string {
	for n := len(split.Weeks) + 1; ; n++ {
		id := fmt.Sprintf("%s%d", migratedWeekPrefix, n)
		if split.weekIndex(id) < 0 {
			return id
		}
	}
}
