package schedule

import (
	"time"
)

// Source tells where a Resolution came from.
type Source string

const (
	SourceSplit  Source = "split"
	SourceLegacy Source = "legacy"
	SourceNone   Source = "none"
)

// Resolution is the workout scheduled for a day.
type Resolution struct {
	// Workout is nil on rest days and when the scheduled workout no longer exists.
	Workout   *Workout
	WorkoutID string
	// StaleWorkoutID is set when the slot points at a deleted library item.
	StaleWorkoutID string
	ActiveWeekID   string
	Source         Source
}

// Resolve returns the workout that plan schedules on day.
//
// The active week's slot wins. A slot naming a deleted workout resolves to no workout rather than
// falling back further. Only a plan without any v2 structure falls back to the first legacy
// template assigned to the weekday.
func Resolve(plan Plan, day time.Weekday) Resolution {
	name := DayOf(day)
	res := Resolution{
		Workout:        nil,
		WorkoutID:      "",
		StaleWorkoutID: "",
		ActiveWeekID:   "",
		Source:         SourceNone,
	}

	if week, ok := plan.ActiveWeek(); ok {
		res.ActiveWeekID = week.ID
		slot := week.Slot(name)
		if !slot.IsRest() {
			w, found := plan.Workout(slot.WorkoutID)
			if !found {
				res.StaleWorkoutID = slot.WorkoutID
				return res
			}
			res.Workout = &w
			res.WorkoutID = w.ID
			res.Source = SourceSplit
			return res
		}
	}

	if !plan.hasAnyV2() {
		for _, t := range plan.Legacy {
			if d, ok := ParseDayName(string(t.Day)); ok && d == name {
				w := Workout{ID: t.ID, Name: t.Name, ExerciseIDs: append([]string{}, t.ExerciseIDs...)}
				res.Workout = &w
				res.WorkoutID = w.ID
				res.Source = SourceLegacy
				return res
			}
		}
	}

	return res
}

// ResolveDate is [Resolve] for the weekday of date.
func ResolveDate(plan Plan, date time.Time) Resolution {
	return Resolve(plan, date.Weekday())
}
