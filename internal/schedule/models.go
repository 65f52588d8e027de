// Package schedule maps calendar days to workouts through a multi-week split and migrates the
// legacy single-week template format into it.
package schedule

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/myrjola/liftlog/internal/errors"
)

var (
	ErrNotFound     = errors.NewSentinel("not found")
	ErrLastWeek     = errors.NewSentinel("a split must keep at least one week")
	ErrDuplicateID  = errors.NewSentinel("duplicate id")
	ErrInvalidSplit = errors.NewSentinel("invalid split")
	ErrEmptyID      = errors.NewSentinel("empty id")
)

// DayName is a weekday as written in documents, e.g. "Monday".
type DayName string

const (
	Monday    DayName = "Monday"
	Tuesday   DayName = "Tuesday"
	Wednesday DayName = "Wednesday"
	Thursday  DayName = "Thursday"
	Friday    DayName = "Friday"
	Saturday  DayName = "Saturday"
	Sunday    DayName = "Sunday"
)

// DaysPerWeek is the number of slots in every week.
const DaysPerWeek = 7

// Weekdays lists the canonical slot order of a week.
var Weekdays = [DaysPerWeek]DayName{ //nolint:gochecknoglobals // fixed calendar
	Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday,
}

// Index returns the slot index of d, or -1 when d is not a weekday name.
func (d DayName) Index() int {
	return slices.Index(Weekdays[:], d)
}

// ParseDayName matches s against the weekday names ignoring case and surrounding space.
func ParseDayName(s string) (DayName, bool) {
	s = strings.TrimSpace(s)
	for _, d := range Weekdays {
		if strings.EqualFold(s, string(d)) {
			return d, true
		}
	}
	return "", false
}

// DayOf returns the day name of a [time.Weekday].
func DayOf(w time.Weekday) DayName {
	// time.Weekday starts on Sunday, the split starts on Monday.
	return Weekdays[(int(w)+DaysPerWeek-1)%DaysPerWeek]
}

// Workout is a library item: a named, ordered list of exercises.
type Workout struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	ExerciseIDs []string `json:"exerciseIds"`
}

func (w Workout) clone() Workout {
	w.ExerciseIDs = slices.Clone(w.ExerciseIDs)
	if w.ExerciseIDs == nil {
		w.ExerciseIDs = []string{}
	}
	return w
}

// Day is a weekday slot. An empty WorkoutID is a rest day and is written as null.
type Day struct {
	Name      DayName
	WorkoutID string
}

// IsRest reports whether no workout is scheduled.
func (d Day) IsRest() bool {
	return d.WorkoutID == ""
}

type dayJSON struct {
	Name      DayName `json:"name"`
	WorkoutID *string `json:"workoutId"`
}

func (d Day) MarshalJSON() ([]byte, error) {
	out := dayJSON{Name: d.Name, WorkoutID: nil}
	if d.WorkoutID != "" {
		out.WorkoutID = &d.WorkoutID
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal day %s: %w", d.Name, err)
	}
	return data, nil
}

func (d *Day) UnmarshalJSON(data []byte) error {
	var in dayJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("unmarshal day: %w", err)
	}
	d.Name = in.Name
	d.WorkoutID = ""
	if in.WorkoutID != nil {
		d.WorkoutID = *in.WorkoutID
	}
	return nil
}

// Week holds exactly one slot per weekday in canonical order. Weeks are plain values, copying one
// never shares slot storage with the original.
type Week struct {
	ID   string
	Name string
	Days [DaysPerWeek]Day
}

// NewWeek returns a week of rest days.
func NewWeek(id, name string) Week {
	w := Week{ID: id, Name: name, Days: [DaysPerWeek]Day{}}
	for i, d := range Weekdays {
		w.Days[i] = Day{Name: d, WorkoutID: ""}
	}
	return w
}

// Slot returns the slot for day.
func (w Week) Slot(day DayName) Day {
	if i := day.Index(); i >= 0 {
		return w.Days[i]
	}
	return Day{Name: day, WorkoutID: ""}
}

type weekJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Days []Day  `json:"days"`
}

func (w Week) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(weekJSON{ID: w.ID, Name: w.Name, Days: w.Days[:]})
	if err != nil {
		return nil, fmt.Errorf("marshal week %s: %w", w.ID, err)
	}
	return data, nil
}

// UnmarshalJSON places each day in its canonical slot. Unknown day names are dropped and missing
// ones become rest days, strict checking is the job of [ParseSplit].
func (w *Week) UnmarshalJSON(data []byte) error {
	var in weekJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("unmarshal week: %w", err)
	}
	out := NewWeek(in.ID, in.Name)
	seen := make(map[DayName]bool, DaysPerWeek)
	for _, d := range in.Days {
		i := d.Name.Index()
		if i < 0 || seen[d.Name] {
			continue
		}
		seen[d.Name] = true
		out.Days[i] = d
	}
	*w = out
	return nil
}

// Split is the multi-week schedule.
type Split struct {
	Weeks []Week `json:"weeks"`
}

func (s Split) clone() Split {
	// Week is a value type, cloning the slice is a deep copy.
	return Split{Weeks: slices.Clone(s.Weeks)}
}

func (s Split) weekIndex(id string) int {
	return slices.IndexFunc(s.Weeks, func(w Week) bool { return w.ID == id })
}

// Settings holds schedule preferences.
type Settings struct {
	ActiveWeekID string `json:"activeWeekId,omitempty"`
}

// LegacyTemplate is a workout of the single-week format, assigned directly to a weekday.
type LegacyTemplate struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Day         DayName  `json:"day"`
	ExerciseIDs []string `json:"exerciseIds"`
}

// Plan is the schedule part of the state snapshot. A v2 plan has all of Library, Split and
// Settings; Legacy is only consulted when none of them exist.
type Plan struct {
	Library  []Workout        `json:"workoutLibrary"`
	Split    *Split           `json:"split,omitempty"`
	Settings *Settings        `json:"settings,omitempty"`
	Legacy   []LegacyTemplate `json:"workouts,omitempty"`
}

// HasV2 reports whether the plan already carries every v2 structure.
func (p Plan) HasV2() bool {
	return p.Library != nil && p.Split != nil && p.Settings != nil
}

// hasAnyV2 reports whether at least one v2 structure exists.
func (p Plan) hasAnyV2() bool {
	return p.Library != nil || p.Split != nil || p.Settings != nil
}

// Clone returns a deep copy of p.
func (p Plan) Clone() Plan {
	out := Plan{Library: nil, Split: nil, Settings: nil, Legacy: nil}
	if p.Library != nil {
		out.Library = make([]Workout, len(p.Library))
		for i, w := range p.Library {
			out.Library[i] = w.clone()
		}
	}
	if p.Split != nil {
		s := p.Split.clone()
		out.Split = &s
	}
	if p.Settings != nil {
		s := *p.Settings
		out.Settings = &s
	}
	if p.Legacy != nil {
		out.Legacy = make([]LegacyTemplate, len(p.Legacy))
		for i, t := range p.Legacy {
			t.ExerciseIDs = slices.Clone(t.ExerciseIDs)
			out.Legacy[i] = t
		}
	}
	return out
}

// Workout looks up a library item by id.
func (p Plan) Workout(id string) (Workout, bool) {
	i := slices.IndexFunc(p.Library, func(w Workout) bool { return w.ID == id })
	if i < 0 {
		return Workout{}, false //nolint:exhaustruct // not found
	}
	return p.Library[i].clone(), true
}

// Week looks up a week by id.
func (p Plan) Week(id string) (Week, bool) {
	if p.Split == nil {
		return Week{}, false //nolint:exhaustruct // not found
	}
	i := p.Split.weekIndex(id)
	if i < 0 {
		return Week{}, false //nolint:exhaustruct // not found
	}
	return p.Split.Weeks[i], true
}

// ActiveWeek returns the selected week, falling back to the first week when the selection is unset
// or points at a deleted week.
func (p Plan) ActiveWeek() (Week, bool) {
	if p.Split == nil || len(p.Split.Weeks) == 0 {
		return Week{}, false //nolint:exhaustruct // no weeks
	}
	if p.Settings != nil && p.Settings.ActiveWeekID != "" {
		if w, ok := p.Week(p.Settings.ActiveWeekID); ok {
			return w, true
		}
	}
	return p.Split.Weeks[0], true
}
