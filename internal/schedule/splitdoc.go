package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// splitDocument is the split-only export format.
type splitDocument struct {
	Weeks []Week `json:"weeks"`
}

// ExportSplit encodes the plan's split as a standalone document.
func ExportSplit(plan Plan) ([]byte, error) {
	doc := splitDocument{Weeks: []Week{}}
	if plan.Split != nil {
		doc.Weeks = plan.Split.Weeks
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal split: %w", err)
	}
	return data, nil
}

// ParseSplit strictly validates a split document against library. The first problem found is
// reported wrapped in [ErrInvalidSplit].
func ParseSplit(data []byte, library []Workout) (Split, error) {
	top, err := object(data, "document")
	if err != nil {
		return Split{}, err
	}
	if err = exactKeys(top, "document", "weeks"); err != nil {
		return Split{}, err
	}

	var rawWeeks []json.RawMessage
	if !isArray(top["weeks"]) {
		return Split{}, invalid("weeks must be an array")
	}
	if err = json.Unmarshal(top["weeks"], &rawWeeks); err != nil {
		return Split{}, invalid("weeks must be an array")
	}
	if len(rawWeeks) == 0 {
		return Split{}, invalid("weeks must not be empty")
	}

	known := make(map[string]bool, len(library))
	for _, w := range library {
		known[w.ID] = true
	}

	split := Split{Weeks: make([]Week, 0, len(rawWeeks))}
	seenWeeks := make(map[string]bool, len(rawWeeks))
	for i, raw := range rawWeeks {
		week, werr := parseWeek(raw, fmt.Sprintf("week %d", i+1), known)
		if werr != nil {
			return Split{}, werr
		}
		if seenWeeks[week.ID] {
			return Split{}, invalid(fmt.Sprintf("duplicate week id %q", week.ID))
		}
		seenWeeks[week.ID] = true
		split.Weeks = append(split.Weeks, week)
	}
	return split, nil
}

func parseWeek(raw json.RawMessage, where string, known map[string]bool) (Week, error) {
	fields, err := object(raw, where)
	if err != nil {
		return Week{}, err
	}
	if err = exactKeys(fields, where, "id", "name", "days"); err != nil {
		return Week{}, err
	}
	var id, name string
	if err = json.Unmarshal(fields["id"], &id); err != nil || id == "" {
		return Week{}, invalid(where + ": id must be a non-empty string")
	}
	where = fmt.Sprintf("week %q", id)
	if err = json.Unmarshal(fields["name"], &name); err != nil {
		return Week{}, invalid(where + ": name must be a string")
	}

	var rawDays []json.RawMessage
	if !isArray(fields["days"]) {
		return Week{}, invalid(where + ": days must be an array")
	}
	if err = json.Unmarshal(fields["days"], &rawDays); err != nil {
		return Week{}, invalid(where + ": days must be an array")
	}
	if len(rawDays) != DaysPerWeek {
		return Week{}, invalid(fmt.Sprintf("%s: expected %d days, got %d", where, DaysPerWeek, len(rawDays)))
	}

	week := NewWeek(id, name)
	seen := make(map[DayName]bool, DaysPerWeek)
	for _, rawDay := range rawDays {
		day, derr := parseDay(rawDay, where, known)
		if derr != nil {
			return Week{}, derr
		}
		if seen[day.Name] {
			return Week{}, invalid(fmt.Sprintf("%s: duplicate day %s", where, day.Name))
		}
		seen[day.Name] = true
		week.Days[day.Name.Index()] = day
	}
	return week, nil
}

func parseDay(raw json.RawMessage, where string, known map[string]bool) (Day, error) {
	fields, err := object(raw, where+" day")
	if err != nil {
		return Day{}, err
	}
	if err = exactKeys(fields, where+" day", "name", "workoutId"); err != nil {
		return Day{}, err
	}
	var name string
	if err = json.Unmarshal(fields["name"], &name); err != nil || DayName(name).Index() < 0 {
		return Day{}, invalid(fmt.Sprintf("%s: invalid day name %s", where, fields["name"]))
	}
	day := Day{Name: DayName(name), WorkoutID: ""}
	var workoutID *string
	if err = json.Unmarshal(fields["workoutId"], &workoutID); err != nil {
		return Day{}, invalid(fmt.Sprintf("%s: %s workoutId must be a string or null", where, name))
	}
	if workoutID != nil && *workoutID != "" {
		if !known[*workoutID] {
			return Day{}, invalid(fmt.Sprintf("%s: %s references unknown workout %q", where, name, *workoutID))
		}
		day.WorkoutID = *workoutID
	}
	return day, nil
}

// ImportSplit replaces the plan's split with the one in data. Nothing changes when data is
// invalid. The active week is kept when the new split still has it.
func ImportSplit(plan Plan, data []byte) (Plan, error) {
	split, err := ParseSplit(data, plan.Library)
	if err != nil {
		return Plan{}, fmt.Errorf("import split: %w", err)
	}
	out := plan.Clone()
	out.Split = &split
	active := split.Weeks[0].ID
	if plan.Settings != nil && split.weekIndex(plan.Settings.ActiveWeekID) >= 0 {
		active = plan.Settings.ActiveWeekID
	}
	out.Settings = &Settings{ActiveWeekID: active}
	if out.Library == nil {
		out.Library = []Workout{}
	}
	return out, nil
}

func invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidSplit, reason)
}

func object(data []byte, where string) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, invalid(where + " must be an object")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, invalid(fmt.Sprintf("%s must be an object: %v", where, err))
	}
	return fields, nil
}

func isArray(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func exactKeys(fields map[string]json.RawMessage, where string, want ...string) error {
	for _, k := range want {
		if _, ok := fields[k]; !ok {
			return invalid(fmt.Sprintf("%s: missing key %q", where, k))
		}
	}
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		if !slices.Contains(want, k) {
			return invalid(fmt.Sprintf("%s: unexpected key %q", where, k))
		}
	}
	return nil
}
