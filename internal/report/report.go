// Package report renders a day plan as Markdown and, through goldmark, as HTML.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/myrjola/liftlog/internal/state"
	"github.com/myrjola/liftlog/internal/workout"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Markdown renders plan as a Markdown document with a summary table and one section per exercise.
func Markdown(plan state.DayPlan) string {
	var b strings.Builder

	title := plan.Date.Format("Monday, 2 January 2006")
	if plan.WorkoutName != "" {
		title += ": " + escape(plan.WorkoutName)
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if plan.ActiveWeekName != "" {
		fmt.Fprintf(&b, "Active week: %s\n\n", escape(plan.ActiveWeekName))
	}

	switch {
	case plan.Resolution.StaleWorkoutID != "":
		b.WriteString("The scheduled workout has been deleted. Assign another one or enjoy the rest.\n")
		return b.String()
	case plan.IsRest():
		b.WriteString("Rest day.\n")
		return b.String()
	}

	if plan.Session != nil {
		fmt.Fprintf(&b, "Session %s, %d sets logged.\n\n", plan.Session.Status, len(plan.Session.Sets))
	}

	b.WriteString("| Exercise | Last | Action | Next |\n|---|---|---|---|\n")
	for _, e := range plan.Exercises {
		last, action, next := "-", "-", "-"
		if s := e.Suggestion; s != nil {
			last = describeSet(e.Exercise, s.Set)
			action = string(s.Action)
			next = workout.FormatWeight(s.NextWeight)
			if s.PlateDelta != nil {
				next += " (add " + s.PlateDelta.String() + " per side)"
			}
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", escape(e.Name), last, action, next)
	}

	for _, e := range plan.Exercises {
		fmt.Fprintf(&b, "\n## %s\n\n", escape(e.Name))
		if !e.Known {
			b.WriteString("This exercise has been deleted.\n")
			continue
		}
		if s := e.Suggestion; s != nil {
			fmt.Fprintf(&b, "**%s.** %s %s\n", capitalize(string(s.Action)), s.Assessment, s.Goal)
			if s.NextPlates != nil {
				fmt.Fprintf(&b, "\nLoad %s per side.", s.NextPlates.String())
				if s.UnloadedPerSide > 0 {
					fmt.Fprintf(&b, " %s per side cannot be loaded with the available plates.",
						workout.FormatWeight(s.UnloadedPerSide))
				}
				b.WriteString("\n")
			}
		} else {
			b.WriteString("No history yet. Pick a load you can do for the work range.\n")
		}
		if len(e.SetsToday) > 0 {
			b.WriteString("\nToday:\n\n")
			for i, set := range e.SetsToday {
				fmt.Fprintf(&b, "%d. %s\n", i+1, describeSet(e.Exercise, set))
			}
		}
	}
	return b.String()
}

// HTML renders the Markdown of plan to an HTML fragment.
func HTML(plan state.DayPlan) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(plan)), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

func describeSet(exercise workout.ExerciseSettings, set workout.SetEntry) string {
	load := workout.FormatWeight(workout.TotalWeight(exercise, set))
	if set.Plates != nil {
		load += " (" + set.Plates.String() + " per side)"
	}
	out := fmt.Sprintf("%s × %d clean", load, set.CleanReps)
	if set.DirtyReps > 0 {
		out += fmt.Sprintf(" + %d dirty", set.DirtyReps)
	}
	if set.IsDrop() {
		out += ", drop set"
	}
	if set.Notes != "" {
		out += ", " + escape(set.Notes)
	}
	return out
}

//nolint:gochecknoglobals // immutable replacer
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "|", `\|`, "[", `\[`, "]", `\]`, "<", "&lt;", "#", `\#`,
)

// escape keeps user-entered names from being read as Markdown.
func escape(s string) string {
	return markdownEscaper.Replace(s)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
