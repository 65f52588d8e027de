// Package state holds the full state document and every copy-on-write operation on it. Nothing in
// here modifies a Document in place: operations return a new one and the caller stores it.
package state

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/myrjola/liftlog/internal/errors"
	"github.com/myrjola/liftlog/internal/ptr"
	"github.com/myrjola/liftlog/internal/schedule"
	"github.com/myrjola/liftlog/internal/workout"
)

var (
	// ErrNotFound is shared with the schedule package so that a single check covers both.
	ErrNotFound      = schedule.ErrNotFound
	ErrSessionClosed = errors.NewSentinel("session is closed")
	ErrInvalidInput  = errors.NewSentinel("invalid input")
)

// Document is the full persisted state. The schedule fields are flattened into the top level.
type Document struct {
	Exercises []workout.ExerciseSettings `json:"exercises"`
	Sessions  []Session                  `json:"sessions"`
	schedule.Plan
}

// Decode parses a state document in either the current or the legacy shape. Legacy schedules are
// migrated here, once, so that the rest of the program only sees the current shape.
func Decode(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode state: %w", err)
	}
	if doc.Exercises == nil {
		doc.Exercises = []workout.ExerciseSettings{}
	}
	if doc.Sessions == nil {
		doc.Sessions = []Session{}
	}
	for i := range doc.Sessions {
		doc.Sessions[i] = doc.Sessions[i].normalize()
	}
	doc.Plan = schedule.EnsureV2(doc.Plan)
	// Every legacy template is a library item now.
	doc.Legacy = nil
	return doc, nil
}

// ValidateLoads checks every logged set against its exercise's equipment and returns the first
// mismatch. Sets of deleted exercises are skipped. Decode does not call it, since changing an
// exercise's equipment legitimately leaves older sets in the previous representation.
func (d Document) ValidateLoads() error {
	for _, s := range d.Sessions {
		for _, set := range s.Sets {
			exercise, ok := d.Exercise(set.ExerciseID)
			if !ok {
				continue
			}
			if err := workout.ValidateLoad(exercise, set); err != nil {
				return fmt.Errorf("session %s set %s: %w", s.ID, set.ID, err)
			}
		}
	}
	return nil
}

// Encode writes doc in the current shape.
func Encode(doc Document) ([]byte, error) {
	doc.Plan = schedule.EnsureV2(doc.Plan)
	doc.Legacy = nil
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	out := Document{
		Exercises: slices.Clone(d.Exercises),
		Sessions:  make([]Session, len(d.Sessions)),
		Plan:      d.Plan.Clone(),
	}
	for i, s := range d.Sessions {
		out.Sessions[i] = s.clone()
	}
	return out
}

// Exercise looks up an exercise by id.
func (d Document) Exercise(id string) (workout.ExerciseSettings, bool) {
	i := slices.IndexFunc(d.Exercises, func(e workout.ExerciseSettings) bool { return e.ID == id })
	if i < 0 {
		return workout.ExerciseSettings{}, false //nolint:exhaustruct // not found
	}
	return d.Exercises[i], true
}

// Session looks up a session by id.
func (d Document) Session(id string) (Session, bool) {
	i := d.sessionIndex(id)
	if i < 0 {
		return Session{}, false //nolint:exhaustruct // not found
	}
	return d.Sessions[i].clone(), true
}

func (d Document) sessionIndex(id string) int {
	return slices.IndexFunc(d.Sessions, func(s Session) bool { return s.ID == id })
}

func cloneSet(s workout.SetEntry) workout.SetEntry {
	s.Weight = ptr.Clone(s.Weight)
	s.Plates = ptr.Clone(s.Plates)
	return s
}
