package state

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/liftlog/internal/workout"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
)

// Session is one performance of a workout on a calendar date. It starts active and moves once to
// completed or skipped, after which no sets can be added.
type Session struct {
	ID        string `json:"id"`
	WorkoutID string `json:"workoutId"`
	// Date is the calendar date the session was started on, formatted as [time.DateOnly].
	Date       string             `json:"date"`
	Status     Status             `json:"status"`
	Sets       []workout.SetEntry `json:"sets"`
	StartedAt  time.Time          `json:"startedAt"`
	FinishedAt *time.Time         `json:"finishedAt,omitempty"`
}

// IsClosed reports whether the session has been completed or skipped.
func (s Session) IsClosed() bool {
	return s.Status == StatusCompleted || s.Status == StatusSkipped
}

func (s Session) clone() Session {
	sets := make([]workout.SetEntry, len(s.Sets))
	for i, set := range s.Sets {
		sets[i] = cloneSet(set)
	}
	s.Sets = sets
	if s.FinishedAt != nil {
		t := *s.FinishedAt
		s.FinishedAt = &t
	}
	return s
}

func (s Session) normalize() Session {
	switch s.Status {
	case StatusActive, StatusCompleted, StatusSkipped:
	default:
		s.Status = StatusActive
		if s.FinishedAt != nil {
			s.Status = StatusCompleted
		}
	}
	if s.Sets == nil {
		s.Sets = []workout.SetEntry{}
	}
	for i, set := range s.Sets {
		set = set.Normalize()
		if set.SessionID == "" {
			set.SessionID = s.ID
		}
		s.Sets[i] = set
	}
	return s
}

// DateOf formats the calendar date of t the way sessions store it.
func DateOf(t time.Time) string {
	return t.Format(time.DateOnly)
}

// StartSession opens a session of workoutID dated now. An active session of the same workout on
// the same date is returned instead of opening a second one.
func StartSession(doc Document, workoutID string, now time.Time) (Document, Session, error) {
	if _, ok := doc.Workout(workoutID); !ok {
		return Document{}, Session{}, fmt.Errorf("start session of workout %s: %w", workoutID, ErrNotFound)
	}
	date := DateOf(now)
	for _, s := range doc.Sessions {
		if s.WorkoutID == workoutID && s.Date == date && s.Status == StatusActive {
			return doc, s.clone(), nil
		}
	}
	session := Session{
		ID:         uuid.NewString(),
		WorkoutID:  workoutID,
		Date:       date,
		Status:     StatusActive,
		Sets:       []workout.SetEntry{},
		StartedAt:  now,
		FinishedAt: nil,
	}
	out := doc.Clone()
	out.Sessions = append(out.Sessions, session)
	return out, session.clone(), nil
}

// ActiveSession returns the most recently started session that is still active.
func (d Document) ActiveSession() (Session, bool) {
	for _, s := range slices.Backward(d.Sessions) {
		if s.Status == StatusActive {
			return s.clone(), true
		}
	}
	return Session{}, false //nolint:exhaustruct // none active
}

// LogSet appends set to an active session. The session, timestamp and id are filled in. The load
// must match the exercise's equipment, see [workout.ValidateLoad]. A drop set may name a parent
// that does not exist.
func LogSet(doc Document, sessionID string, set workout.SetEntry, now time.Time) (Document, workout.SetEntry, error) {
	i := doc.sessionIndex(sessionID)
	if i < 0 {
		return Document{}, workout.SetEntry{}, fmt.Errorf("log set to session %s: %w", sessionID, ErrNotFound)
	}
	if doc.Sessions[i].IsClosed() {
		return Document{}, workout.SetEntry{}, fmt.Errorf("log set to session %s: %w", sessionID, ErrSessionClosed)
	}
	exercise, ok := doc.Exercise(set.ExerciseID)
	if !ok {
		return Document{}, workout.SetEntry{}, fmt.Errorf("log set of exercise %s: %w", set.ExerciseID, ErrNotFound)
	}
	if err := workout.ValidateLoad(exercise, set); err != nil {
		return Document{}, workout.SetEntry{}, fmt.Errorf("log set: %w", err)
	}
	set = cloneSet(set).Normalize()
	set.ID = uuid.NewString()
	set.SessionID = sessionID
	set.CreatedAt = now
	if !set.IsDrop() {
		set.ParentSetID = ""
	}

	out := doc.Clone()
	out.Sessions[i].Sets = append(out.Sessions[i].Sets, set)
	return out, cloneSet(set), nil
}

// SetEdit holds the editable fields of a logged set. Nil fields are left unchanged.
type SetEdit struct {
	CleanReps *int
	DirtyReps *int
	Notes     *string
}

// EditSet changes the reps or notes of a logged set. Load, exercise and timestamps never change.
// Sets of closed sessions can still be corrected.
func EditSet(doc Document, setID string, edit SetEdit) (Document, workout.SetEntry, error) {
	out := doc.Clone()
	for si := range out.Sessions {
		for i := range out.Sessions[si].Sets {
			set := &out.Sessions[si].Sets[i]
			if set.ID != setID {
				continue
			}
			if edit.CleanReps != nil {
				set.CleanReps = max(*edit.CleanReps, 0)
			}
			if edit.DirtyReps != nil {
				set.DirtyReps = max(*edit.DirtyReps, 0)
			}
			if edit.Notes != nil {
				set.Notes = strings.TrimSpace(*edit.Notes)
			}
			return out, cloneSet(*set), nil
		}
	}
	return Document{}, workout.SetEntry{}, fmt.Errorf("edit set %s: %w", setID, ErrNotFound)
}

// CompleteSession closes an active session as completed.
func CompleteSession(doc Document, sessionID string, now time.Time) (Document, error) {
	return closeSession(doc, sessionID, StatusCompleted, now)
}

// SkipSession closes an active session as skipped.
func SkipSession(doc Document, sessionID string, now time.Time) (Document, error) {
	return closeSession(doc, sessionID, StatusSkipped, now)
}

func closeSession(doc Document, sessionID string, status Status, now time.Time) (Document, error) {
	i := doc.sessionIndex(sessionID)
	if i < 0 {
		return Document{}, fmt.Errorf("close session %s: %w", sessionID, ErrNotFound)
	}
	if doc.Sessions[i].IsClosed() {
		return Document{}, fmt.Errorf("close session %s as %s: already %s: %w",
			sessionID, status, doc.Sessions[i].Status, ErrSessionClosed)
	}
	out := doc.Clone()
	out.Sessions[i].Status = status
	out.Sessions[i].FinishedAt = &now
	return out, nil
}
