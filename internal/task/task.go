// Package task parses checklist lines carrying due, done and recurrence
// annotations into Task records, writes them back, and toggles them.
package task

import (
	"time"

	"mdtasks/internal/recurrence"
)

type Status int

const (
	Todo Status = iota
	Done
)

func (s Status) String() string {
	if s == Done {
		return "Done"
	}
	return "Todo"
}

// Date is an optional point in time. When HasTime is false the time of day is
// midnight, so date-only values compare by day.
type Date struct {
	Time    time.Time
	HasTime bool
	Valid   bool
}

// Task is one checklist line. Records are values: every transformation
// returns a new Task and leaves the receiver as it was.
type Task struct {
	Status Status
	// StatusMarker is the character found between the brackets, kept for
	// writing the line back unchanged.
	StatusMarker string
	Description  string

	Path string
	// Line is the zero-based line number the task was read from.
	Line        int
	Indentation string
	// SectionStart is the line the task's section starts on and
	// SectionIndex the position of the task among the tasks of that section.
	SectionStart    int
	SectionIndex    int
	PrecedingHeader string

	Due        Date
	Done       Date
	Recurrence *recurrence.Rule
	// BlockLink is the trailing "^id" anchor, without the leading space.
	BlockLink string
}

// Position is where a line sits in its document.
type Position struct {
	Path            string
	Line            int
	SectionStart    int
	SectionIndex    int
	PrecedingHeader string
}

// LayoutOptions suppress parts of a rendered task or task list.
type LayoutOptions struct {
	HideTaskCount      bool
	HideBacklinks      bool
	HideDoneDate       bool
	HideDoneTime       bool
	HideDueDate        bool
	HideDueTime        bool
	HideRecurrenceRule bool
	HideEditButton     bool
}

func (t Task) IsRecurring() bool {
	return t.Recurrence != nil
}

func (t Task) marker() string {
	if t.StatusMarker != "" {
		return t.StatusMarker
	}
	if t.Status == Done {
		return "x"
	}
	return " "
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
