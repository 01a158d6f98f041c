package task

import "time"

// Toggle flips the task between todo and done at instant now.
//
// Completing a recurring task also yields its next occurrence, which is
// returned first so that it is written above the completed line:
// [next, toggled]. Otherwise the result is [toggled].
func (t Task) Toggle(s Settings, now time.Time) []Task {
	now = now.In(s.location())

	toggled := t
	var tasks []Task

	if t.Status == Todo {
		toggled.Status = Done
		toggled.StatusMarker = "x"
		toggled.Done = Date{Time: now, HasTime: s.DoneTime, Valid: true}
		if !s.DoneTime {
			toggled.Done.Time = midnight(now)
		}

		if t.Recurrence != nil {
			if due, ok := t.nextDue(s, now); ok {
				next := t
				next.Due = due
				// A block link identifies exactly one line.
				next.BlockLink = ""
				tasks = append(tasks, next)
			}
		}
	} else {
		toggled.Status = Todo
		toggled.StatusMarker = " "
		toggled.Done = Date{}
	}

	return append(tasks, toggled)
}

// nextDue computes the first occurrence after the later of today and the
// current due date, with the rule anchored on the due date (or today when
// there is none) so that the interval phase is kept.
func (t Task) nextDue(s Settings, now time.Time) (Date, bool) {
	ref := now
	if t.Due.Valid {
		ref = t.Due.Time
	}
	// Occurrences are computed on wall-clock dates, at the end of the day,
	// independent of the zone.
	start := endOfDayWallClock(ref)
	after := endOfDayWallClock(now)
	if start.After(after) {
		after = start
	}

	next, ok := t.Recurrence.WithStart(start).Next(after)
	if !ok {
		return Date{}, false
	}

	var hour, minute int
	if t.Due.Valid && t.Due.HasTime {
		hour, minute = t.Due.Time.Hour(), t.Due.Time.Minute()
	}
	return Date{
		Time:    time.Date(next.Year(), next.Month(), next.Day(), hour, minute, 0, 0, s.location()),
		HasTime: t.Due.Valid && t.Due.HasTime,
		Valid:   true,
	}, true
}

func endOfDayWallClock(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, time.UTC)
}
