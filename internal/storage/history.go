package storage

import (
	"database/sql"
	"time"

	"mdtasks/internal/task"
)

// ToggleOf describes the toggle of original into out, as returned by
// task.Task.Toggle, for the history.
func ToggleOf(original task.Task, out []task.Task, at time.Time) Toggle {
	t := Toggle{
		Path:        original.Path,
		Line:        original.Line,
		Description: original.Description,
		At:          at,
	}
	if len(out) > 0 {
		t.Status = out[len(out)-1].Status.String()
	}
	if len(out) > 1 && out[0].Due.Valid {
		t.SpawnedDue = sql.NullTime{Time: out[0].Due.Time, Valid: true}
	}
	return t
}
