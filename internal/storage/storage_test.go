package storage

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mdtasks/internal/task"
)

func openStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "mdtasks.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestSavedQueries(t *testing.T) {
	s, _ := openStore(t)

	require.NoError(t, s.SaveQuery("today", "due today"))
	require.NoError(t, s.SaveQuery("open", "not done"))
	require.NoError(t, s.SaveQuery("today", "due today\nnot done"))

	q, err := s.Query("today")
	require.NoError(t, err)
	assert.Equal(t, "due today\nnot done", q.Source)
	assert.False(t, q.UpdatedAt.IsZero())

	all, err := s.ListQueries()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "open", all[0].Name)
	assert.Equal(t, "today", all[1].Name)

	require.NoError(t, s.DeleteQuery("open"))
	_, err = s.Query("open")
	assert.ErrorIs(t, err, ErrQueryNotFound)
	assert.ErrorIs(t, s.DeleteQuery("open"), ErrQueryNotFound)
}

func TestHistory(t *testing.T) {
	s, _ := openStore(t)
	at := time.Date(2021, time.September, 12, 9, 0, 0, 0, time.UTC)
	due := time.Date(2021, time.September, 19, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.RecordToggle(Toggle{Path: "a.md", Line: 2, Description: "first", Status: "Done", At: at}))
	require.NoError(t, s.RecordToggle(Toggle{
		Path:        "b.md",
		Line:        5,
		Description: "water plants",
		Status:      "Done",
		SpawnedDue:  sql.NullTime{Time: due, Valid: true},
		At:          at.Add(time.Minute),
	}))
	require.NoError(t, s.RecordToggle(Toggle{Path: "a.md", Line: 2, Description: "first", Status: "Todo"}))

	all, err := s.History(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Todo", all[0].Status)
	assert.False(t, all[0].At.IsZero())

	recent, err := s.History(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "water plants", recent[1].Description)
	assert.Equal(t, 5, recent[1].Line)
	assert.True(t, recent[1].SpawnedDue.Valid)
	assert.True(t, due.Equal(recent[1].SpawnedDue.Time))
	assert.True(t, at.Add(time.Minute).Equal(recent[1].At))
	assert.False(t, all[2].SpawnedDue.Valid)
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	s, path := openStore(t)
	require.NoError(t, s.SaveQuery("open", "not done"))
	require.NoError(t, s.RecordToggle(Toggle{Path: "a.md", Status: "Done"}))
	require.NoError(t, s.Close())

	again, err := Open(path)
	require.NoError(t, err)
	defer again.Close()

	q, err := again.Query("open")
	require.NoError(t, err)
	assert.Equal(t, "not done", q.Source)

	h, err := again.History(0)
	require.NoError(t, err)
	assert.Len(t, h, 1)
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "file:memdb?mode=memory", sqliteDSN("file:memdb?mode=memory"))

	dsn := sqliteDSN(filepath.Join(t.TempDir(), "x.db"))
	assert.Contains(t, dsn, "file://")
	assert.Contains(t, dsn, "mode=rwc")
	assert.Contains(t, dsn, "busy_timeout")
}

func TestToggleOf(t *testing.T) {
	s := task.DefaultSettings()
	s.Location = time.UTC
	original, ok := task.Parse("- [ ] water 🔁 every week 🗓 2021-09-12", task.Position{Path: "a.md", Line: 3}, s)
	require.True(t, ok)
	at := time.Date(2021, time.September, 12, 9, 0, 0, 0, time.UTC)

	got := ToggleOf(original, original.Toggle(s, at), at)
	assert.Equal(t, "a.md", got.Path)
	assert.Equal(t, 3, got.Line)
	assert.Equal(t, "water", got.Description)
	assert.Equal(t, "Done", got.Status)
	assert.True(t, got.SpawnedDue.Valid)
	assert.Equal(t, time.Date(2021, time.September, 19, 0, 0, 0, 0, time.UTC), got.SpawnedDue.Time)
}
