package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utcSettings() Settings {
	s := DefaultSettings()
	s.Location = time.UTC
	return s
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustParse(t *testing.T, line string, s Settings) Task {
	t.Helper()
	task, ok := Parse(line, Position{Path: "notes.md"}, s)
	require.True(t, ok, line)
	return task
}

func TestParse_NotATask(t *testing.T) {
	for _, line := range []string{
		"",
		"plain text",
		"# heading",
		"- not a checklist item",
		"- [] missing marker",
		"-[ ] no space after bullet",
		"1. [ ] numbered",
	} {
		_, ok := Parse(line, Position{}, utcSettings())
		assert.False(t, ok, line)
	}
}

func TestParse_Basic(t *testing.T) {
	task := mustParse(t, "- [ ] take out the trash 🗓 2021-09-12", utcSettings())

	assert.Equal(t, Todo, task.Status)
	assert.Equal(t, " ", task.StatusMarker)
	assert.Equal(t, "take out the trash", task.Description)
	assert.Equal(t, "notes.md", task.Path)
	assert.Equal(t, Date{Time: day(2021, time.September, 12), Valid: true}, task.Due)
	assert.False(t, task.Done.Valid)
	assert.Nil(t, task.Recurrence)
}

func TestParse_KeepsPosition(t *testing.T) {
	pos := Position{Path: "a/b.md", SectionStart: 4, SectionIndex: 2, PrecedingHeader: "Chores"}
	task, ok := Parse("\t  * [ ] nested", pos, utcSettings())
	require.True(t, ok)

	assert.Equal(t, "\t  ", task.Indentation)
	assert.Equal(t, "a/b.md", task.Path)
	assert.Equal(t, 4, task.SectionStart)
	assert.Equal(t, 2, task.SectionIndex)
	assert.Equal(t, "Chores", task.PrecedingHeader)
	assert.Equal(t, "nested", task.Description)
}

func TestParse_StatusMarker(t *testing.T) {
	cases := []struct {
		line   string
		status Status
		marker string
	}{
		{"- [ ] a", Todo, " "},
		{"- [x] a", Done, "x"},
		{"- [X] a", Done, "X"},
		{"- [-] a", Done, "-"},
	}
	for _, c := range cases {
		task := mustParse(t, c.line, utcSettings())
		assert.Equal(t, c.status, task.Status, c.line)
		assert.Equal(t, c.marker, task.StatusMarker, c.line)
		assert.Equal(t, c.line, task.FileLine(utcSettings()))
	}
}

func TestParse_GlobalFilter(t *testing.T) {
	s := utcSettings()
	s.GlobalFilter = "#task"

	_, ok := Parse("- [ ] buy milk", Position{}, s)
	assert.False(t, ok)

	task, ok := Parse("- [ ] #task buy milk", Position{}, s)
	require.True(t, ok)
	assert.Equal(t, "#task buy milk", task.Description)
}

func TestParse_BlockLink(t *testing.T) {
	task := mustParse(t, "- [ ] review PR 🗓 2021-09-12 ^review-1", utcSettings())

	assert.Equal(t, "^review-1", task.BlockLink)
	assert.Equal(t, "review PR", task.Description)
	assert.True(t, task.Due.Valid)
	assert.Equal(t, "- [ ] review PR 🗓 2021-09-12 ^review-1", task.FileLine(utcSettings()))
}

func TestParse_DateTime(t *testing.T) {
	task := mustParse(t, "- [ ] call 🗓 2021-09-12 10:30", utcSettings())

	assert.True(t, task.Due.HasTime)
	assert.Equal(t, time.Date(2021, time.September, 12, 10, 30, 0, 0, time.UTC), task.Due.Time)
}

func TestParse_AlternativeSignifier(t *testing.T) {
	task := mustParse(t, "- [ ] a 📅 2021-09-12", utcSettings())

	assert.Equal(t, "a", task.Description)
	assert.Equal(t, day(2021, time.September, 12), task.Due.Time)
	assert.Equal(t, "- [ ] a 🗓 2021-09-12", task.FileLine(utcSettings()))
}

func TestParse_AnnotationsInAnyOrder(t *testing.T) {
	canonical := mustParse(t, "- [x] a 🔁 every week 🗓 2021-09-12 ✅ 2021-09-13", utcSettings())
	for _, line := range []string{
		"- [x] a 🗓 2021-09-12 🔁 every week ✅ 2021-09-13",
		"- [x] a ✅ 2021-09-13 🗓 2021-09-12 🔁 every week",
		"- [x] a ✅ 2021-09-13 🔁 every week 🗓 2021-09-12",
	} {
		task := mustParse(t, line, utcSettings())
		assert.Equal(t, canonical, task, line)
	}

	assert.Equal(t, "a", canonical.Description)
	assert.Equal(t, "every week", canonical.Recurrence.String())
	assert.Equal(t, day(2021, time.September, 13), canonical.Done.Time)
}

func TestParse_UnparsableDateIsDropped(t *testing.T) {
	task := mustParse(t, "- [ ] a 🗓 tomorrow", utcSettings())

	assert.Equal(t, "a", task.Description)
	assert.False(t, task.Due.Valid)
}

func TestParse_UnreadableRecurrenceIsDropped(t *testing.T) {
	task := mustParse(t, "- [ ] a 🔁 sometimes", utcSettings())

	assert.Equal(t, "a", task.Description)
	assert.Nil(t, task.Recurrence)
}

func TestParse_CustomFormats(t *testing.T) {
	s := utcSettings()
	s.DateFormats = []string{"02.01.2006", "2006-01-02"}
	s.DateTimeFormats = []string{"02.01.2006 15:04"}

	task := mustParse(t, "- [ ] a 🗓 2021-09-12", s)
	assert.Equal(t, day(2021, time.September, 12), task.Due.Time)
	assert.Equal(t, "- [ ] a 🗓 12.09.2021", task.FileLine(s))
}

func TestFileLine_RoundTrip(t *testing.T) {
	s := utcSettings()
	for _, line := range []string{
		"- [ ] plain",
		"- [x] done task ✅ 2021-09-13",
		"  - [ ] indented 🗓 2021-09-12 10:30",
		"- [ ] water plants 🔁 every week on Monday, Friday 🗓 2021-09-12",
		"- [x] everything 🔁 every month on the last Friday 🗓 2021-09-24 ✅ 2021-09-24 ^abc",
		"- [ ]  🗓 2021-09-12",
	} {
		first := mustParse(t, line, s)
		assert.Equal(t, line, first.FileLine(s))

		again := mustParse(t, first.FileLine(s), s)
		assert.Equal(t, first, again, line)
	}
}

func TestString_Layout(t *testing.T) {
	s := utcSettings()
	task := mustParse(t, "- [x] a 🔁 every day 🗓 2021-09-12 10:30 ✅ 2021-09-13", s)

	assert.Equal(t, "a 🔁 every day 🗓 2021-09-12 10:30 ✅ 2021-09-13", task.String(s, LayoutOptions{}))
	assert.Equal(t, "a 🗓 2021-09-12 10:30 ✅ 2021-09-13", task.String(s, LayoutOptions{HideRecurrenceRule: true}))
	assert.Equal(t, "a 🔁 every day 🗓 2021-09-12 ✅ 2021-09-13", task.String(s, LayoutOptions{HideDueTime: true}))
	assert.Equal(t, "a 🔁 every day 🗓 10:30 ✅ 2021-09-13", task.String(s, LayoutOptions{HideDueDate: true}))
	assert.Equal(t, "a 🔁 every day ✅ 2021-09-13", task.String(s, LayoutOptions{HideDueDate: true, HideDueTime: true}))
	assert.Equal(t, "a 🔁 every day 🗓 2021-09-12 10:30", task.String(s, LayoutOptions{HideDoneDate: true}))
}

func TestDisplayString_RemovesGlobalFilter(t *testing.T) {
	s := utcSettings()
	s.GlobalFilter = "#task"
	task, ok := Parse("- [ ] #task buy milk", Position{}, s)
	require.True(t, ok)

	assert.Equal(t, "#task buy milk", task.DisplayString(s, LayoutOptions{}))

	s.RemoveGlobalFilter = true
	assert.Equal(t, "buy milk", task.DisplayString(s, LayoutOptions{}))
	assert.Equal(t, "- [ ] #task buy milk", task.FileLine(s))
}
