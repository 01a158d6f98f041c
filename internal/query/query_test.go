package query

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mdtasks/internal/sorting"
	"mdtasks/internal/task"
)

var now = time.Date(2021, time.September, 12, 10, 0, 0, 0, time.UTC)

func settings() task.Settings {
	s := task.DefaultSettings()
	s.Location = time.UTC
	return s
}

func parse(source string) Query {
	return Parse(source, WithDateParser(NewNaturalDates(settings(), now)))
}

func fromLine(t *testing.T, line string) task.Task {
	t.Helper()
	tk, ok := task.Parse(line, task.Position{}, settings())
	require.True(t, ok, line)
	return tk
}

func fromLines(t *testing.T, lines ...string) []task.Task {
	t.Helper()
	out := make([]task.Task, len(lines))
	for i, l := range lines {
		out[i] = fromLine(t, l)
	}
	return out
}

func filter(q Query, tasks []task.Task) []string {
	var out []string
	for _, t := range tasks {
		keep := true
		for _, f := range q.Filters() {
			keep = keep && f(t)
		}
		if keep {
			out = append(out, t.Description)
		}
	}
	return out
}

func TestParse_DueFilters(t *testing.T) {
	cases := []struct {
		name  string
		query string
		lines []string
		want  []string
	}{
		{
			name:  "before date",
			query: "due before 2000-02-02",
			lines: []string{
				"- [ ] a 🗓 2000-02-01",
				"- [ ] b 🗓 2000-02-01 23:30",
				"- [ ] c 🗓 2000-02-02",
				"- [ ] d 🗓 2000-02-02 00:30",
				"- [ ] e 🗓 2000-02-03",
			},
			want: []string{"a", "b"},
		},
		{
			name:  "after date",
			query: "due after 2000-02-02",
			lines: []string{
				"- [ ] a 🗓 2000-02-01",
				"- [ ] b 🗓 2000-02-02",
				"- [ ] c 🗓 2000-02-02 02:02",
				"- [ ] d 🗓 2000-02-03",
			},
			want: []string{"d"},
		},
		{
			name:  "on date",
			query: "due 2000-02-02",
			lines: []string{
				"- [ ] a 🗓 2000-02-01 01:01",
				"- [ ] b 🗓 2000-02-02",
				"- [ ] c 🗓 2000-02-02 02:02",
				"- [ ] d 🗓 2000-02-03",
			},
			want: []string{"b", "c"},
		},
		{
			name:  "before date time",
			query: "due before 2000-02-02 02:02",
			lines: []string{
				"- [ ] a 🗓 2000-02-01",
				"- [ ] b 🗓 2000-02-02 01:01",
				"- [ ] c 🗓 2000-02-02 03:03",
				"- [ ] d 🗓 2000-02-03",
			},
			want: []string{"a", "b"},
		},
		{
			name:  "after date time",
			query: "due after 2000-02-02 02:02",
			lines: []string{
				"- [ ] a 🗓 2000-02-01",
				"- [ ] b 🗓 2000-02-02",
				"- [ ] c 🗓 2000-02-02 01:01",
				"- [ ] d 🗓 2000-02-02 03:03",
				"- [ ] e 🗓 2000-02-03",
			},
			want: []string{"d", "e"},
		},
		{
			name:  "on date time",
			query: "due on 2000-02-02 02:02",
			lines: []string{
				"- [ ] a 🗓 2000-02-02",
				"- [ ] b 🗓 2000-02-02 02:02",
				"- [ ] c 🗓 2000-02-02 02:03",
			},
			want: []string{"b"},
		},
		{
			name:  "absent due never matches",
			query: "due before 2100-01-01",
			lines: []string{
				"- [ ] a",
				"- [ ] b 🗓 2000-02-02",
			},
			want: []string{"b"},
		},
		{
			name:  "keywords ignore case",
			query: "Due Before 2000-02-02",
			lines: []string{
				"- [ ] a 🗓 2000-02-01",
				"- [ ] b 🗓 2000-02-02",
			},
			want: []string{"a"},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			q := parse(c.query)
			require.NoError(t, q.Err())
			assert.Equal(t, c.want, filter(q, fromLines(t, c.lines...)))
		})
	}
}

func TestParse_DoneFilters(t *testing.T) {
	tasks := fromLines(t,
		"- [ ] a",
		"- [x] b ✅ 2021-09-10",
		"- [x] c ✅ 2021-09-12",
		"- [x] d ✅ 2021-09-13 08:00",
	)

	assert.Equal(t, []string{"b", "c", "d"}, filter(parse("done"), tasks))
	assert.Equal(t, []string{"a"}, filter(parse("not done"), tasks))
	assert.Equal(t, []string{"b"}, filter(parse("done before 2021-09-12"), tasks))
	assert.Equal(t, []string{"c"}, filter(parse("done on 2021-09-12"), tasks))
	assert.Equal(t, []string{"d"}, filter(parse("done after 2021-09-12"), tasks))
}

func TestParse_NaturalLanguageDates(t *testing.T) {
	tasks := fromLines(t,
		"- [ ] a 🗓 2021-09-11",
		"- [ ] b 🗓 2021-09-12",
		"- [ ] c 🗓 2021-09-13 09:00",
		"- [ ] d 🗓 2021-09-14",
	)

	q := parse("due tomorrow")
	require.NoError(t, q.Err())
	assert.Equal(t, []string{"c"}, filter(q, tasks))

	q = parse("due before today")
	require.NoError(t, q.Err())
	assert.Equal(t, []string{"a"}, filter(q, tasks))
}

func TestParse_PropertyFilters(t *testing.T) {
	tasks := fromLines(t,
		"- [ ] plain",
		"  - [ ] nested 🗓 2021-09-12 10:00",
		"- [ ] repeating 🔁 every day 🗓 2021-09-12",
	)

	assert.Equal(t, []string{"repeating"}, filter(parse("is recurring"), tasks))
	assert.Equal(t, []string{"plain", "nested"}, filter(parse("is not recurring"), tasks))
	assert.Equal(t, []string{"plain", "repeating"}, filter(parse("exclude sub-items"), tasks))
	assert.Equal(t, []string{"plain"}, filter(parse("no due date"), tasks))
	assert.Equal(t, []string{"plain", "repeating"}, filter(parse("no due time"), tasks))
	assert.Equal(t, []string{"repeating"}, filter(parse("IS RECURRING"), tasks))
}

func TestParse_PathIsCaseInsensitive(t *testing.T) {
	a := task.Task{Description: "a", Path: "Ab/C D"}
	b := task.Task{Description: "b", Path: "FF/C D"}

	assert.Equal(t, []string{"a"}, filter(parse("path includes ab/c d"), []task.Task{a, b}))
	assert.Equal(t, []string{"b"}, filter(parse("path does not include ab/c d"), []task.Task{a, b}))
}

func TestParse_DescriptionFilter(t *testing.T) {
	tasks := fromLines(t, "- [ ] Buy milk", "- [ ] call mum")

	assert.Equal(t, []string{"Buy milk"}, filter(parse("description includes buy"), tasks))
	assert.Equal(t, []string{"call mum"}, filter(parse("description does not include MILK"), tasks))
}

func TestParse_HeadingFilter(t *testing.T) {
	tasks := []task.Task{
		{Description: "none"},
		{Description: "chores", PrecedingHeader: "Weekly Chores"},
		{Description: "work", PrecedingHeader: "Work"},
	}

	assert.Equal(t, []string{"chores"}, filter(parse("heading includes chores"), tasks))
	assert.Equal(t, []string{"none", "work"}, filter(parse("heading does not include chores"), tasks))
}

func TestParse_Sorting(t *testing.T) {
	assert.Equal(t, []sorting.Key{sorting.Status}, parse("sort by status").Sorting())
	assert.Equal(t, []sorting.Key{sorting.Status, sorting.Due}, parse("sort by status\nsort by due").Sorting())
	assert.Equal(t, []sorting.Key{sorting.Description}, parse("Sort By Description").Sorting())
	assert.Empty(t, parse("not done").Sorting())
}

func TestParse_Limit(t *testing.T) {
	cases := []struct {
		source string
		want   int
	}{
		{"limit 5", 5},
		{"limit to 5", 5},
		{"limit to 1 task", 1},
		{"limit 10 tasks", 10},
		{"limit 5\nlimit 7", 7},
		{"LIMIT TO 3 TASKS", 3},
	}
	for _, c := range cases {
		n, ok := parse(c.source).Limit()
		assert.True(t, ok, c.source)
		assert.Equal(t, c.want, n, c.source)
	}

	_, ok := parse("not done").Limit()
	assert.False(t, ok)
}

func TestParse_Hide(t *testing.T) {
	q := parse(strings.Join([]string{
		"hide task count",
		"hide backlink",
		"hide done date",
		"hide done time",
		"hide due date",
		"hide due time",
		"hide recurrence rule",
		"hide edit button",
	}, "\n"))
	require.NoError(t, q.Err())

	assert.Equal(t, task.LayoutOptions{
		HideTaskCount:      true,
		HideBacklinks:      true,
		HideDoneDate:       true,
		HideDoneTime:       true,
		HideDueDate:        true,
		HideDueTime:        true,
		HideRecurrenceRule: true,
		HideEditButton:     true,
	}, q.Layout())

	assert.Equal(t, task.LayoutOptions{HideDueTime: true}, parse("hide due time").Layout())
}

func TestParse_UnknownLineKeepsTheRest(t *testing.T) {
	q := parse("not done\nwhatever this is\nsort by due\n\n   \ndescription includes x")

	require.ErrorIs(t, q.Err(), ErrNotUnderstood)
	assert.Len(t, q.Filters(), 2)
	assert.Equal(t, []sorting.Key{sorting.Due}, q.Sorting())
}

func TestParse_BadDateSkipsFilter(t *testing.T) {
	q := parse("due before xyzzy\nnot done")

	require.ErrorIs(t, q.Err(), ErrBadDate)
	assert.Len(t, q.Filters(), 1)
}

func TestParse_RejectsMalformedInstructions(t *testing.T) {
	for _, line := range []string{
		"due",
		"sort by priority",
		"hide everything",
		"limit many",
		"path contains x",
	} {
		assert.ErrorIs(t, parse(line).Err(), ErrNotUnderstood, line)
	}
}

type fixedDates struct{ d task.Date }

func (f fixedDates) ParseDate(string) (task.Date, bool) { return f.d, true }

func TestWithDateParser(t *testing.T) {
	p := fixedDates{task.Date{Time: time.Date(2000, time.February, 2, 0, 0, 0, 0, time.UTC), Valid: true}}
	q := Parse("due on whenever", WithDateParser(p))
	require.NoError(t, q.Err())

	tasks := fromLines(t, "- [ ] a 🗓 2000-02-01", "- [ ] b 🗓 2000-02-02")
	assert.Equal(t, []string{"b"}, filter(q, tasks))
}

func TestFilters_Idempotent(t *testing.T) {
	tasks := fromLines(t,
		"- [ ] a 🗓 2000-02-01",
		"- [x] b 🗓 2000-02-03",
		"- [ ] c",
	)
	q := parse("due before 2000-02-05")
	f := q.Filters()[0]

	var once []task.Task
	for _, t := range tasks {
		if f(t) {
			once = append(once, t)
		}
	}
	var twice []task.Task
	for _, t := range once {
		if f(t) {
			twice = append(twice, t)
		}
	}
	assert.Equal(t, once, twice)
}

func TestApply(t *testing.T) {
	tasks := fromLines(t,
		"- [ ] a 🗓 1970-01-01",
		"- [x] b 🗓 1970-01-02",
		"- [ ] c 🗓 1970-01-02",
		"- [ ] d 🗓 1970-01-02",
		"- [ ] e",
	)
	in := append([]task.Task(nil), tasks...)

	res := parse("sort by status\nsort by due").Apply(tasks)
	assert.Equal(t, []string{"a", "c", "d", "e", "b"}, descriptions(res))

	res = parse("not done\nsort by description\nlimit 2").Apply(tasks)
	assert.Equal(t, []string{"a", "c"}, descriptions(res))

	assert.Equal(t, in, tasks)
}

func descriptions(tasks []task.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Description
	}
	return out
}
