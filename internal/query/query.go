// Package query compiles the line-oriented query language into filters, sort
// keys, a limit and layout flags, and applies the result to tasks.
//
// Each non-blank line is one instruction:
//
//	not done
//	due before next monday
//	path includes projects/
//	sort by due
//	hide recurrence rule
//	limit to 10 tasks
package query

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"mdtasks/internal/sorting"
	"mdtasks/internal/task"
)

var (
	ErrNotUnderstood = errors.New("do not understand query")
	ErrBadDate       = errors.New("do not understand date")
)

// Filter reports whether a task belongs in the result.
type Filter func(task.Task) bool

// Query is immutable once parsed.
type Query struct {
	filters  []Filter
	sorting  []sorting.Key
	limit    int
	hasLimit bool
	layout   task.LayoutOptions
	err      error
}

func (q Query) Filters() []Filter { return slices.Clone(q.filters) }

func (q Query) Sorting() []sorting.Key { return slices.Clone(q.sorting) }

func (q Query) Layout() task.LayoutOptions { return q.layout }

// Limit returns the result cap and whether one was given.
func (q Query) Limit() (int, bool) { return q.limit, q.hasLimit }

// Err is non-nil when at least one line could not be understood. The other
// lines still take effect.
func (q Query) Err() error { return q.err }

// Apply runs the filters in order, sorts what remains and cuts it to the
// limit. tasks is not modified.
func (q Query) Apply(tasks []task.Task) []task.Task {
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if q.matches(t) {
			out = append(out, t)
		}
	}
	out = sorting.By(q.sorting, out)
	if q.hasLimit && len(out) > q.limit {
		out = out[:q.limit]
	}
	return out
}

func (q Query) matches(t task.Task) bool {
	for _, f := range q.filters {
		if !f(t) {
			return false
		}
	}
	return true
}

type Option func(*parser)

// WithDateParser replaces the parser used for the date expressions of due
// and done lines.
func WithDateParser(d DateParser) Option {
	return func(p *parser) { p.dates = d }
}

var (
	dueRe         = regexp.MustCompile(`(?i)^due (before|after|on)? ?(.*)`)
	doneRe        = regexp.MustCompile(`(?i)^done (before|after|on)? ?(.*)`)
	pathRe        = regexp.MustCompile(`(?i)^path (includes|does not include) (.*)`)
	descriptionRe = regexp.MustCompile(`(?i)^description (includes|does not include) (.*)`)
	headingRe     = regexp.MustCompile(`(?i)^heading (includes|does not include) (.*)`)
	limitRe       = regexp.MustCompile(`(?i)^limit (to )?(\d+)( tasks?)?$`)
	sortByRe      = regexp.MustCompile(`(?i)^sort by (status|due|done|path|description)$`)
	hideRe        = regexp.MustCompile(`(?i)^hide (task count|backlink|done date|done time|due date|due time|recurrence rule|edit button)$`)
)

// exact lines are matched before the patterns.
var exact = map[string]Filter{
	"done":              func(t task.Task) bool { return t.Status == task.Done },
	"not done":          func(t task.Task) bool { return t.Status != task.Done },
	"is recurring":      func(t task.Task) bool { return t.Recurrence != nil },
	"is not recurring":  func(t task.Task) bool { return t.Recurrence == nil },
	"exclude sub-items": func(t task.Task) bool { return t.Indentation == "" },
	"no due date":       func(t task.Task) bool { return !t.Due.Valid },
	"no due time":       func(t task.Task) bool { return !t.Due.HasTime },
}

type parser struct {
	dates DateParser
	q     Query
}

// Parse never fails outright; problems are reported through Query.Err.
func Parse(source string, opts ...Option) Query {
	p := &parser{dates: NaturalDates{}}
	for _, opt := range opts {
		opt(p)
	}
	for _, line := range strings.Split(source, "\n") {
		p.line(strings.TrimSpace(line))
	}
	return p.q
}

func (p *parser) line(line string) {
	if line == "" {
		return
	}
	if f, ok := exact[strings.ToLower(line)]; ok {
		p.q.filters = append(p.q.filters, f)
		return
	}

	switch {
	case dueRe.MatchString(line):
		m := dueRe.FindStringSubmatch(line)
		p.dateFilter(func(t task.Task) task.Date { return t.Due }, m[1], m[2])
	case doneRe.MatchString(line):
		m := doneRe.FindStringSubmatch(line)
		p.dateFilter(func(t task.Task) task.Date { return t.Done }, m[1], m[2])
	case pathRe.MatchString(line):
		m := pathRe.FindStringSubmatch(line)
		p.textFilter(func(t task.Task) string { return t.Path }, m[1], m[2])
	case descriptionRe.MatchString(line):
		m := descriptionRe.FindStringSubmatch(line)
		p.textFilter(func(t task.Task) string { return t.Description }, m[1], m[2])
	case headingRe.MatchString(line):
		m := headingRe.FindStringSubmatch(line)
		p.headingFilter(m[1], m[2])
	case limitRe.MatchString(line):
		m := limitRe.FindStringSubmatch(line)
		n, err := strconv.Atoi(m[2])
		if err != nil {
			p.fail(fmt.Errorf("%w: limit %q", ErrNotUnderstood, m[2]))
			return
		}
		p.q.limit, p.q.hasLimit = n, true
	case sortByRe.MatchString(line):
		m := sortByRe.FindStringSubmatch(line)
		k, err := sorting.ParseKey(m[1])
		if err != nil {
			p.fail(fmt.Errorf("%w: %w", ErrNotUnderstood, err))
			return
		}
		p.q.sorting = append(p.q.sorting, k)
	case hideRe.MatchString(line):
		p.hide(strings.ToLower(hideRe.FindStringSubmatch(line)[1]))
	default:
		p.fail(fmt.Errorf("%w: %q", ErrNotUnderstood, line))
	}
}

func (p *parser) fail(err error) {
	p.q.err = err
}

func (p *parser) hide(option string) {
	l := &p.q.layout
	switch option {
	case "task count":
		l.HideTaskCount = true
	case "backlink":
		l.HideBacklinks = true
	case "done date":
		l.HideDoneDate = true
	case "done time":
		l.HideDoneTime = true
	case "due date":
		l.HideDueDate = true
	case "due time":
		l.HideDueTime = true
	case "recurrence rule":
		l.HideRecurrenceRule = true
	case "edit button":
		l.HideEditButton = true
	}
}
