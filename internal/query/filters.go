package query

import (
	"fmt"
	"strings"
	"time"

	"mdtasks/internal/task"
)

// dateFilter compares a task date against expr. Without a time of day,
// "before" means before the start of that day, "after" after its end and
// "on" the same day. With one, "on" matches to the minute.
func (p *parser) dateFilter(field func(task.Task) task.Date, op, expr string) {
	d, ok := p.dates.ParseDate(expr)
	if !ok {
		p.fail(fmt.Errorf("%w %q", ErrBadDate, expr))
		return
	}

	var f Filter
	switch strings.ToLower(op) {
	case "before":
		boundary := d.Time
		if !d.HasTime {
			boundary = startOfDay(d.Time)
		}
		f = func(t task.Task) bool {
			v := field(t)
			return v.Valid && v.Time.Before(boundary)
		}
	case "after":
		boundary := d.Time
		if !d.HasTime {
			boundary = endOfDay(d.Time)
		}
		f = func(t task.Task) bool {
			v := field(t)
			return v.Valid && v.Time.After(boundary)
		}
	default:
		if d.HasTime {
			at := d.Time.Truncate(time.Minute)
			f = func(t task.Task) bool {
				v := field(t)
				return v.Valid && v.Time.Truncate(time.Minute).Equal(at)
			}
		} else {
			f = func(t task.Task) bool {
				v := field(t)
				return v.Valid && sameDay(v.Time, d.Time)
			}
		}
	}
	p.q.filters = append(p.q.filters, f)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

func (p *parser) textFilter(field func(task.Task) string, op, needle string) {
	includes := strings.EqualFold(op, "includes")
	p.q.filters = append(p.q.filters, func(t task.Task) bool {
		return containsFold(field(t), needle) == includes
	})
}

// headingFilter treats a task without a heading as not including anything.
func (p *parser) headingFilter(op, needle string) {
	includes := strings.EqualFold(op, "includes")
	p.q.filters = append(p.q.filters, func(t task.Task) bool {
		if t.PrecedingHeader == "" {
			return !includes
		}
		return containsFold(t.PrecedingHeader, needle) == includes
	})
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
