package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

type Frequency int

const (
	Daily Frequency = iota
	Weekly
	Monthly
	Yearly
)

// LastOrdinal marks "the last" day or weekday of a period.
const LastOrdinal = -1

// Weekday is a day of the week, optionally restricted to its Nth (or last)
// occurrence within the month or year. N == 0 means every such day.
type Weekday struct {
	Day time.Weekday
	N   int
}

// Rule describes a repeating schedule: frequency, interval and the by-unit
// constraints, anchored at an optional start date. Rules are not modified
// after construction; WithStart returns a copy.
type Rule struct {
	Freq      Frequency
	Interval  int
	Weekdays  []Weekday
	MonthDays []int
	Months    []time.Month
	Count     int
	Until     time.Time
	Start     time.Time
}

// WithStart returns a copy of r anchored at start. Occurrences are computed
// relative to the anchor, so the phase of the schedule follows it.
func (r *Rule) WithStart(start time.Time) *Rule {
	c := *r
	c.Weekdays = append([]Weekday(nil), r.Weekdays...)
	c.MonthDays = append([]int(nil), r.MonthDays...)
	c.Months = append([]time.Month(nil), r.Months...)
	c.Start = start
	return &c
}

// Next returns the earliest occurrence strictly after t. The second return
// value is false when the schedule has no further occurrence.
func (r *Rule) Next(t time.Time) (time.Time, bool) {
	start := r.Start
	if start.IsZero() {
		start = t
	}
	rr, err := rrule.NewRRule(r.options(start))
	if err != nil {
		return time.Time{}, false
	}
	next := rr.After(t, false)
	if next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}

func (r *Rule) options(start time.Time) rrule.ROption {
	opt := rrule.ROption{
		Freq:       r.Freq.rrule(),
		Interval:   max(r.Interval, 1),
		Dtstart:    start,
		Count:      r.Count,
		Until:      r.Until,
		Bymonthday: append([]int(nil), r.MonthDays...),
	}
	for _, m := range r.Months {
		opt.Bymonth = append(opt.Bymonth, int(m))
	}
	for _, wd := range r.Weekdays {
		opt.Byweekday = append(opt.Byweekday, wd.rrule())
	}
	return opt
}

func (f Frequency) rrule() rrule.Frequency {
	switch f {
	case Weekly:
		return rrule.WEEKLY
	case Monthly:
		return rrule.MONTHLY
	case Yearly:
		return rrule.YEARLY
	default:
		return rrule.DAILY
	}
}

func (wd Weekday) rrule() rrule.Weekday {
	var d rrule.Weekday
	switch wd.Day {
	case time.Monday:
		d = rrule.MO
	case time.Tuesday:
		d = rrule.TU
	case time.Wednesday:
		d = rrule.WE
	case time.Thursday:
		d = rrule.TH
	case time.Friday:
		d = rrule.FR
	case time.Saturday:
		d = rrule.SA
	default:
		d = rrule.SU
	}
	if wd.N != 0 {
		return d.Nth(wd.N)
	}
	return d
}

func (f Frequency) unit(plural bool) string {
	var s string
	switch f {
	case Weekly:
		s = "week"
	case Monthly:
		s = "month"
	case Yearly:
		s = "year"
	default:
		s = "day"
	}
	if plural {
		s += "s"
	}
	return s
}

// String renders the rule as the phrase Parse accepts, e.g.
// "every 2 weeks on Monday, Friday" or "every month on the last Friday".
func (r *Rule) String() string {
	var b strings.Builder
	b.WriteString("every")
	switch {
	case r.isEveryWeekday():
		b.WriteString(" weekday")
	case r.Interval > 1:
		fmt.Fprintf(&b, " %d %s", r.Interval, r.Freq.unit(true))
	default:
		b.WriteString(" " + r.Freq.unit(false))
	}

	if len(r.Months) > 0 {
		names := make([]string, len(r.Months))
		for i, m := range r.Months {
			names[i] = m.String()
		}
		b.WriteString(" in " + strings.Join(names, ", "))
	}

	if len(r.MonthDays) > 0 {
		days := make([]string, len(r.MonthDays))
		for i, d := range r.MonthDays {
			days[i] = ordinal(d)
		}
		b.WriteString(" on the " + strings.Join(days, ", "))
	} else if len(r.Weekdays) > 0 && !r.isEveryWeekday() {
		b.WriteString(" on " + r.weekdayList())
	}

	switch {
	case r.Count == 1:
		b.WriteString(" for 1 time")
	case r.Count > 1:
		fmt.Fprintf(&b, " for %d times", r.Count)
	}
	if !r.Until.IsZero() {
		b.WriteString(" until " + r.Until.Format("January 2, 2006"))
	}
	return b.String()
}

func (r *Rule) weekdayList() string {
	parts := make([]string, len(r.Weekdays))
	nth := false
	for i, wd := range r.Weekdays {
		if wd.N != 0 {
			nth = true
			parts[i] = ordinal(wd.N) + " " + wd.Day.String()
			continue
		}
		parts[i] = wd.Day.String()
	}
	if nth {
		return "the " + strings.Join(parts, ", ")
	}
	return strings.Join(parts, ", ")
}

func (r *Rule) isEveryWeekday() bool {
	if r.Freq != Weekly || r.Interval > 1 || len(r.Weekdays) != 5 {
		return false
	}
	for i, wd := range r.Weekdays {
		if wd.N != 0 || wd.Day != time.Monday+time.Weekday(i) {
			return false
		}
	}
	return true
}

func ordinal(n int) string {
	if n == LastOrdinal {
		return "last"
	}
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return strconv.Itoa(n) + suffix
}
