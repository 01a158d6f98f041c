package query

import (
	"strings"
	"time"

	dps "github.com/markusmobius/go-dateparser"
	"github.com/markusmobius/go-dateparser/date"

	"mdtasks/internal/task"
)

// DateParser resolves the date expression of a due or done filter line. The
// returned Date reports whether the expression named a time of day.
type DateParser interface {
	ParseDate(text string) (task.Date, bool)
}

// NaturalDates reads dates written in one of the configured layouts, and
// otherwise free-form expressions such as "today", "next friday" or
// "in 3 days at 10am".
type NaturalDates struct {
	// Now anchors relative expressions. The zero value means the wall clock
	// at the time of the call.
	Now      time.Time
	Location *time.Location

	DateFormats     []string
	DateTimeFormats []string
}

// NewNaturalDates accepts the same layouts task lines are written in.
func NewNaturalDates(s task.Settings, now time.Time) NaturalDates {
	return NaturalDates{
		Now:             now,
		Location:        s.Location,
		DateFormats:     s.DateFormats,
		DateTimeFormats: s.DateTimeFormats,
	}
}

func (n NaturalDates) ParseDate(text string) (task.Date, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return task.Date{}, false
	}

	loc := n.Location
	if loc == nil {
		loc = time.Local
	}

	for _, layout := range n.DateTimeFormats {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return task.Date{Time: t, HasTime: true, Valid: true}, true
		}
	}
	for _, layout := range n.DateFormats {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return task.Date{Time: startOfDay(t), Valid: true}, true
		}
	}

	now := n.Now
	if now.IsZero() {
		now = time.Now()
	}
	dt, err := dps.Parse(&dps.Configuration{
		CurrentTime:        now.In(loc),
		DefaultTimezone:    loc,
		ReturnTimeAsPeriod: true,
	}, text)
	if err != nil || dt.Time.IsZero() {
		return task.Date{}, false
	}

	at := dt.Time.In(loc)
	switch dt.Period {
	case date.Hour, date.Minute, date.Second:
		return task.Date{Time: at, HasTime: true, Valid: true}, true
	}
	return task.Date{Time: startOfDay(at), Valid: true}, true
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
