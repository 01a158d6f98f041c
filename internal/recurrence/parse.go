package recurrence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidRule = errors.New("invalid recurrence rule")

var weekdayNames = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
}

var untilLayouts = []string{"January 2 2006", "Jan 2 2006", "2 January 2006", "2006-01-02"}

// Parse reads a phrase such as "every week", "every 3 days",
// "every week on Monday, Friday", "every month on the 2nd Tuesday",
// "every year in June on the 1st" or "every day for 5 times".
func Parse(text string) (*Rule, error) {
	p := &parser{toks: tokenize(text)}
	r, err := p.rule()
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", text, err)
	}
	return r, nil
}

func tokenize(s string) []string {
	s = strings.ToLower(s)
	s = strings.NewReplacer(",", " , ", "!", " ").Replace(s)
	return strings.Fields(s)
}

type parser struct {
	toks []string
	pos  int
}

func (p *parser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}
	return p.toks[p.pos]
}

func (p *parser) next() string {
	tok := p.peek()
	if tok != "" {
		p.pos++
	}
	return tok
}

func (p *parser) done() bool { return p.pos >= len(p.toks) }

func unexpected(tok string) error {
	if tok == "" {
		return fmt.Errorf("%w: unexpected end of rule", ErrInvalidRule)
	}
	return fmt.Errorf("%w: unexpected %q", ErrInvalidRule, tok)
}

func (p *parser) rule() (*Rule, error) {
	if tok := p.next(); tok != "every" {
		return nil, unexpected(tok)
	}
	r := &Rule{Interval: 1}

	switch tok := p.peek(); {
	case tok == "other":
		p.next()
		r.Interval = 2
	case isNumber(tok):
		n, err := strconv.Atoi(p.next())
		if err != nil || n < 1 {
			return nil, unexpected(tok)
		}
		r.Interval = n
	}

	tok := p.next()
	switch strings.TrimSuffix(tok, "s") {
	case "day":
		r.Freq = Daily
	case "week":
		r.Freq = Weekly
	case "month":
		r.Freq = Monthly
	case "year":
		r.Freq = Yearly
	case "weekday":
		r.Freq = Weekly
		for d := time.Monday; d <= time.Friday; d++ {
			r.Weekdays = append(r.Weekdays, Weekday{Day: d})
		}
	default:
		// "every monday and friday"
		if _, ok := weekday(tok); !ok {
			return nil, unexpected(tok)
		}
		r.Freq = Weekly
		p.pos--
		if err := p.dayList(r); err != nil {
			return nil, err
		}
	}

	for !p.done() {
		var err error
		switch tok := p.next(); tok {
		case "on":
			err = p.dayList(r)
		case "in":
			err = p.monthList(r)
		case "for":
			err = p.count(r)
		case "until":
			err = p.until(r)
		default:
			err = unexpected(tok)
		}
		if err != nil {
			return nil, err
		}
	}

	if len(r.MonthDays) > 0 {
		for _, wd := range r.Weekdays {
			if wd.N != 0 {
				return nil, fmt.Errorf("%w: cannot mix days of month and nth weekdays", ErrInvalidRule)
			}
		}
	}
	return r, nil
}

// dayList reads "[the] item (, item | and item)*" where an item is a weekday,
// an ordinal day of month, or an ordinal followed by a weekday.
func (p *parser) dayList(r *Rule) error {
	if p.peek() == "the" {
		p.next()
	}
	for {
		if err := p.dayItem(r); err != nil {
			return err
		}
		if !p.separator() {
			return nil
		}
	}
}

func (p *parser) dayItem(r *Rule) error {
	tok := p.next()
	if d, ok := weekday(tok); ok {
		r.Weekdays = append(r.Weekdays, Weekday{Day: d})
		return nil
	}
	n, ok := parseOrdinal(tok)
	if !ok {
		return unexpected(tok)
	}
	if d, ok := weekday(p.peek()); ok {
		p.next()
		if n < LastOrdinal || n == 0 || n > 5 {
			return unexpected(tok)
		}
		r.Weekdays = append(r.Weekdays, Weekday{Day: d, N: n})
		return nil
	}
	if n < LastOrdinal || n == 0 || n > 31 {
		return unexpected(tok)
	}
	r.MonthDays = append(r.MonthDays, n)
	return nil
}

func (p *parser) monthList(r *Rule) error {
	for {
		tok := p.next()
		m, ok := month(tok)
		if !ok {
			return unexpected(tok)
		}
		r.Months = append(r.Months, m)
		if !p.separator() {
			return nil
		}
	}
}

// separator consumes ",", "and" or ", and" and reports whether one was found.
func (p *parser) separator() bool {
	found := false
	for p.peek() == "," || p.peek() == "and" {
		p.next()
		found = true
	}
	return found
}

func (p *parser) count(r *Rule) error {
	tok := p.next()
	n, err := strconv.Atoi(tok)
	if err != nil || n < 1 {
		return unexpected(tok)
	}
	r.Count = n
	if t := p.peek(); t == "time" || t == "times" {
		p.next()
	}
	return nil
}

func (p *parser) until(r *Rule) error {
	var parts []string
	for !p.done() && p.peek() != "for" {
		if tok := p.next(); tok != "," {
			parts = append(parts, tok)
		}
	}
	text := strings.Join(parts, " ")
	for _, layout := range untilLayouts {
		t, err := time.Parse(layout, text)
		if err == nil {
			r.Until = time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
			return nil
		}
	}
	return fmt.Errorf("%w: bad until date %q", ErrInvalidRule, text)
}

func weekday(tok string) (time.Weekday, bool) {
	if d, ok := weekdayNames[tok]; ok {
		return d, true
	}
	d, ok := weekdayNames[strings.TrimSuffix(tok, "s")]
	return d, ok
}

func month(tok string) (time.Month, bool) {
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if tok == name || tok == name[:3] {
			return m, true
		}
	}
	return 0, false
}

func parseOrdinal(tok string) (int, bool) {
	if tok == "last" {
		return LastOrdinal, true
	}
	digits := strings.TrimRight(tok, "stndrh")
	if !isNumber(digits) {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	return n, err == nil
}

func isNumber(tok string) bool {
	if tok == "" {
		return false
	}
	for _, c := range tok {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
