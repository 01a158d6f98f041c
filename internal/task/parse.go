package task

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"mdtasks/internal/recurrence"
)

// maxExtractionPasses bounds the loop that strips trailing annotations so
// that pathological input cannot keep it running.
const maxExtractionPasses = 5

var (
	lineRe      = regexp.MustCompile(`^([\s\t]*)[-*] +\[(.)\] *(.*)`)
	blockLinkRe = regexp.MustCompile(` \^[a-zA-Z0-9-]+$`)
)

// Parser turns raw lines into tasks for one Settings snapshot.
type Parser struct {
	settings     Settings
	doneRe       *regexp.Regexp
	dueRe        *regexp.Regexp
	recurrenceRe *regexp.Regexp
}

func NewParser(s Settings) *Parser {
	return &Parser{
		settings:     s,
		doneRe:       regexp.MustCompile(`^(.*)` + alternatives(s.DoneSignifiers) + ` ?(.+)$`),
		dueRe:        regexp.MustCompile(`^(.*)` + alternatives(s.DueSignifiers) + ` ?(.+)$`),
		recurrenceRe: regexp.MustCompile(`^(.*)` + alternatives(s.RecurrenceSignifiers) + `([a-zA-Z0-9, !]+)$`),
	}
}

func alternatives(signifiers []string) string {
	quoted := make([]string, len(signifiers))
	for i, s := range signifiers {
		quoted[i] = regexp.QuoteMeta(s)
	}
	return "(?:" + strings.Join(quoted, "|") + ")"
}

// Parse is a shorthand for NewParser(s).Parse(line, pos).
func Parse(line string, pos Position, s Settings) (Task, bool) {
	return NewParser(s).Parse(line, pos)
}

// Parse reads one line. It reports false when the line is not a checklist
// item, or when it is one but lacks the global filter.
func (p *Parser) Parse(line string, pos Position) (Task, bool) {
	m := lineRe.FindStringSubmatch(line)
	if m == nil {
		return Task{}, false
	}

	body := strings.TrimSpace(m[3])
	if !strings.Contains(body, p.settings.GlobalFilter) {
		return Task{}, false
	}

	t := Task{
		Status:          Done,
		StatusMarker:    m[2],
		Path:            pos.Path,
		Line:            pos.Line,
		Indentation:     m[1],
		SectionStart:    pos.SectionStart,
		SectionIndex:    pos.SectionIndex,
		PrecedingHeader: pos.PrecedingHeader,
	}
	if m[2] == " " {
		t.Status = Todo
	}

	description := body
	if link := blockLinkRe.FindString(description); link != "" {
		t.BlockLink = strings.TrimSpace(link)
		description = strings.TrimSpace(strings.TrimSuffix(description, link))
	}

	// Annotations may be written in any order. Each pass strips the one that
	// starts furthest to the right, so its value cannot swallow another.
	for pass := 0; pass < maxExtractionPasses; pass++ {
		kind, value, rest := p.lastAnnotation(description)
		if kind == noAnnotation {
			break
		}
		description = rest

		switch kind {
		case doneAnnotation:
			if d, ok := p.parseDate(value); ok {
				t.Done = d
			} else {
				slog.Warn("could not parse done date", "value", value, "path", pos.Path)
			}
		case dueAnnotation:
			if d, ok := p.parseDate(value); ok {
				t.Due = d
			} else {
				slog.Warn("could not parse due date", "value", value, "path", pos.Path)
			}
		case recurrenceAnnotation:
			// An unreadable rule is most likely still being typed.
			if r, err := recurrence.Parse(strings.TrimSpace(value)); err == nil {
				t.Recurrence = r
			}
		}
	}

	t.Description = strings.TrimSpace(description)
	return t, true
}

type annotation int

const (
	noAnnotation annotation = iota
	doneAnnotation
	dueAnnotation
	recurrenceAnnotation
)

// lastAnnotation finds the trailing annotation whose signifier is rightmost
// in s and returns its value and the text before it.
func (p *Parser) lastAnnotation(s string) (kind annotation, value, rest string) {
	best := -1
	for _, c := range []struct {
		kind annotation
		re   *regexp.Regexp
	}{
		{doneAnnotation, p.doneRe},
		{dueAnnotation, p.dueRe},
		{recurrenceAnnotation, p.recurrenceRe},
	} {
		m := c.re.FindStringSubmatch(s)
		if m == nil || len(m[1]) <= best {
			continue
		}
		best = len(m[1])
		kind, value, rest = c.kind, m[2], strings.TrimSpace(m[1])
	}
	return kind, value, rest
}

// parseDate tries the date-time formats before the date-only ones; the first
// format that matches the whole value wins.
func (p *Parser) parseDate(value string) (Date, bool) {
	value = strings.TrimSpace(value)
	loc := p.settings.location()
	for _, layout := range p.settings.DateTimeFormats {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return Date{Time: t, HasTime: true, Valid: true}, true
		}
	}
	for _, layout := range p.settings.DateFormats {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return Date{Time: midnight(t), Valid: true}, true
		}
	}
	return Date{}, false
}
