package task

import (
	"strings"
)

// String renders the body of the line: the description followed by the
// recurrence rule, the due date and the done date, each behind the first
// configured signifier. layout hides parts for display.
func (t Task) String(s Settings, layout LayoutOptions) string {
	var b strings.Builder
	b.WriteString(t.Description)

	if t.Recurrence != nil && !layout.HideRecurrenceRule {
		b.WriteString(" " + s.RecurrenceSignifiers[0] + " " + t.Recurrence.String())
	}
	b.WriteString(s.formatDate(t.Due, s.DueSignifiers[0], layout.HideDueDate, layout.HideDueTime))
	b.WriteString(s.formatDate(t.Done, s.DoneSignifiers[0], layout.HideDoneDate, layout.HideDoneTime))
	return b.String()
}

// DisplayString is String with the global filter removed when the settings
// ask for it.
func (t Task) DisplayString(s Settings, layout LayoutOptions) string {
	out := t.String(s, layout)
	if s.RemoveGlobalFilter && s.GlobalFilter != "" {
		out = strings.TrimSpace(strings.Replace(out, s.GlobalFilter, "", 1))
	}
	return out
}

// FileLine renders the full line as it is written back to the document.
// Parsing the result yields the same task.
func (t Task) FileLine(s Settings) string {
	line := t.Indentation + "- [" + t.marker() + "] " + t.String(s, LayoutOptions{})
	if t.BlockLink != "" {
		line += " " + t.BlockLink
	}
	return line
}

func (s Settings) formatDate(d Date, signifier string, hideDate, hideTime bool) string {
	if !d.Valid {
		return ""
	}
	at := d.Time.In(s.location())
	switch {
	case !hideDate && !hideTime && d.HasTime:
		return " " + signifier + " " + at.Format(s.DateTimeFormats[0])
	case !hideDate:
		return " " + signifier + " " + at.Format(s.DateFormats[0])
	case !hideTime && d.HasTime:
		return " " + signifier + " " + at.Format(s.TimeFormat)
	}
	return ""
}
