package task

import "time"

// Settings is the configuration snapshot every parse, format and toggle call
// works against. The first entry of each list is the canonical one written on
// output; every entry is accepted on input. Lists must not be empty.
type Settings struct {
	GlobalFilter       string
	RemoveGlobalFilter bool
	// DoneTime records the time of day, not only the date, when a task is
	// toggled to done.
	DoneTime bool

	DateFormats     []string
	DateTimeFormats []string
	TimeFormat      string

	DueSignifiers        []string
	DoneSignifiers       []string
	RecurrenceSignifiers []string

	// Location dates are read and written in. Nil means time.Local.
	Location *time.Location
}

func DefaultSettings() Settings {
	return Settings{
		DateFormats:          []string{"2006-01-02"},
		DateTimeFormats:      []string{"2006-01-02 15:04"},
		TimeFormat:           "15:04",
		DueSignifiers:        []string{"🗓", "📅"},
		DoneSignifiers:       []string{"✅"},
		RecurrenceSignifiers: []string{"🔁"},
	}
}

func (s Settings) location() *time.Location {
	if s.Location == nil {
		return time.Local
	}
	return s.Location
}
