package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"mdtasks/internal/task"
	"mdtasks/internal/vault"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "mdtasks.db"
	// EnvConfigPath overrides the default location of the config file.
	EnvConfigPath = "MDTASKS_CONFIG"
)

type Keymap struct {
	Quit    string `toml:"quit"`
	Up      string `toml:"up"`
	Down    string `toml:"down"`
	Toggle  string `toml:"toggle"`
	Query   string `toml:"query"`
	Confirm string `toml:"confirm"`
	Cancel  string `toml:"cancel"`
	Refresh string `toml:"refresh"`
	Detail  string `toml:"detail"`
}

type Vault struct {
	Root    string `toml:"root"`
	Include string `toml:"include"`
}

// Tasks holds the task line settings. Formats are Go time layouts.
type Tasks struct {
	GlobalFilter         string   `toml:"global_filter"`
	RemoveGlobalFilter   bool     `toml:"remove_global_filter"`
	DoneTime             bool     `toml:"done_time"`
	DateFormats          []string `toml:"date_formats"`
	DateTimeFormats      []string `toml:"date_time_formats"`
	TimeFormat           string   `toml:"time_format"`
	DueSignifiers        []string `toml:"due_signifiers"`
	DoneSignifiers       []string `toml:"done_signifiers"`
	RecurrenceSignifiers []string `toml:"recurrence_signifiers"`
	// Timezone is an IANA name; empty means the local zone.
	Timezone string `toml:"timezone"`
}

type Config struct {
	DBPath       string `toml:"db_path"`
	LogLevel     string `toml:"log_level"`
	DefaultQuery string `toml:"default_query"`
	Vault        Vault  `toml:"vault"`
	Tasks        Tasks  `toml:"tasks"`
	Keys         Keymap `toml:"keys"`
}

// ResolveConfigPath picks the config file: flag when set, then
// $MDTASKS_CONFIG, then mdtasks/config.toml in the user config directory.
func ResolveConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, "mdtasks", DefaultConfigFileName)
}

func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		cfg.resolvePaths(path)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode %s: %w", path, err)
	}
	cfg.fillDefaults()
	cfg.resolvePaths(path)
	return cfg, nil
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// fillDefaults restores settings a file left empty. The task parser needs
// every list to have at least one entry.
func (c *Config) fillDefaults() {
	d := defaultConfig()
	if c.DBPath == "" {
		c.DBPath = d.DBPath
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.Vault.Root == "" {
		c.Vault.Root = d.Vault.Root
	}
	if c.Vault.Include == "" {
		c.Vault.Include = d.Vault.Include
	}

	t, dt := &c.Tasks, d.Tasks
	for _, f := range []struct {
		field *[]string
		def   []string
	}{
		{&t.DateFormats, dt.DateFormats},
		{&t.DateTimeFormats, dt.DateTimeFormats},
		{&t.DueSignifiers, dt.DueSignifiers},
		{&t.DoneSignifiers, dt.DoneSignifiers},
		{&t.RecurrenceSignifiers, dt.RecurrenceSignifiers},
	} {
		if len(*f.field) == 0 {
			*f.field = f.def
		}
	}
	if t.TimeFormat == "" {
		t.TimeFormat = dt.TimeFormat
	}

	k, dk := &c.Keys, d.Keys
	for _, f := range []struct {
		field *string
		def   string
	}{
		{&k.Quit, dk.Quit},
		{&k.Up, dk.Up},
		{&k.Down, dk.Down},
		{&k.Toggle, dk.Toggle},
		{&k.Query, dk.Query},
		{&k.Confirm, dk.Confirm},
		{&k.Cancel, dk.Cancel},
		{&k.Refresh, dk.Refresh},
		{&k.Detail, dk.Detail},
	} {
		if *f.field == "" {
			*f.field = f.def
		}
	}
}

// resolvePaths makes a relative database path relative to the directory of
// the config file.
func (c *Config) resolvePaths(configPath string) {
	if c.DBPath != "" && !filepath.IsAbs(c.DBPath) {
		c.DBPath = filepath.Join(filepath.Dir(configPath), c.DBPath)
	}
}

// Settings returns the snapshot handed to task parsing, formatting and
// toggling.
func (c Config) Settings() (task.Settings, error) {
	t := c.Tasks
	s := task.Settings{
		GlobalFilter:         t.GlobalFilter,
		RemoveGlobalFilter:   t.RemoveGlobalFilter,
		DoneTime:             t.DoneTime,
		DateFormats:          t.DateFormats,
		DateTimeFormats:      t.DateTimeFormats,
		TimeFormat:           t.TimeFormat,
		DueSignifiers:        t.DueSignifiers,
		DoneSignifiers:       t.DoneSignifiers,
		RecurrenceSignifiers: t.RecurrenceSignifiers,
	}
	s.Location = time.Local
	if t.Timezone != "" {
		loc, err := time.LoadLocation(t.Timezone)
		if err != nil {
			return s, fmt.Errorf("timezone %q: %w", t.Timezone, err)
		}
		s.Location = loc
	}
	return s, nil
}

// Level is the configured log level; unknown names fall back to info.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func defaultConfig() Config {
	s := task.DefaultSettings()
	return Config{
		DBPath:       DefaultDBName,
		LogLevel:     "info",
		DefaultQuery: "not done",
		Vault: Vault{
			Root:    ".",
			Include: vault.DefaultInclude,
		},
		Tasks: Tasks{
			DateFormats:          s.DateFormats,
			DateTimeFormats:      s.DateTimeFormats,
			TimeFormat:           s.TimeFormat,
			DueSignifiers:        s.DueSignifiers,
			DoneSignifiers:       s.DoneSignifiers,
			RecurrenceSignifiers: s.RecurrenceSignifiers,
		},
		Keys: Keymap{
			Quit:    "q",
			Up:      "k",
			Down:    "j",
			Toggle:  " ",
			Query:   "/",
			Confirm: "enter",
			Cancel:  "esc",
			Refresh: "r",
			Detail:  "enter",
		},
	}
}
