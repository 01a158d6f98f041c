package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mdtasks/internal/config"
	"mdtasks/internal/query"
	"mdtasks/internal/storage"
	"mdtasks/internal/task"
	"mdtasks/internal/vault"
)

type mode int

const (
	modeList mode = iota
	modeQuery
)

// Rows kept free for the header, the detail panel and the help lines.
const reservedRows = 14

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	doneStyle     = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	backlinkStyle = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Options configure a browser. Store may be nil, in which case toggles are
// not recorded.
type Options struct {
	Store    *storage.Store
	Config   config.Config
	Settings task.Settings
	// Source is the query shown first, one instruction per line.
	Source string
	Now    func() time.Time
}

type Model struct {
	store    *storage.Store
	cfg      config.Config
	settings task.Settings
	now      func() time.Time

	source string
	query  query.Query
	all    []task.Task
	tasks  []task.Task

	cursor int
	height int
	mode   mode
	input  textinput.Model
	status string
	detail bool
}

type loadedMsg struct {
	tasks []task.Task
	err   error
}

type toggledMsg struct {
	original task.Task
	out      []task.Task
	err      error
}

func New(opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "not done; due before tomorrow"
	ti.CharLimit = 1024
	ti.Width = 60

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	m := Model{
		store:    opts.Store,
		cfg:      opts.Config,
		settings: opts.Settings,
		now:      now,
		input:    ti,
		mode:     modeList,
		status:   "Loading…",
	}
	m.source = opts.Source
	m.query = m.parse(opts.Source)
	return m
}

func Run(opts Options) error {
	program := tea.NewProgram(New(opts))
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.load()
}

func (m Model) load() tea.Cmd {
	root, include, s := m.cfg.Vault.Root, m.cfg.Vault.Include, m.settings
	return func() tea.Msg {
		tasks, err := vault.Scan(context.Background(), root, include, s)
		return loadedMsg{tasks: tasks, err: err}
	}
}

func (m Model) toggle(t task.Task) tea.Cmd {
	store, root, s, now := m.store, m.cfg.Vault.Root, m.settings, m.now()
	return func() tea.Msg {
		out, err := vault.Toggle(context.Background(), root, t, s, now)
		if err != nil {
			return toggledMsg{original: t, err: err}
		}
		if store != nil {
			if err := store.RecordToggle(storage.ToggleOf(t, out, now)); err != nil {
				slog.Warn("could not record toggle", "path", t.Path, "err", err)
			}
		}
		return toggledMsg{original: t, out: out}
	}
}

func (m Model) parse(source string) query.Query {
	return query.Parse(source, query.WithDateParser(query.NewNaturalDates(m.settings, m.now())))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
		m.height = msg.Height
	case loadedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("scan failed: %v", msg.err)
			return m, nil
		}
		m.all = msg.tasks
		m.refresh()
		if m.status == "Loading…" {
			m.status = ""
		}
	case toggledMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("toggle failed: %v", msg.err)
			return m, nil
		}
		m.status = toggleStatus(msg.out)
		return m, m.load()
	}
	return m, nil
}

// refresh reapplies the query to the scanned tasks.
func (m *Model) refresh() {
	if m.query.Err() != nil {
		m.tasks = nil
	} else {
		m.tasks = m.query.Apply(m.all)
	}
	m.cursor = clampCursor(m.cursor, len(m.tasks))
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if m.mode == modeQuery {
		return m.updateQueryMode(key, msg)
	}
	return m.updateListMode(key)
}

func (m Model) updateQueryMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.mode = modeList
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case m.cfg.Keys.Confirm:
		source := splitInstructions(m.input.Value())
		q := m.parse(source)
		if err := q.Err(); err != nil {
			m.status = errorStyle.Render(err.Error())
			return m, nil
		}
		m.source, m.query = source, q
		m.refresh()
		m.input.Blur()
		m.mode = modeList
		m.status = fmt.Sprintf("Query applied: %d tasks", len(m.tasks))
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if err := m.parse(splitInstructions(m.input.Value())).Err(); err != nil {
			m.status = errorStyle.Render(err.Error())
		} else {
			m.status = ""
		}
		return m, cmd
	}
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Down, "down":
		m.cursor = clampCursor(m.cursor+1, len(m.tasks))
	case m.cfg.Keys.Up, "up":
		m.cursor = clampCursor(m.cursor-1, len(m.tasks))
	case m.cfg.Keys.Query:
		m.mode = modeQuery
		m.input.SetValue(joinInstructions(m.source))
		m.input.CursorEnd()
		m.input.Focus()
		m.status = "Query: instructions separated by ';', enter to apply"
		return m, textinput.Blink
	case m.cfg.Keys.Refresh:
		m.status = "Rescanning…"
		return m, m.load()
	case m.cfg.Keys.Toggle:
		if len(m.tasks) == 0 {
			return m, nil
		}
		return m, m.toggle(m.tasks[m.cursor])
	case m.cfg.Keys.Detail:
		if len(m.tasks) == 0 {
			m.status = "No tasks"
			return m, nil
		}
		m.detail = !m.detail
	}
	return m, nil
}

func toggleStatus(out []task.Task) string {
	if len(out) == 0 {
		return ""
	}
	toggled := out[len(out)-1]
	msg := fmt.Sprintf("Marked %q %s", toggled.Description, strings.ToLower(toggled.Status.String()))
	if len(out) > 1 && out[0].Due.Valid {
		msg += ", next due " + out[0].Due.Time.Format("2006-01-02")
	}
	return msg
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Tasks"))
	layout := m.query.Layout()
	if !layout.HideTaskCount {
		fmt.Fprintf(&b, " (%d)", len(m.tasks))
	}
	b.WriteString("\n\n")

	switch {
	case m.query.Err() != nil:
		b.WriteString(errorStyle.Render(m.query.Err().Error()))
	case len(m.tasks) == 0:
		b.WriteString("No matching tasks.")
	default:
		b.WriteString(m.renderTaskList())
	}

	b.WriteString("\n")
	if m.mode == modeQuery {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	} else if m.detail {
		b.WriteString(panelStyle.Render(m.renderDetailPanel()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(renderHelp(m.cfg.Keys))

	return b.String()
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s toggle • %s query • %s detail • %s rescan • %s quit",
		k.Up, k.Down, keyName(k.Toggle), k.Query, k.Detail, k.Refresh, k.Quit)
}

func keyName(k string) string {
	if k == " " {
		return "space"
	}
	return k
}

func (m Model) renderTaskList() string {
	layout := m.query.Layout()
	from, to := visibleRange(m.cursor, len(m.tasks), m.height-reservedRows)

	var b strings.Builder
	for i := from; i < to; i++ {
		t := m.tasks[i]
		cursor := " "
		if m.cursor == i && m.mode == modeList {
			cursor = cursorStyle.Render(">")
		}

		body := fmt.Sprintf("[%s] %s", t.StatusMarker, t.DisplayString(m.settings, layout))
		if t.Status == task.Done {
			body = doneStyle.Render(body)
		}
		b.WriteString(cursor + " " + body)
		if !layout.HideBacklinks {
			b.WriteString(" " + backlinkStyle.Render(backlink(t)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// backlink names the document and heading a task was found under.
func backlink(t task.Task) string {
	name := strings.TrimSuffix(t.Path, ".md")
	if t.PrecedingHeader != "" {
		return "(" + name + " > " + t.PrecedingHeader + ")"
	}
	return "(" + name + ")"
}

func (m Model) renderDetailPanel() string {
	t := m.tasks[clampCursor(m.cursor, len(m.tasks))]
	recurrence := ""
	if t.Recurrence != nil {
		recurrence = t.Recurrence.String()
	}

	var b strings.Builder
	b.WriteString("Task\n")
	fmt.Fprintf(&b, "Description : %s\n", t.Description)
	fmt.Fprintf(&b, "Status      : %s [%s]\n", t.Status, t.StatusMarker)
	fmt.Fprintf(&b, "Due         : %s\n", m.formatDate(t.Due))
	fmt.Fprintf(&b, "Done        : %s\n", m.formatDate(t.Done))
	fmt.Fprintf(&b, "Recurrence  : %s\n", emptyPlaceholder(recurrence))
	fmt.Fprintf(&b, "Location    : %s:%d\n", t.Path, t.Line+1)
	fmt.Fprintf(&b, "Heading     : %s", emptyPlaceholder(t.PrecedingHeader))
	return b.String()
}

func (m Model) formatDate(d task.Date) string {
	if !d.Valid {
		return "-"
	}
	layout := m.settings.DateFormats[0]
	if d.HasTime {
		layout = m.settings.DateTimeFormats[0]
	}
	return d.Time.Format(layout)
}

func emptyPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

// joinInstructions and splitInstructions convert between a multi-line query
// source and the single line the input edits.
func joinInstructions(source string) string {
	var parts []string
	for _, l := range strings.Split(source, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			parts = append(parts, l)
		}
	}
	return strings.Join(parts, "; ")
}

func splitInstructions(v string) string {
	parts := strings.Split(v, ";")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return strings.Join(parts, "\n")
}

// visibleRange is the window of rows shown around cur out of n when at most
// rows fit; rows <= 0 shows everything.
func visibleRange(cur, n, rows int) (from, to int) {
	if rows <= 0 || n <= rows {
		return 0, n
	}
	from = cur - rows/2
	if from < 0 {
		from = 0
	}
	if from+rows > n {
		from = n - rows
	}
	return from, from + rows
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
