// Package vault reads and updates the markdown documents tasks live in.
package vault

import (
	"regexp"
	"strings"

	"mdtasks/internal/task"
)

var headingRe = regexp.MustCompile(`^#{1,6}\s+(.*?)\s*#*\s*$`)

// line is one line of a document together with where it sits.
type line struct {
	pos  task.Position
	task task.Task
	ok   bool
}

// walk parses every line of content. A section is a run of non-blank lines;
// headings and fenced code blocks end a section. Tasks inside fenced code
// are ignored.
func walk(path, content string, s task.Settings, yield func(line) bool) {
	p := task.NewParser(s)

	var (
		heading      string
		sectionStart = -1
		sectionIndex int
		fence        string
	)
	for i, text := range strings.Split(content, "\n") {
		text = strings.TrimSuffix(text, "\r")
		trimmed := strings.TrimSpace(text)

		if fence != "" {
			if strings.HasPrefix(trimmed, fence) {
				fence = ""
				sectionStart = -1
			}
			continue
		}
		if f := fenceOf(trimmed); f != "" {
			fence = f
			continue
		}

		if trimmed == "" {
			sectionStart = -1
			continue
		}
		if m := headingRe.FindStringSubmatch(trimmed); m != nil {
			heading = m[1]
			sectionStart = -1
			continue
		}
		if sectionStart < 0 {
			sectionStart, sectionIndex = i, 0
		}

		pos := task.Position{
			Path:            path,
			Line:            i,
			SectionStart:    sectionStart,
			SectionIndex:    sectionIndex,
			PrecedingHeader: heading,
		}
		t, ok := p.Parse(text, pos)
		if ok {
			sectionIndex++
		}
		if !yield(line{pos: pos, task: t, ok: ok}) {
			return
		}
	}
}

func fenceOf(trimmed string) string {
	for _, f := range []string{"```", "~~~"} {
		if strings.HasPrefix(trimmed, f) {
			return f
		}
	}
	return ""
}

// ParseDocument returns the tasks of one document in line order. path is
// recorded on every task as given.
func ParseDocument(path, content string, s task.Settings) []task.Task {
	var tasks []task.Task
	walk(path, content, s, func(l line) bool {
		if l.ok {
			tasks = append(tasks, l.task)
		}
		return true
	})
	return tasks
}

// QueryBlocks returns the sources of the ```tasks code blocks in content.
func QueryBlocks(content string) []string {
	var (
		blocks []string
		cur    []string
		in     bool
	)
	for _, text := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(strings.TrimSuffix(text, "\r"))
		switch {
		case !in && trimmed == "```tasks":
			in, cur = true, nil
		case in && strings.HasPrefix(trimmed, "```"):
			blocks = append(blocks, strings.Join(cur, "\n"))
			in = false
		case in:
			cur = append(cur, text)
		}
	}
	return blocks
}
