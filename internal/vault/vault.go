package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"mdtasks/internal/task"
)

var (
	ErrTaskNotFound = errors.New("task not found in document")
	ErrNotMarkdown  = errors.New("only .md documents are supported")
)

const DefaultInclude = "**/*.md"

// maxTries bounds ReplaceTask while the document or the line is missing.
const maxTries = 10

var retryDelay = defaultRetryDelay

// defaultRetryDelay is 1ms, 10ms, then 100ms for every further try.
func defaultRetryDelay(try int) time.Duration {
	d := time.Millisecond
	for i := 0; i < try && d < 100*time.Millisecond; i++ {
		d *= 10
	}
	return d
}

// Scan parses every document under root matching include, a doublestar
// pattern relative to root. Hidden directories are skipped. Task paths are
// slash-separated and relative to root.
func Scan(ctx context.Context, root, include string, s task.Settings) ([]task.Task, error) {
	paths, err := Documents(root, include)
	if err != nil {
		return nil, err
	}

	fsys := os.DirFS(root)
	var tasks []task.Task
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		tasks = append(tasks, ParseDocument(p, string(content), s)...)
	}
	slog.Debug("scanned vault", "root", root, "documents", len(paths), "tasks", len(tasks))
	return tasks, nil
}

// Documents lists the documents under root matching include, sorted.
func Documents(root, include string) ([]string, error) {
	if include == "" {
		include = DefaultInclude
	}
	if !doublestar.ValidatePattern(include) {
		return nil, fmt.Errorf("include %q: %w", include, doublestar.ErrBadPattern)
	}

	matches, err := doublestar.Glob(os.DirFS(root), include, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %s in %s: %w", include, root, err)
	}

	paths := matches[:0]
	for _, m := range matches {
		if hidden(m) {
			slog.Debug("skipping hidden document", "path", m)
			continue
		}
		paths = append(paths, m)
	}
	slices.Sort(paths)
	return paths, nil
}

func hidden(p string) bool {
	for _, part := range strings.Split(p, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// ReplaceTask writes replacements in place of the line original was read
// from. The line is found again by its section and its index among the tasks
// of that section, so edits elsewhere in the document do not matter. While
// the document or the line cannot be found the call is retried with a short
// backoff.
func ReplaceTask(ctx context.Context, root string, original task.Task, replacements []task.Task, s task.Settings) error {
	if path.Ext(original.Path) != ".md" {
		return fmt.Errorf("%s: %w", original.Path, ErrNotMarkdown)
	}
	file := filepath.Join(root, filepath.FromSlash(original.Path))

	for try := 0; ; try++ {
		err := replaceOnce(file, original, replacements, s)
		if err == nil {
			return nil
		}
		if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, ErrTaskNotFound) {
			return err
		}
		if try+1 >= maxTries {
			return fmt.Errorf("replace task after %d tries: %w", maxTries, err)
		}

		slog.Warn("retrying task replacement", "path", original.Path, "try", try+1, "err", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay(try)):
		}
	}
}

func replaceOnce(file string, original task.Task, replacements []task.Task, s task.Settings) error {
	info, err := os.Stat(file)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	// The n-th task at or after the start of its section, where n is its
	// index within the section.
	target, seen := -1, 0
	walk(original.Path, string(content), s, func(l line) bool {
		if !l.ok || l.pos.Line < original.SectionStart {
			return true
		}
		if seen == original.SectionIndex {
			target = l.pos.Line
			return false
		}
		seen++
		return true
	})
	if target < 0 {
		return fmt.Errorf("%s: section %d index %d: %w", original.Path, original.SectionStart, original.SectionIndex, ErrTaskNotFound)
	}

	lines := strings.Split(string(content), "\n")
	replaced := make([]string, 0, len(lines)+len(replacements))
	replaced = append(replaced, lines[:target]...)
	for _, r := range replacements {
		replaced = append(replaced, r.FileLine(s))
	}
	replaced = append(replaced, lines[target+1:]...)

	return writeFile(file, []byte(strings.Join(replaced, "\n")), info.Mode().Perm())
}

// writeFile replaces file through a temporary sibling and a rename.
func writeFile(file string, data []byte, perm fs.FileMode) error {
	tmp := file + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, file); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// TaskAt returns the task on the zero-based line of the document at rel.
func TaskAt(root, rel string, lineNo int, s task.Settings) (task.Task, error) {
	rel = filepath.ToSlash(rel)
	content, err := fs.ReadFile(os.DirFS(root), rel)
	if err != nil {
		return task.Task{}, fmt.Errorf("read %s: %w", rel, err)
	}
	for _, t := range ParseDocument(rel, string(content), s) {
		if t.Line == lineNo {
			return t, nil
		}
	}
	return task.Task{}, fmt.Errorf("%s:%d: %w", rel, lineNo+1, ErrTaskNotFound)
}

// Toggle toggles t at now and writes the result to its document.
func Toggle(ctx context.Context, root string, t task.Task, s task.Settings, now time.Time) ([]task.Task, error) {
	out := t.Toggle(s, now)
	if err := ReplaceTask(ctx, root, t, out, s); err != nil {
		return nil, err
	}
	return out, nil
}
