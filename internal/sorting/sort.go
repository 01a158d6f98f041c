// Package sorting orders tasks by a sequence of keys.
package sorting

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"mdtasks/internal/task"
)

type Key string

const (
	Status      Key = "status"
	Due         Key = "due"
	Done        Key = "done"
	Path        Key = "path"
	Description Key = "description"
)

var Keys = []Key{Status, Due, Done, Path, Description}

// ParseKey accepts any of Keys, ignoring case.
func ParseKey(s string) (Key, error) {
	k := Key(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Keys, k) {
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// defaults break ties left by the requested keys.
var defaults = []Key{Status, Due, Path}

type comparator func(a, b task.Task) int

// By returns a new slice with tasks ordered by keys, then by status, due date
// and path. Tasks that compare equal keep their relative order. Neither
// argument is modified.
func By(keys []Key, tasks []task.Task) []task.Task {
	cmp := composite(keys)
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, cmp)
	return out
}

func composite(keys []Key) comparator {
	// The collator is not safe for concurrent use, so each ordering owns one.
	byDescription := descriptionComparator()

	all := make([]comparator, 0, len(keys)+len(defaults))
	for _, k := range slices.Concat(keys, defaults) {
		switch k {
		case Status:
			all = append(all, byStatus)
		case Due:
			all = append(all, byDue)
		case Done:
			all = append(all, byDone)
		case Path:
			all = append(all, byPath)
		case Description:
			all = append(all, byDescription)
		}
	}

	return func(a, b task.Task) int {
		for _, c := range all {
			if r := c(a, b); r != 0 {
				return r
			}
		}
		return 0
	}
}

// byStatus puts open tasks before done ones.
func byStatus(a, b task.Task) int {
	switch {
	case a.Status == b.Status:
		return 0
	case a.Status == task.Todo:
		return -1
	}
	return 1
}

func byDue(a, b task.Task) int  { return byDate(a.Due, b.Due) }
func byDone(a, b task.Task) int { return byDate(a.Done, b.Done) }

// byDate compares by day, then by time of day. A missing date sorts last.
// Date-only values sit at midnight, ahead of any timed value on that day.
func byDate(a, b task.Date) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		return 1
	case !b.Valid:
		return -1
	}
	return a.Time.Compare(b.Time)
}

func byPath(a, b task.Task) int {
	return strings.Compare(a.Path, b.Path)
}

func descriptionComparator() comparator {
	c := collate.New(language.Und)
	return func(a, b task.Task) int {
		return c.CompareString(a.Description, b.Description)
	}
}
