package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mdtasks/internal/query"
	"mdtasks/internal/task"
	"mdtasks/internal/vault"
)

// sourceFlags select where a query comes from. With none set the configured
// default query is used.
type sourceFlags struct {
	instructions []string
	file         string
	saved        string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.instructions, "query", "q", nil, "query instruction, repeat for more lines")
	cmd.Flags().StringVarP(&f.file, "query-file", "f", "", "run the ```tasks blocks of a note, or a plain query file")
	cmd.Flags().StringVarP(&f.saved, "saved", "s", "", "run a saved query")
	cmd.MarkFlagsMutuallyExclusive("query", "query-file", "saved")
}

// sources returns one query source per query to run.
func (f *sourceFlags) sources(o *options) ([]string, error) {
	switch {
	case len(f.instructions) > 0:
		return []string{strings.Join(f.instructions, "\n")}, nil
	case f.file != "":
		return readQueryFile(f.file)
	case f.saved != "":
		store, err := o.openStore()
		if err != nil {
			return nil, err
		}
		defer store.Close()
		q, err := store.Query(f.saved)
		if err != nil {
			return nil, err
		}
		return []string{q.Source}, nil
	default:
		return []string{o.cfg.DefaultQuery}, nil
	}
}

func readQueryFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(path) != ".md" {
		return []string{string(data)}, nil
	}
	blocks := vault.QueryBlocks(string(data))
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%s: no tasks blocks", path)
	}
	return blocks, nil
}

func (o *options) parseQuery(source string) query.Query {
	return query.Parse(source, query.WithDateParser(query.NewNaturalDates(o.settings, o.now())))
}

func addList(topLevel *cobra.Command, o *options) {
	var src sourceFlags

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Print the tasks matching a query",
		Example: `
mdtasks list
mdtasks list -q "not done" -q "due before tomorrow" -q "sort by path"
mdtasks list --query-file weekly.md
mdtasks list --saved today`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sources, err := src.sources(o)
			if err != nil {
				return err
			}
			queries := make([]query.Query, len(sources))
			for i, source := range sources {
				queries[i] = o.parseQuery(source)
				if err := queries[i].Err(); err != nil {
					return fmt.Errorf("query %d: %w", i+1, err)
				}
			}

			tasks, err := vault.Scan(context.Background(), o.cfg.Vault.Root, o.cfg.Vault.Include, o.settings)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for i, q := range queries {
				if i > 0 {
					fmt.Fprintln(w)
				}
				printResults(w, q, q.Apply(tasks), o.settings)
			}
			return nil
		},
	}

	src.register(cmd)
	topLevel.AddCommand(cmd)
}

func printResults(w io.Writer, q query.Query, tasks []task.Task, s task.Settings) {
	layout := q.Layout()
	faint := color.New(color.Faint)
	for _, t := range tasks {
		line := fmt.Sprintf("%s- [%s] %s", t.Indentation, t.StatusMarker, t.DisplayString(s, layout))
		if !layout.HideBacklinks {
			line += "  " + faint.Sprint(location(t))
		}
		fmt.Fprintln(w, line)
	}
	if !layout.HideTaskCount {
		fmt.Fprintln(w, faint.Sprint(taskCount(len(tasks))))
	}
}

// location is the file:line a task can be toggled by, with its heading.
func location(t task.Task) string {
	loc := fmt.Sprintf("%s:%d", t.Path, t.Line+1)
	if t.PrecedingHeader != "" {
		loc += " > " + t.PrecedingHeader
	}
	return loc
}

func taskCount(n int) string {
	if n == 1 {
		return "1 task"
	}
	return fmt.Sprintf("%d tasks", n)
}
