package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mdtasks/internal/storage"
	"mdtasks/internal/vault"
)

var errBadLocation = errors.New("expected <file>:<line>")

// parseLocation splits "notes/a.md:12" into the path and the zero-based line.
func parseLocation(arg string) (string, int, error) {
	i := strings.LastIndex(arg, ":")
	if i <= 0 {
		return "", 0, fmt.Errorf("%q: %w", arg, errBadLocation)
	}
	n, err := strconv.Atoi(arg[i+1:])
	if err != nil || n < 1 {
		return "", 0, fmt.Errorf("%q: %w", arg, errBadLocation)
	}
	return arg[:i], n - 1, nil
}

func addToggle(topLevel *cobra.Command, o *options) {
	cmd := &cobra.Command{
		Use:     "toggle <file>:<line>",
		Aliases: []string{"done"},
		Short:   "Toggle a task between todo and done",
		Long: `Toggle marks the task on the given line done, or todo again when it is
already done. Completing a recurring task writes its next occurrence above it.
The file is relative to the vault and lines count from 1, as printed by list.`,
		Example: `
mdtasks toggle chores.md:12`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rel, line, err := parseLocation(args[0])
			if err != nil {
				return err
			}
			root := o.cfg.Vault.Root
			if filepath.IsAbs(rel) {
				abs, err := filepath.Abs(root)
				if err != nil {
					return err
				}
				if rel, err = filepath.Rel(abs, rel); err != nil {
					return err
				}
			}

			t, err := vault.TaskAt(root, rel, line, o.settings)
			if err != nil {
				return err
			}
			// The history must be writable before the note is touched.
			store, err := o.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			now := o.now()
			out, err := vault.Toggle(context.Background(), root, t, o.settings, now)
			if err != nil {
				return err
			}
			if err := store.RecordToggle(storage.ToggleOf(t, out, now)); err != nil {
				return fmt.Errorf("record toggle: %w", err)
			}

			w := cmd.OutOrStdout()
			for _, r := range out {
				fmt.Fprintln(w, r.FileLine(o.settings))
			}
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}
