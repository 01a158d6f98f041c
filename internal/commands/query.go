package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

func addQuery(topLevel *cobra.Command, o *options) {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Manage saved queries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		querySave(o),
		queryShow(o),
		queryList(o),
		queryDelete(o),
		queryCheck(o),
	)
	topLevel.AddCommand(cmd)
}

func querySave(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "save <name> <instruction>...",
		Short: "Save a query under a name, one argument per line",
		Example: `
mdtasks query save today "not done" "due before tomorrow"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := strings.Join(args[1:], "\n")
			if err := o.parseQuery(source).Err(); err != nil {
				return err
			}
			store, err := o.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.SaveQuery(args[0], source); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %q\n", args[0])
			return nil
		},
	}
}

func queryShow(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a saved query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := o.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			q, err := store.Query(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), q.Source)
			return nil
		},
	}
}

func queryList(o *options) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved queries",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := o.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			queries, err := store.ListQueries()
			if err != nil {
				return err
			}

			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.MaxColWidth = 60
			tbl.AddRow("NAME", "QUERY", "UPDATED")
			for _, q := range queries {
				tbl.AddRow(q.Name, strings.ReplaceAll(q.Source, "\n", "; "), q.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
			fmt.Fprintln(cmd.OutOrStdout(), tbl)
			return nil
		},
	}
}

func queryDelete(o *options) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a saved query",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := o.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.DeleteQuery(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %q\n", args[0])
			return nil
		},
	}
}

var errInvalidQueries = errors.New("invalid queries")

func queryCheck(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check [file]",
		Short: "Report whether a query parses",
		Long: `Check parses every ` + "```tasks" + ` block of a note, or a plain query file, or a
query read from standard input when no file is given, and reports the first
problem of each.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sources []string
			if len(args) == 0 || args[0] == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				sources = []string{string(data)}
			} else {
				var err error
				if sources, err = readQueryFile(args[0]); err != nil {
					return err
				}
			}

			w := cmd.OutOrStdout()
			failed := 0
			for i, source := range sources {
				if err := o.parseQuery(source).Err(); err != nil {
					failed++
					fmt.Fprintf(w, "query %d: %v\n", i+1, err)
					continue
				}
				fmt.Fprintf(w, "query %d: ok\n", i+1)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d: %w", failed, len(sources), errInvalidQueries)
			}
			return nil
		},
	}
}
