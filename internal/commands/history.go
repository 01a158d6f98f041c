package commands

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

func addHistory(topLevel *cobra.Command, o *options) {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently toggled tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := o.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			toggles, err := store.History(limit)
			if err != nil {
				return err
			}

			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.MaxColWidth = 50
			tbl.AddRow("WHEN", "STATUS", "TASK", "WHERE", "NEXT DUE")
			for _, t := range toggles {
				next := ""
				if t.SpawnedDue.Valid {
					next = t.SpawnedDue.Time.In(o.settings.Location).Format(o.settings.DateFormats[0])
				}
				tbl.AddRow(t.At.Local().Format("2006-01-02 15:04"), t.Status, t.Description,
					fmt.Sprintf("%s:%d", t.Path, t.Line+1), next)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tbl)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show, 0 for all")
	topLevel.AddCommand(cmd)
}
