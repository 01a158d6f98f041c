package commands

import (
	"github.com/spf13/cobra"

	"mdtasks/internal/ui"
)

func addUI(topLevel *cobra.Command, o *options) {
	var src sourceFlags

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Browse and toggle query results interactively",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			sources, err := src.sources(o)
			if err != nil {
				return err
			}
			store, err := o.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			// Only the first block of a query file is browsed.
			return ui.Run(ui.Options{
				Store:    store,
				Config:   o.cfg,
				Settings: o.settings,
				Source:   sources[0],
				Now:      o.now,
			})
		},
	}

	src.register(cmd)
	topLevel.AddCommand(cmd)
}
