package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mdtasks/internal/recurrence"
)

func addNext(topLevel *cobra.Command, o *options) {
	var (
		count int
		from  string
	)

	cmd := &cobra.Command{
		Use:   "next <rule>...",
		Short: "Preview the upcoming occurrences of a recurrence rule",
		Example: `
mdtasks next every 2 weeks on Monday
mdtasks next every month on the last Friday --count 3 --from 2021-09-01`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rule, err := recurrence.Parse(strings.Join(args, " "))
			if err != nil {
				return err
			}

			start := o.now().In(o.settings.Location)
			if from != "" {
				if start, err = time.ParseInLocation(o.settings.DateFormats[0], from, o.settings.Location); err != nil {
					return fmt.Errorf("--from: %w", err)
				}
			}
			// Occurrences fall on wall-clock days.
			y, m, d := start.Date()
			start = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, rule.String())
			r := rule.WithStart(start)
			t := start
			for i := 0; i < count; i++ {
				next, ok := r.Next(t)
				if !ok {
					fmt.Fprintln(w, "no further occurrences")
					break
				}
				fmt.Fprintf(w, "  %s %s\n", next.Format(o.settings.DateFormats[0]), next.Format("Mon"))
				t = next
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "c", 5, "number of occurrences to show")
	cmd.Flags().StringVar(&from, "from", "", "first day of the schedule (default today)")
	topLevel.AddCommand(cmd)
}
