package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/scroller/internal/scroller/trace"
)

func newReplayCmd() *cobra.Command {
	var only []string

	cmd := &cobra.Command{
		Use:   "replay <trace>",
		Short: "Print a recorded trace",
		Example: `  scroller replay fling.trace
  scroller replay fling.trace --type completion --type dispatch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open trace: %w", err)
			}
			defer f.Close()

			rd, err := trace.NewReader(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			records, err := rd.ReadAll()
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			keep := make(map[string]bool, len(only))
			for _, t := range only {
				keep[t] = true
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "session %s\n", rd.Session())
			for _, rec := range records {
				if len(keep) > 0 && !keep[rec.Type.String()] {
					continue
				}
				fmt.Fprintln(out, rec)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&only, "type", nil, "only print records of this type (repeatable)")
	return cmd
}
