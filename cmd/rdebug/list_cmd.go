package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newListCmd(g *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List live debug sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, _, reg, cleanup, err := g.setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			recs, err := reg.ListActive(ctx)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no live debug sessions")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "JOB\tPID\tSTATE\tENDPOINT\tSTARTED\tWORKDIR")
			for _, r := range recs {
				endpoint := "-"
				if r.Port > 0 {
					endpoint = fmt.Sprintf("%s:%d", r.Host, r.Port)
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n",
					r.Key(), r.PID, r.State, endpoint,
					r.CreatedAt.Local().Format(time.DateTime), r.WorkDir)
			}
			return w.Flush()
		},
	}
}
