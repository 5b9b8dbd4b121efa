package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/loykin/rdebug/internal/attach"
	"github.com/loykin/rdebug/internal/registry"
)

func newAttachCmd(g *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attach [job_id] [pid]",
		Short: "Activate the debug listener of an armed session",
		Long: `Signals a session launched with 'rdebug debug --lite' to start its debug
listener. With no arguments the live sessions are listed for selection.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, _, reg, cleanup, err := g.setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			var (
				jobID string
				pid   int
			)
			switch len(args) {
			case 0:
				rec, err := attach.Pick(ctx, reg)
				if err != nil {
					return describeAttachErr(err)
				}
				jobID, pid = rec.JobID, rec.PID
			case 1:
				jobID = args[0]
			case 2:
				jobID = args[0]
				pid, err = strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("pid must be numeric: %q", args[1])
				}
			}

			res, err := attach.Attach(ctx, reg, jobID, pid)
			if errors.Is(err, registry.ErrAmbiguous) {
				rec, pickErr := attach.Pick(ctx, reg)
				if pickErr != nil {
					return describeAttachErr(pickErr)
				}
				res, err = attach.Attach(ctx, reg, rec.JobID, rec.PID)
			}
			if err != nil {
				if errors.Is(err, attach.ErrAlreadyActive) {
					// informational, not a failure
					fmt.Fprintf(cmd.OutOrStdout(),
						"Session %s is already active", res.Record.Key())
					if res.Record.Port > 0 {
						fmt.Fprintf(cmd.OutOrStdout(), " on %s:%d",
							res.Record.Host, res.Record.Port)
					}
					fmt.Fprintln(cmd.OutOrStdout())
					return nil
				}
				return describeAttachErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"Activation request sent to %s (pid %d). Watch the job's output for connection details.\n",
				res.Record.Key(), res.Record.PID)
			return nil
		},
	}
	return cmd
}

func describeAttachErr(err error) error {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return errors.New("no matching debug session; is the job still running?")
	case errors.Is(err, attach.ErrDelivery):
		return errors.New("job no longer active")
	}
	return err
}
