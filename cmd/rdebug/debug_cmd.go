package main

import (
	"errors"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/loykin/rdebug/internal/cluster"
	"github.com/loykin/rdebug/internal/listener"
	"github.com/loykin/rdebug/internal/session"
)

func newDebugCmd(g *GlobalFlags) *cobra.Command {
	var f DebugFlags
	cmd := &cobra.Command{
		Use:   "debug [flags] -- <command> [args...]",
		Short: "Run a command under debug-session tracking",
		Long: `Runs the given command wrapped in a debug session.

Without mode flags the debug listener starts immediately and the command is
held until a debugger client attaches. With --lite the command runs at full
speed and the listener starts only when 'rdebug attach' signals it. With
--post-mortem the listener starts automatically if the command fails.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, log, reg, cleanup, err := g.setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			mode := session.Mode(0)
			if f.Lite {
				mode |= session.Lite
			}
			if f.PostMortem {
				mode |= session.PostMortem
			}
			if mode == 0 {
				mode = session.Immediate
			}

			target := &session.ExecTarget{
				Path:   args[0],
				Args:   args[1:],
				Stdout: os.Stdout,
				Stderr: os.Stderr,
				Stdin:  os.Stdin,
			}
			l := &session.Launcher{
				Registry:  reg,
				Listener:  &listener.TCP{PreferredPort: cfg.DebugPort},
				Cluster:   cluster.Detect(),
				Out:       os.Stdout,
				Log:       log,
				LocalPort: cfg.LocalPort,
			}
			code, err := l.Launch(ctx, target, mode)
			if code != 0 {
				// suppress the redundant message for plain child failure
				var ee *exec.ExitError
				if errors.As(err, &ee) {
					err = nil
				}
				return &exitError{code: code, err: err}
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&f.Lite, "lite", "l", false, "arm only; activate later with 'rdebug attach'")
	cmd.Flags().BoolVarP(&f.PostMortem, "post-mortem", "p", false, "activate the debugger if the command fails")
	return cmd
}
