package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		os.Exit(report(os.Stderr, err))
	}
}

// report prints err and returns the process exit code. An exitError with a
// nil wrapped error stays silent: the child already wrote its own failure.
func report(w io.Writer, err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			_, _ = fmt.Fprintln(w, ee.err)
		}
		return ee.code
	}
	_, _ = fmt.Fprintln(w, err)
	return 1
}

// exitError carries the wrapped target's exit code through cobra so the job
// scheduler sees the script's own status.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit status %d", e.code)
}

func (e *exitError) Unwrap() error { return e.err }

func buildRoot() *cobra.Command {
	var g GlobalFlags
	root := &cobra.Command{
		Use:           "rdebug",
		Short:         "Debug scripts on remote compute nodes from a local debugger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.ConfigPath, "config", "", "config file (default "+defaultConfigHint+")")
	root.PersistentFlags().StringVar(&g.RegistryPath, "registry", "", "override the session registry database path")

	root.AddCommand(newDebugCmd(&g))
	root.AddCommand(newAttachCmd(&g))
	root.AddCommand(newListCmd(&g))
	return root
}

const defaultConfigHint = "~/.rdebug/config.toml"
