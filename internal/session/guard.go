package session

import (
	"context"
	"fmt"
	"runtime/debug"
)

// guard wraps run with the crash interceptor: on failure it prints the
// failure context, performs the same activation as an external signal would,
// and blocks in the listener so the user can inspect the frozen state. The
// original failure then continues to propagate unchanged, so an outer
// supervisor still sees the natural exit status.
func (l *Launcher) guard(run func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(l.Out, "[DEBUGGER] Unhandled panic: %v\n%s", r, debug.Stack())
				l.postMortem(ctx)
				panic(r)
			}
		}()
		if err = run(ctx); err != nil {
			fmt.Fprintf(l.Out, "[DEBUGGER] Target failed: %v\n", err)
			l.postMortem(ctx)
		}
		return err
	}
}

func (l *Launcher) postMortem(ctx context.Context) {
	fmt.Fprintln(l.Out, "[DEBUGGER] Starting post-mortem debug session.")
	if err := l.Activate(ctx); err != nil {
		l.Log.Error("post-mortem activation failed", "err", err)
	}
}
