//go:build !windows

package session

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// ActivationSignal is the out-of-band trigger an attach invocation delivers
// to an armed session.
const ActivationSignal = syscall.SIGUSR1

// installActivationHandler arms the async activation path: every delivery of
// ActivationSignal attempts the ARMED -> LISTENING transition. Repeated
// deliveries are harmless because Activate only acts once.
func (l *Launcher) installActivationHandler(ctx context.Context) (stop func(), err error) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, ActivationSignal)
	go func() {
		for range ch {
			if err := l.Activate(ctx); err != nil {
				l.Log.Error("activation failed, session stays armed", "err", err)
			}
		}
	}()
	return func() {
		signal.Stop(ch)
		close(ch)
	}, nil
}
