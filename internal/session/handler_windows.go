//go:build windows

package session

import (
	"context"
	"errors"
	"syscall"
)

const ActivationSignal = syscall.Signal(0)

func (l *Launcher) installActivationHandler(ctx context.Context) (func(), error) {
	return nil, errors.New("lite mode needs POSIX signal delivery; not supported on windows")
}
