//go:build windows

package attach

import "errors"

func deliver(pid int) error {
	return errors.New("activation signals are not supported on windows")
}
