//go:build windows

package registry

import "os"

// pidAlive uses FindProcess, which succeeds only for live processes on
// Windows.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	_ = p.Release()
	return true
}

func startTicks(pid int) int64 { return 0 }

// SelfStartTicks returns 0; Windows records rely on the token alone for
// identity.
func SelfStartTicks() int64 { return 0 }
