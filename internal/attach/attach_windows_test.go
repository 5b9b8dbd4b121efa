//go:build windows

package attach

import "testing"

func requireUnix(t *testing.T) {
	t.Helper()
	t.Skip("requires Unix signal delivery")
}
