//go:build !windows

package session

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loykin/rdebug/internal/registry"
)

// catchActivationSignal keeps a stray SIGUSR1 from killing the test binary
// if it lands before the launcher's own handler is installed.
func catchActivationSignal(t *testing.T) {
	t.Helper()
	ch := make(chan os.Signal, 8)
	signal.Notify(ch, ActivationSignal)
	t.Cleanup(func() { signal.Stop(ch) })
}

func sendActivationSignal(t *testing.T) {
	t.Helper()
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))
}

func TestLiteActivationIsIdempotent(t *testing.T) {
	requireUnix(t)
	catchActivationSignal(t)
	ctx := context.Background()
	reg := openRegistry(t)
	cl := &countingListener{}
	l := newLauncher(reg, cl)

	release := make(chan struct{})
	res := make(chan launchResult, 1)
	go func() {
		code, err := l.Launch(ctx, FuncTarget(func(context.Context) error {
			<-release
			return nil
		}), Lite)
		res <- launchResult{code, err}
	}()

	waitFor(t, "armed record", func() bool {
		r, err := currentRecord(t, reg)
		return err == nil && r.State == registry.StateArmed
	})

	// repeated deliveries: exactly one listener comes up
	var rec registry.Record
	waitFor(t, "listening state", func() bool {
		sendActivationSignal(t)
		r, err := currentRecord(t, reg)
		rec = r
		return err == nil && r.State == registry.StateListening && r.Port > 0
	})
	sendActivationSignal(t)
	sendActivationSignal(t)

	dialRecord(t, rec)
	waitFor(t, "attached state", func() bool {
		r, err := currentRecord(t, reg)
		return err == nil && r.State == registry.StateAttached
	})

	// signals after attach stay no-ops
	sendActivationSignal(t)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), cl.listens.Load())

	close(release)
	r := <-res
	assert.Zero(t, r.code)
	assert.NoError(t, r.err)
	_, err := currentRecord(t, reg)
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestListenerBindFailureLeavesArmed(t *testing.T) {
	requireUnix(t)
	catchActivationSignal(t)
	ctx := context.Background()
	reg := openRegistry(t)
	fl := &flakyListener{failures: 1}
	l := newLauncher(reg, fl)

	release := make(chan struct{})
	res := make(chan launchResult, 1)
	go func() {
		code, err := l.Launch(ctx, FuncTarget(func(context.Context) error {
			<-release
			return nil
		}), Lite)
		res <- launchResult{code, err}
	}()

	waitFor(t, "armed record", func() bool {
		r, err := currentRecord(t, reg)
		return err == nil && r.State == registry.StateArmed
	})

	sendActivationSignal(t)
	waitFor(t, "failed bind attempt", func() bool { return fl.calls.Load() >= 1 })
	// the record is untouched and the session can still be activated
	r, err := currentRecord(t, reg)
	require.NoError(t, err)
	assert.Equal(t, registry.StateArmed, r.State)
	assert.Zero(t, r.Port)

	var rec registry.Record
	waitFor(t, "retried activation", func() bool {
		sendActivationSignal(t)
		r, err := currentRecord(t, reg)
		rec = r
		return err == nil && r.State == registry.StateListening && r.Port > 0
	})
	dialRecord(t, rec)
	close(release)
	lr := <-res
	assert.Zero(t, lr.code)
	assert.NoError(t, lr.err)
}
