package session

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuncTargetRun(t *testing.T) {
	called := false
	err := FuncTarget(func(context.Context) error {
		called = true
		return nil
	}).Run(context.Background())
	assert.NoError(t, err)
	assert.True(t, called)
}

func TestExecTargetNotStarted(t *testing.T) {
	tgt := &ExecTarget{Path: "sh"}
	assert.Equal(t, -1, tgt.ExitCode())
	assert.ErrorIs(t, tgt.Suspend(), errNotRunning)
	assert.ErrorIs(t, tgt.Resume(), errNotRunning)
}

func TestExecTargetRunFailure(t *testing.T) {
	requireUnix(t)
	tgt := &ExecTarget{
		Path:   "sh",
		Args:   []string{"-c", "exit 7"},
		Stdout: io.Discard,
		Stderr: io.Discard,
	}
	err := tgt.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 7, tgt.ExitCode())
}

func TestExecTargetMissingBinary(t *testing.T) {
	tgt := &ExecTarget{Path: "/no/such/binary"}
	err := tgt.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, -1, tgt.ExitCode())
}

func TestExecTargetSignaledExitCode(t *testing.T) {
	requireUnix(t)
	tgt := &ExecTarget{
		Path:   "sh",
		Args:   []string{"-c", "kill -KILL $$"},
		Stdout: io.Discard,
		Stderr: io.Discard,
	}
	err := tgt.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, -1, tgt.ExitCode())
	assert.Equal(t, 137, exitCode(tgt, err))
}

func TestExecTargetSuspendResume(t *testing.T) {
	requireUnix(t)
	tgt := &ExecTarget{
		Path:   "sh",
		Args:   []string{"-c", "sleep 30"},
		Stdout: io.Discard,
		Stderr: io.Discard,
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- tgt.Run(ctx) }()
	waitFor(t, "child pid", func() bool { return tgt.pid() > 0 })

	require.NoError(t, tgt.Suspend())
	require.NoError(t, tgt.Resume())

	cancel()
	err := <-done
	assert.Error(t, err)
	assert.False(t, errors.Is(err, errNotRunning))
}
