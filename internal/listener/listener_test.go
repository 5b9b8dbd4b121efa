package listener

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenAndAttach(t *testing.T) {
	ctx := context.Background()
	l := &TCP{}
	defer func() { _ = l.Close() }()

	host, port, err := l.Listen(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, host)
	assert.Positive(t, port)

	done := make(chan error, 1)
	go func() { done <- l.WaitForAttach(ctx) }()

	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("WaitForAttach did not return after client connect")
	}

	// already attached: returns immediately
	require.NoError(t, l.WaitForAttach(ctx))
}

func TestListenPreferredPort(t *testing.T) {
	ctx := context.Background()

	probe, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	preferred := probe.Addr().(*net.TCPAddr).Port
	require.NoError(t, probe.Close())

	l := &TCP{PreferredPort: preferred}
	defer func() { _ = l.Close() }()
	_, port, err := l.Listen(ctx)
	require.NoError(t, err)
	assert.Equal(t, preferred, port)

	// second Listen is refused; starting is irreversible per process
	_, _, err = l.Listen(ctx)
	assert.Error(t, err)
}

func TestListenBusyPortFallsBack(t *testing.T) {
	ctx := context.Background()

	busy, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer func() { _ = busy.Close() }()

	l := &TCP{PreferredPort: busy.Addr().(*net.TCPAddr).Port}
	defer func() { _ = l.Close() }()
	_, port, err := l.Listen(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, busy.Addr().(*net.TCPAddr).Port, port)
}

func TestWaitForAttachCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := &TCP{}
	defer func() { _ = l.Close() }()
	_, _, err := l.Listen(ctx)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- l.WaitForAttach(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("WaitForAttach ignored cancellation")
	}
}

func TestWaitBeforeListen(t *testing.T) {
	l := &TCP{}
	assert.Error(t, l.WaitForAttach(context.Background()))
}
