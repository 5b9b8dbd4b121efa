// Package listener is the debug-adapter collaborator boundary. The session
// machinery only needs two things from it: open a socket and advertise the
// endpoint, then block until a debugger client connects. The wire protocol
// spoken after attach is out of scope here.
package listener

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"sync"
)

// Listener accepts exactly one remote debugger client.
type Listener interface {
	// Listen binds the socket and returns the advertised host and port.
	// Irreversible for a given process: call it once.
	Listen(ctx context.Context) (host string, port int, err error)

	// WaitForAttach blocks until a client connects. No timeout: the user
	// decides when to attach.
	WaitForAttach(ctx context.Context) error

	Close() error
}

// TCP implements Listener on a plain TCP socket.
type TCP struct {
	// PreferredPort is tried first; 0 or a busy port falls back to an
	// ephemeral one.
	PreferredPort int

	mu   sync.Mutex
	ln   net.Listener
	conn net.Conn
}

var errNotListening = errors.New("listener not started")

func (t *TCP) Listen(ctx context.Context) (string, int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ln != nil {
		return "", 0, errors.New("listener already started")
	}
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", ":"+strconv.Itoa(t.PreferredPort))
	if err != nil {
		ln, err = lc.Listen(ctx, "tcp", ":0")
		if err != nil {
			return "", 0, err
		}
	}
	t.ln = ln
	host, _ := os.Hostname()
	return host, ln.Addr().(*net.TCPAddr).Port, nil
}

func (t *TCP) WaitForAttach(ctx context.Context) error {
	t.mu.Lock()
	ln, conn := t.ln, t.conn
	t.mu.Unlock()
	if conn != nil {
		// a client is already attached; nothing to wait for
		return nil
	}
	if ln == nil {
		return errNotListening
	}

	type accepted struct {
		conn net.Conn
		err  error
	}
	ch := make(chan accepted, 1)
	go func() {
		c, err := ln.Accept()
		ch <- accepted{c, err}
	}()

	select {
	case <-ctx.Done():
		_ = ln.Close()
		return ctx.Err()
	case a := <-ch:
		if a.err != nil {
			return a.err
		}
		t.mu.Lock()
		t.conn = a.conn
		t.mu.Unlock()
		return nil
	}
}

func (t *TCP) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var err error
	if t.conn != nil {
		err = t.conn.Close()
		t.conn = nil
	}
	if t.ln != nil {
		if e := t.ln.Close(); err == nil {
			err = e
		}
		t.ln = nil
	}
	return err
}
