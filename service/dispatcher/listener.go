package dispatcher

import (
	"net"
	"sync"
)

// connListener adapts a channel of accepted connections into a
// net.Listener, so a worker's HTTP server can be fed by the master
// accept loop instead of its own socket. The listener outlives any one
// worker: a respawned worker keeps draining the same channel and no
// routed connection is lost in the swap.
type connListener struct {
	ch   chan net.Conn
	addr net.Addr
	once sync.Once
	done chan struct{}
}

func newConnListener(addr net.Addr) *connListener {
	return &connListener{
		ch:   make(chan net.Conn, 128),
		addr: addr,
		done: make(chan struct{}),
	}
}

func (l *connListener) Accept() (net.Conn, error) {
	select {
	case c := <-l.ch:
		return c, nil
	case <-l.done:
		return nil, net.ErrClosed
	}
}

func (l *connListener) Close() error {
	l.once.Do(func() { close(l.done) })
	return nil
}

func (l *connListener) Addr() net.Addr { return l.addr }

// Push hands one routed connection to the worker. Returns false when
// the listener is closed or the worker's backlog is full; the caller
// drops the connection in both cases.
func (l *connListener) Push(c net.Conn) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.ch <- c:
		return true
	case <-l.done:
		return false
	default:
		return false
	}
}
