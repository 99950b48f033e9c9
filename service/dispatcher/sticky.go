package dispatcher

import (
	"context"
	"net"
	"sync"
	"time"

	"ChatRelay/logger"
	"ChatRelay/tools/safe"

	"github.com/cespare/xxhash/v2"
)

// WorkerFactory builds a replacement worker for a table slot. The
// dispatcher calls it at boot and again after a slot's worker dies.
type WorkerFactory func(index int, ln *connListener) *Worker

// Sticky routes raw connections to a fixed-size worker table by client
// address, so a reconnecting client keeps landing on the same worker
// while the table is stable. It never looks inside the connection;
// protocol handling starts on the worker side.
type Sticky struct {
	factory WorkerFactory
	slots   []*slot

	done     chan struct{}
	doneOnce sync.Once
	wg       sync.WaitGroup
}

type slot struct {
	ln *connListener

	mu     sync.Mutex
	worker *Worker
}

func NewSticky(size int, factory WorkerFactory) *Sticky {
	if size <= 0 {
		size = 1
	}
	return &Sticky{
		factory: factory,
		slots:   make([]*slot, size),
		done:    make(chan struct{}),
	}
}

// Route maps a client address onto a table index. Deterministic over
// the host part only, so one client's reconnects stick regardless of
// its ephemeral port.
func (s *Sticky) Route(addr string) int {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	return int(xxhash.Sum64String(host) % uint64(len(s.slots)))
}

// Run owns the accept loop. Workers are spawned first so no routed
// connection waits on a cold slot; the loop exits when the master
// listener closes.
func (s *Sticky) Run(ln net.Listener) error {
	for i := range s.slots {
		s.slots[i] = &slot{ln: newConnListener(ln.Addr())}
		s.supervise(i)
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return err
		}

		idx := s.Route(conn.RemoteAddr().String())
		if !s.slots[idx].ln.Push(conn) {
			logger.Warnf("[sticky] worker %d backlog full, dropping %s", idx, conn.RemoteAddr())
			_ = conn.Close()
		}
	}
}

// supervise keeps one table slot occupied: spawn, wait, replace. Only
// this slot is replaced on a crash; sessions on it are lost and the
// clients reconnect, possibly landing elsewhere.
func (s *Sticky) supervise(index int) {
	sl := s.slots[index]
	s.wg.Add(1)
	safe.Go("worker-slot", func() {
		defer s.wg.Done()
		for {
			select {
			case <-s.done:
				return
			default:
			}

			w := s.factory(index, sl.ln)
			sl.mu.Lock()
			sl.worker = w
			sl.mu.Unlock()

			err := w.Run()

			select {
			case <-s.done:
				return
			default:
			}
			logger.Errorf("[sticky] worker %d died: %v, respawning slot", index, err)
			w.Srv.Stop()
			time.Sleep(time.Second)
		}
	})
}

// Stop shuts the table down: stop accepting, then stop every worker.
func (s *Sticky) Stop(ctx context.Context) {
	s.doneOnce.Do(func() { close(s.done) })

	for _, sl := range s.slots {
		if sl == nil {
			continue
		}
		_ = sl.ln.Close()
		sl.mu.Lock()
		w := sl.worker
		sl.mu.Unlock()
		if w != nil {
			w.Stop(ctx)
		}
	}
	s.wg.Wait()
}
