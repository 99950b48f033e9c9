package chat

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const shardCount = 64

// ConnManager indexes this worker's live connections by user. A user
// may hold several devices at once; presence only flips on the first
// register and the last unregister.
type ConnManager struct {
	shards [shardCount]connShard
}

type connShard struct {
	mu     sync.RWMutex
	byUser map[string]map[string]*WsConn // user -> snowID -> conn
}

func NewConnManager() *ConnManager {
	m := &ConnManager{}
	for i := range m.shards {
		m.shards[i].byUser = make(map[string]map[string]*WsConn)
	}
	return m
}

func (m *ConnManager) shard(user string) *connShard {
	return &m.shards[xxhash.Sum64String(user)%shardCount]
}

// Register adds a connection and reports whether it is the user's
// first live device on this worker. The transition is decided under the
// shard lock so concurrent connects of the same user can't both see
// "first".
func (m *ConnManager) Register(c *WsConn) (first bool) {
	s := m.shard(c.UserID)
	s.mu.Lock()
	defer s.mu.Unlock()

	conns := s.byUser[c.UserID]
	if conns == nil {
		conns = make(map[string]*WsConn)
		s.byUser[c.UserID] = conns
	}
	first = len(conns) == 0
	conns[c.SnowID] = c
	return first
}

// Unregister removes a connection and reports whether it was the
// user's last device. Idempotent: a connection not present counts for
// nothing, so double cleanup can't fire a second offline.
func (m *ConnManager) Unregister(c *WsConn) (last bool) {
	s := m.shard(c.UserID)
	s.mu.Lock()
	defer s.mu.Unlock()

	conns := s.byUser[c.UserID]
	if conns == nil {
		return false
	}
	if _, ok := conns[c.SnowID]; !ok {
		return false
	}
	delete(conns, c.SnowID)
	if len(conns) == 0 {
		delete(s.byUser, c.UserID)
		return true
	}
	return false
}

// ConnsOf snapshots a user's live connections on this worker.
func (m *ConnManager) ConnsOf(user string) []*WsConn {
	s := m.shard(user)
	s.mu.RLock()
	defer s.mu.RUnlock()

	conns := s.byUser[user]
	out := make([]*WsConn, 0, len(conns))
	for _, c := range conns {
		out = append(out, c)
	}
	return out
}

// Online reports whether the user has at least one live device here.
func (m *ConnManager) Online(user string) bool {
	s := m.shard(user)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byUser[user]) > 0
}

// Range walks every live connection until fn returns false.
func (m *ConnManager) Range(fn func(c *WsConn) bool) {
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		conns := make([]*WsConn, 0, len(s.byUser))
		for _, byID := range s.byUser {
			for _, c := range byID {
				conns = append(conns, c)
			}
		}
		s.mu.RUnlock()
		for _, c := range conns {
			if !fn(c) {
				return
			}
		}
	}
}

// Kick force-closes every device of a user. Teardown still runs through
// each connection's read loop, the same path as a natural disconnect.
func (m *ConnManager) Kick(user string) {
	for _, c := range m.ConnsOf(user) {
		c.Close()
	}
}

// Count returns the number of live connections on this worker.
func (m *ConnManager) Count() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		for _, byID := range s.byUser {
			n += len(byID)
		}
		s.mu.RUnlock()
	}
	return n
}
