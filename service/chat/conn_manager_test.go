package chat

import (
	"fmt"
	"testing"
)

func testConn(user, snowID string) *WsConn {
	return &WsConn{
		SnowID:   snowID,
		UserID:   user,
		sendChan: make(chan []byte, sendQueueSize),
		closedCh: make(chan struct{}),
		rooms:    make(map[string]struct{}),
	}
}

func TestRegisterFirstDeviceOnly(t *testing.T) {
	m := NewConnManager()

	a1 := testConn("alice", "1")
	a2 := testConn("alice", "2")

	if first := m.Register(a1); !first {
		t.Fatalf("first device must report first=true")
	}
	if first := m.Register(a2); first {
		t.Fatalf("second device must report first=false")
	}
	if !m.Online("alice") {
		t.Fatalf("alice should be online")
	}
	if got := len(m.ConnsOf("alice")); got != 2 {
		t.Fatalf("ConnsOf = %d, want 2", got)
	}
}

func TestUnregisterLastDeviceOnly(t *testing.T) {
	m := NewConnManager()
	a1 := testConn("alice", "1")
	a2 := testConn("alice", "2")
	m.Register(a1)
	m.Register(a2)

	if last := m.Unregister(a1); last {
		t.Fatalf("one device still live, last must be false")
	}
	if last := m.Unregister(a2); !last {
		t.Fatalf("final device gone, last must be true")
	}
	if m.Online("alice") {
		t.Fatalf("alice should be offline")
	}
}

func TestUnregisterIdempotent(t *testing.T) {
	m := NewConnManager()
	a := testConn("alice", "1")
	m.Register(a)

	if last := m.Unregister(a); !last {
		t.Fatalf("first unregister must report last=true")
	}
	// a second teardown of the same connection must not fire another
	// offline transition
	if last := m.Unregister(a); last {
		t.Fatalf("repeated unregister must report last=false")
	}
}

func TestUnregisterUnknownUser(t *testing.T) {
	m := NewConnManager()
	if last := m.Unregister(testConn("ghost", "9")); last {
		t.Fatalf("unknown connection must not report last=true")
	}
}

func TestRangeAndCount(t *testing.T) {
	m := NewConnManager()
	for i := 0; i < 10; i++ {
		m.Register(testConn(fmt.Sprintf("user-%d", i), fmt.Sprintf("%d", i)))
	}
	if got := m.Count(); got != 10 {
		t.Fatalf("Count = %d, want 10", got)
	}

	seen := 0
	m.Range(func(c *WsConn) bool {
		seen++
		return true
	})
	if seen != 10 {
		t.Fatalf("Range visited %d, want 10", seen)
	}

	seen = 0
	m.Range(func(c *WsConn) bool {
		seen++
		return seen < 3
	})
	if seen != 3 {
		t.Fatalf("Range must stop when fn returns false, visited %d", seen)
	}
}

func TestKickClosesAllDevices(t *testing.T) {
	m := NewConnManager()
	a1 := testConn("alice", "1")
	a2 := testConn("alice", "2")
	m.Register(a1)
	m.Register(a2)

	m.Kick("alice")
	if !a1.Closed() || !a2.Closed() {
		t.Fatalf("kick must close every device")
	}
	// the session store entry is untouched until the read loops run
	// teardown, same as a natural disconnect
	if !m.Online("alice") {
		t.Fatalf("kick alone must not unregister")
	}
}
