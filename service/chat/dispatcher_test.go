package chat

import (
	"encoding/json"
	"testing"

	"ChatRelay/tools/errs"
)

type stubHandler struct {
	event string
	extra map[string]any
	err   error
	calls int
}

func (h *stubHandler) Event() string { return h.event }
func (h *stubHandler) Handle(_ *Context, _ *WsConn, _ *Frame) (map[string]any, error) {
	h.calls++
	return h.extra, h.err
}

func readAck(t *testing.T, c *WsConn) map[string]any {
	t.Helper()
	select {
	case raw := <-c.sendChan:
		var out map[string]any
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("unmarshal ack: %v", err)
		}
		return out
	default:
		t.Fatalf("no ack queued")
		return nil
	}
}

func TestDispatchAcksSuccess(t *testing.T) {
	d := NewDispatcher()
	h := &stubHandler{event: "join", extra: map[string]any{"chatroom": "abc"}}
	d.Register(h)

	conn := testConn("alice", "1")
	d.Dispatch(&Context{}, conn, &Frame{ID: 5, Event: "join"})

	ack := readAck(t, conn)
	if ack["error"].(float64) != 0 || ack["id"].(float64) != 5 {
		t.Fatalf("ack = %v", ack)
	}
	if ack["chatroom"] != "abc" {
		t.Fatalf("handler extra missing from ack: %v", ack)
	}
	if h.calls != 1 {
		t.Fatalf("handler calls = %d", h.calls)
	}
}

func TestDispatchAcksWireCode(t *testing.T) {
	d := NewDispatcher()
	d.Register(&stubHandler{event: "join", err: errs.ErrRoomNotFound})

	conn := testConn("alice", "1")
	d.Dispatch(&Context{}, conn, &Frame{ID: 3, Event: "join"})

	ack := readAck(t, conn)
	if int(ack["error"].(float64)) != errs.ErrInvalidChatroom {
		t.Fatalf("error code = %v, want %d", ack["error"], errs.ErrInvalidChatroom)
	}
}

func TestDispatchUnknownEvent(t *testing.T) {
	d := NewDispatcher()
	conn := testConn("alice", "1")
	d.Dispatch(&Context{}, conn, &Frame{ID: 9, Event: "nope"})

	ack := readAck(t, conn)
	if int(ack["error"].(float64)) != errs.ErrUnknown {
		t.Fatalf("unknown event code = %v, want %d", ack["error"], errs.ErrUnknown)
	}
}

func TestDispatchNoAckWithoutID(t *testing.T) {
	d := NewDispatcher()
	d.Register(&stubHandler{event: "writing"})

	conn := testConn("alice", "1")
	d.Dispatch(&Context{}, conn, &Frame{Event: "writing"})

	select {
	case raw := <-conn.sendChan:
		t.Fatalf("fire-and-forget frame must not be acked, got %s", raw)
	default:
	}
}
