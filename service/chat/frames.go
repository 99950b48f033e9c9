package chat

import (
	"encoding/json"

	"ChatRelay/tools/errs"
)

// ===== event names =====

const (
	EventAuth     = "authentication"
	EventChatroom = "chatroom"
	EventStatus   = "status"
	EventJoin     = "join"
	EventLeave    = "leave"
	EventMessage  = "message"
	EventWriting  = "writing"
	EventHistory  = "history"
	EventSwitch   = "switch"
)

// Frame is one inbound client frame. ID correlates the ack; a zero ID
// means fire-and-forget.
type Frame struct {
	ID    int64          `json:"id"`
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

// ParseFrame decodes raw bytes into a Frame. A frame without an event
// name is malformed and is rejected before dispatch.
func ParseFrame(raw []byte) (*Frame, error) {
	f := &Frame{}
	if err := json.Unmarshal(raw, f); err != nil {
		return nil, errs.ErrMalformed.WithDetail(err.Error())
	}
	if f.Event == "" {
		return nil, errs.ErrMalformed.WithDetail("missing event")
	}
	return f, nil
}

// EncodeAck builds the ack wire form {id, error, ...extra}. Extra keys
// are flattened next to the envelope fields.
func EncodeAck(id int64, code int, extra map[string]any) ([]byte, error) {
	out := make(map[string]any, len(extra)+2)
	for k, v := range extra {
		out[k] = v
	}
	out["id"] = id
	out["error"] = code
	raw, err := json.Marshal(out)
	return raw, errs.Wrap(err, "marshal ack")
}

// ===== request payloads =====

type JoinPayload struct {
	Chatroom string `json:"chatroom"`
}

type LeavePayload struct {
	Chatroom string `json:"chatroom"`
}

type MessagePayload struct {
	Chatroom string `json:"chatroom"`
	Message  string `json:"message"`
	Image    string `json:"image"`
}

type WritingPayload struct {
	Chatroom string `json:"chatroom"`
	Status   bool   `json:"status"`
}

type HistoryPayload struct {
	Chatroom string `json:"chatroom"`
	Skip     int64  `json:"skip"`
	Limit    int64  `json:"limit"`
}

type SwitchPayload struct {
	Chatroom string `json:"chatroom"`
}

type CreateRoomPayload struct {
	Name  string `json:"name"`
	Topic string `json:"topic"`
}

// ===== broadcast payloads =====

// StatusEvent announces a user's presence flip to everyone sharing a
// room with them.
type StatusEvent struct {
	User   string `json:"user"`
	Status int32  `json:"status"`
}

// MembershipEvent announces a join or leave inside one room.
type MembershipEvent struct {
	User     string `json:"user"`
	Name     string `json:"name"`
	Chatroom string `json:"chatroom"`
}

// WritingEvent relays a typing indicator inside one room.
type WritingEvent struct {
	User     string `json:"user"`
	Name     string `json:"name"`
	Chatroom string `json:"chatroom"`
	Status   bool   `json:"status"`
}

// RoomEvent announces a newly created room on the global scope.
type RoomEvent struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Topic string `json:"topic"`
	Owner string `json:"owner"`
}
