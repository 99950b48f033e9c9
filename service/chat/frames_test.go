package chat

import (
	"encoding/json"
	"testing"

	"ChatRelay/tools/errs"
)

func TestParseFrame(t *testing.T) {
	f, err := ParseFrame([]byte(`{"id":7,"event":"join","data":{"chatroom":"abc"}}`))
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if f.ID != 7 || f.Event != "join" {
		t.Fatalf("frame = %+v", f)
	}
	if f.Data["chatroom"] != "abc" {
		t.Fatalf("data = %+v", f.Data)
	}
}

func TestParseFrameFireAndForget(t *testing.T) {
	f, err := ParseFrame([]byte(`{"event":"writing","data":{}}`))
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if f.ID != 0 {
		t.Fatalf("missing id must parse as 0, got %d", f.ID)
	}
}

func TestParseFrameMalformed(t *testing.T) {
	for _, raw := range []string{`not json`, `{"id":1,"data":{}}`, `[]`} {
		if _, err := ParseFrame([]byte(raw)); err == nil {
			t.Fatalf("ParseFrame(%q) must fail", raw)
		} else if errs.Code(err) != errs.ErrUnknown {
			t.Fatalf("malformed frame code = %d, want %d", errs.Code(err), errs.ErrUnknown)
		}
	}
}

func TestEncodeAckFlattensExtra(t *testing.T) {
	raw, err := EncodeAck(42, errs.NoErr, map[string]any{"chatroom": "abc"})
	if err != nil {
		t.Fatalf("EncodeAck: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal ack: %v", err)
	}
	if out["id"].(float64) != 42 || out["error"].(float64) != 0 {
		t.Fatalf("ack envelope = %v", out)
	}
	if out["chatroom"] != "abc" {
		t.Fatalf("extra fields must sit next to the envelope, got %v", out)
	}
}

func TestEncodeAckEnvelopeWins(t *testing.T) {
	// a handler can't smuggle its own error code into the envelope
	raw, err := EncodeAck(1, 600, map[string]any{"error": 0, "id": 99})
	if err != nil {
		t.Fatalf("EncodeAck: %v", err)
	}
	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	if out["error"].(float64) != 600 || out["id"].(float64) != 1 {
		t.Fatalf("envelope fields must win, got %v", out)
	}
}

func TestEncodeServerEvent(t *testing.T) {
	raw, err := EncodeServerEvent(EventStatus, StatusEvent{User: "u1", Status: 1})
	if err != nil {
		t.Fatalf("EncodeServerEvent: %v", err)
	}
	var out struct {
		Event string      `json:"event"`
		Data  StatusEvent `json:"data"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Event != EventStatus || out.Data.User != "u1" || out.Data.Status != 1 {
		t.Fatalf("event = %+v", out)
	}
}
