package decode

import (
	"testing"
)

type samplePayload struct {
	Chatroom string `json:"chatroom"`
	Skip     int64  `json:"skip"`
	Limit    int64  `json:"limit"`
}

func TestMapDecodesJSONTags(t *testing.T) {
	in := map[string]any{"chatroom": "abc", "skip": 10, "limit": 25}
	got, err := Map[samplePayload](in)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if got.Chatroom != "abc" || got.Skip != 10 || got.Limit != 25 {
		t.Fatalf("decoded = %+v", got)
	}
}

func TestMapWeakTyping(t *testing.T) {
	// numbers arrive as float64 from JSON frames
	in := map[string]any{"chatroom": "abc", "skip": float64(3)}
	got, err := Map[samplePayload](in)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if got.Skip != 3 {
		t.Fatalf("skip = %d", got.Skip)
	}
}

func TestMapIgnoresUnknownKeys(t *testing.T) {
	in := map[string]any{"chatroom": "abc", "surprise": true}
	got, err := Map[samplePayload](in)
	if err != nil {
		t.Fatalf("unknown keys must not fail: %v", err)
	}
	if got.Chatroom != "abc" {
		t.Fatalf("decoded = %+v", got)
	}
}

func TestMapNilInput(t *testing.T) {
	got, err := Map[samplePayload](nil)
	if err != nil {
		t.Fatalf("nil input must decode to zero value: %v", err)
	}
	if got.Chatroom != "" {
		t.Fatalf("decoded = %+v", got)
	}
}
