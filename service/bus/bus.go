package bus

import (
	"context"
	"encoding/json"

	"ChatRelay/tools/errs"
)

// Scope is a fan-out addressing unit: one specific room, or the global
// audience used for room-creation announcements.
type Scope struct {
	Room string // empty => global
}

func RoomScope(roomID string) Scope { return Scope{Room: roomID} }
func GlobalScope() Scope            { return Scope{} }

func (s Scope) IsGlobal() bool { return s.Room == "" }

// Envelope is the wire shape of one fan-out publication. Data stays a
// raw JSON object until a worker decides to forward it; workers never
// share live connection references, only these envelopes.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// HandlerFunc consumes one envelope on a subscribed scope.
type HandlerFunc func(scope Scope, env Envelope)

// Subscription is an active scope subscription.
type Subscription interface {
	Unsubscribe() error
}

// Bus is the cross-worker publish/subscribe bridge. Delivery is
// at-most-once per subscribed worker; per-scope publish order from a
// single publisher is preserved.
type Bus interface {
	Publish(ctx context.Context, scope Scope, event string, payload any) error
	Subscribe(scope Scope, fn HandlerFunc) (Subscription, error)
	Close()
}

// Encode builds the envelope bytes for a publication.
func Encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errs.Wrap(err, "marshal payload")
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

// Decode parses envelope bytes; a malformed envelope is an error the
// subscriber logs and drops, never a crash.
func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, errs.Wrap(err, "unmarshal envelope")
	}
	if env.Event == "" {
		return Envelope{}, errs.New("envelope missing event")
	}
	return env, nil
}
