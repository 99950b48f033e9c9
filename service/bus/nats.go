package bus

import (
	"context"
	"strings"

	"ChatRelay/logger"
	"ChatRelay/tools/errs"

	"github.com/nats-io/nats.go"
)

const (
	subjectPrefix = "chat.room."
	subjectGlobal = "chat.global"
)

func subjectFor(scope Scope) string {
	if scope.IsGlobal() {
		return subjectGlobal
	}
	return subjectPrefix + scope.Room
}

func scopeFor(subject string) Scope {
	if subject == subjectGlobal {
		return GlobalScope()
	}
	return RoomScope(strings.TrimPrefix(subject, subjectPrefix))
}

// NatsBus implements Bus on core NATS. Core pub/sub gives exactly the
// delivery contract the relay needs: at-most-once, no replay, per-subject
// publish ordering from one connection.
type NatsBus struct {
	nc *nats.Conn
}

func NewNatsBus(servers string) (*NatsBus, error) {
	nc, err := nats.Connect(servers,
		nats.Name("chat-relay"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warnf("[bus] nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Infof("[bus] nats reconnected to %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, errs.WrapMsg(err, "connect nats", "servers", servers)
	}
	return &NatsBus{nc: nc}, nil
}

func (b *NatsBus) Publish(ctx context.Context, scope Scope, event string, payload any) error {
	raw, err := Encode(event, payload)
	if err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if err := b.nc.Publish(subjectFor(scope), raw); err != nil {
		return errs.WrapMsg(err, "publish", "subject", subjectFor(scope), "event", event)
	}
	return nil
}

func (b *NatsBus) Subscribe(scope Scope, fn HandlerFunc) (Subscription, error) {
	sub, err := b.nc.Subscribe(subjectFor(scope), func(m *nats.Msg) {
		env, err := Decode(m.Data)
		if err != nil {
			// malformed publication: log and drop, never crash the worker
			logger.Warnf("[bus] dropping malformed envelope on %s: %v", m.Subject, err)
			return
		}
		fn(scopeFor(m.Subject), env)
	})
	if err != nil {
		return nil, errs.WrapMsg(err, "subscribe", "subject", subjectFor(scope))
	}
	_ = sub.SetPendingLimits(1_000_000, 64*1024*1024)
	return sub, nil
}

func (b *NatsBus) Close() {
	b.nc.Close()
}
