package chat

import (
	"context"
	"time"

	"ChatRelay/logger"
	"ChatRelay/module/room"
	"ChatRelay/module/room/model"
	"ChatRelay/service/bus"
)

// Presence turns first-device / last-device transitions into status
// broadcasts. Room membership is read at transition time, so a user who
// joined a room mid-session still announces there.
type Presence struct {
	rooms  *room.Repo
	bus    bus.Bus
	active ActiveIndexer
}

func NewPresence(rooms *room.Repo, b bus.Bus, active ActiveIndexer) *Presence {
	return &Presence{rooms: rooms, bus: b, active: active}
}

// Online runs after a user's first device registers.
func (p *Presence) Online(ctx context.Context, user string) {
	if p.active != nil {
		p.active.Incr(ctx, user)
	}
	p.announce(ctx, user, model.UserStatusOnline)
}

// Offline runs after a user's last device unregisters.
func (p *Presence) Offline(ctx context.Context, user string) {
	if p.active != nil {
		p.active.Decr(ctx, user)
	}
	p.announce(ctx, user, model.UserStatusOffline)
}

func (p *Presence) announce(ctx context.Context, user string, status int32) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	memberRooms, err := p.rooms.RoomsOf(ctx, user)
	if err != nil {
		logger.Errorf("[presence] rooms lookup failed user=%s: %v", user, err)
		return
	}
	ev := StatusEvent{User: user, Status: status}
	for _, r := range memberRooms {
		scope := bus.RoomScope(r.ID.Hex())
		if err := p.bus.Publish(ctx, scope, EventStatus, ev); err != nil {
			logger.Errorf("[presence] publish failed room=%s user=%s: %v", r.ID.Hex(), user, err)
		}
	}
}
