package handlers

import (
	"ChatRelay/service/bus"
	"ChatRelay/service/chat"
	"ChatRelay/tools/decode"
	"ChatRelay/tools/errs"
)

// JoinHandler adds the caller to a room's member set and subscribes
// every one of their devices to the room scope. Re-joining is a no-op
// success; the joined event only fires when membership actually changed.
type JoinHandler struct{}

func (h *JoinHandler) Event() string { return chat.EventJoin }

func (h *JoinHandler) Handle(ctx *chat.Context, conn *chat.WsConn, frame *chat.Frame) (map[string]any, error) {
	p, err := decode.Map[chat.JoinPayload](frame.Data)
	if err != nil {
		return nil, errs.ErrMalformed.WithDetail(err.Error())
	}
	if p.Chatroom == "" {
		return nil, errs.ErrRoomNotFound
	}

	c, cancel := opCtx()
	defer cancel()

	_, joined, err := ctx.Srv.Rooms().AddUser(c, p.Chatroom, conn.UserID)
	if err != nil {
		return nil, err
	}

	ctx.Srv.AttachUser(conn.UserID, p.Chatroom)
	if joined {
		if err := ctx.Srv.Bus().Publish(c, bus.RoomScope(p.Chatroom), chat.EventJoin, chat.MembershipEvent{
			User:     conn.UserID,
			Name:     conn.Identity.Name,
			Chatroom: p.Chatroom,
		}); err != nil {
			return nil, err
		}
	}
	return nil, nil
}
