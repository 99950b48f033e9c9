package handlers

import (
	"ChatRelay/logger"
	"ChatRelay/service/bus"
	"ChatRelay/service/chat"
	"ChatRelay/tools/decode"
	"ChatRelay/tools/errs"
)

// LeaveHandler removes the caller from a room. Leaving a room the
// caller never joined is success; the left event is suppressed so
// nobody sees a misleading departure.
type LeaveHandler struct{}

func (h *LeaveHandler) Event() string { return chat.EventLeave }

func (h *LeaveHandler) Handle(ctx *chat.Context, conn *chat.WsConn, frame *chat.Frame) (map[string]any, error) {
	p, err := decode.Map[chat.LeavePayload](frame.Data)
	if err != nil {
		return nil, errs.ErrMalformed.WithDetail(err.Error())
	}
	if p.Chatroom == "" {
		return nil, errs.ErrRoomNotFound
	}

	c, cancel := opCtx()
	defer cancel()

	_, left, err := ctx.Srv.Rooms().RemoveUser(c, p.Chatroom, conn.UserID)
	if err != nil {
		return nil, err
	}

	ctx.Srv.DetachUser(conn.UserID, p.Chatroom)
	if !left {
		logger.Debugf("[leave] user=%s was not a member of room=%s", conn.UserID, p.Chatroom)
		return nil, nil
	}

	if err := ctx.Srv.Bus().Publish(c, bus.RoomScope(p.Chatroom), chat.EventLeave, chat.MembershipEvent{
		User:     conn.UserID,
		Name:     conn.Identity.Name,
		Chatroom: p.Chatroom,
	}); err != nil {
		return nil, err
	}
	return nil, nil
}
