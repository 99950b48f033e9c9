package handlers

import (
	"ChatRelay/logger"
	"ChatRelay/service/bus"
	"ChatRelay/service/chat"
	"ChatRelay/tools/decode"
	"ChatRelay/tools/errs"
)

// WritingHandler relays a typing indicator. Stateless: nothing is
// persisted, and an unknown room is logged and dropped rather than
// surfaced to the caller.
type WritingHandler struct{}

func (h *WritingHandler) Event() string { return chat.EventWriting }

func (h *WritingHandler) Handle(ctx *chat.Context, conn *chat.WsConn, frame *chat.Frame) (map[string]any, error) {
	p, err := decode.Map[chat.WritingPayload](frame.Data)
	if err != nil {
		return nil, errs.ErrMalformed.WithDetail(err.Error())
	}
	if p.Chatroom == "" {
		return nil, nil
	}

	c, cancel := opCtx()
	defer cancel()

	if _, err := ctx.Srv.Rooms().Fetch(c, p.Chatroom, nil); err != nil {
		logger.Debugf("[writing] dropped, room=%s user=%s: %v", p.Chatroom, conn.UserID, err)
		return nil, nil
	}

	if err := ctx.Srv.Bus().Publish(c, bus.RoomScope(p.Chatroom), chat.EventWriting, chat.WritingEvent{
		User:     conn.UserID,
		Name:     conn.Identity.Name,
		Chatroom: p.Chatroom,
		Status:   p.Status,
	}); err != nil {
		logger.Warnf("[writing] publish failed room=%s: %v", p.Chatroom, err)
	}
	return nil, nil
}
