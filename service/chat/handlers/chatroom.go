package handlers

import (
	"ChatRelay/service/bus"
	"ChatRelay/service/chat"
	"ChatRelay/tools/decode"
	"ChatRelay/tools/errs"
)

// ChatroomHandler creates a room with the caller as owner and sole
// member, then announces it on the global scope.
type ChatroomHandler struct{}

func (h *ChatroomHandler) Event() string { return chat.EventChatroom }

func (h *ChatroomHandler) Handle(ctx *chat.Context, conn *chat.WsConn, frame *chat.Frame) (map[string]any, error) {
	p, err := decode.Map[chat.CreateRoomPayload](frame.Data)
	if err != nil {
		return nil, errs.ErrMalformed.WithDetail(err.Error())
	}
	if p.Name == "" {
		return nil, errs.ErrMalformed.WithDetail("missing room name")
	}

	c, cancel := opCtx()
	defer cancel()

	room, err := ctx.Srv.Rooms().Create(c, p.Name, p.Topic, conn.UserID)
	if err != nil {
		return nil, err
	}
	roomID := room.ID.Hex()

	ctx.Srv.AttachUser(conn.UserID, roomID)
	if err := ctx.Srv.Bus().Publish(c, bus.GlobalScope(), chat.EventChatroom, chat.RoomEvent{
		ID:    roomID,
		Name:  room.Name,
		Topic: room.Topic,
		Owner: room.Owner,
	}); err != nil {
		return nil, err
	}
	return map[string]any{"chatroom": roomID}, nil
}
