package handlers

import (
	"ChatRelay/module/message/model"
	"ChatRelay/service/bus"
	"ChatRelay/service/chat"
	"ChatRelay/service/queue"
	"ChatRelay/tools/decode"
	"ChatRelay/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageHandler classifies and relays one message. Commands go to the
// bot queue and are never persisted; everything else is persisted first
// and fanned out to the room scope afterwards.
type MessageHandler struct{}

func (h *MessageHandler) Event() string { return chat.EventMessage }

func (h *MessageHandler) Handle(ctx *chat.Context, conn *chat.WsConn, frame *chat.Frame) (map[string]any, error) {
	p, err := decode.Map[chat.MessagePayload](frame.Data)
	if err != nil {
		return nil, errs.ErrMalformed.WithDetail(err.Error())
	}
	if p.Chatroom == "" {
		return nil, errs.ErrRoomNotFound
	}
	if p.Message == "" && p.Image == "" {
		return nil, errs.ErrSendMessage.WithDetail("empty message")
	}

	c, cancel := opCtx()
	defer cancel()

	// bots bypass the membership filter
	var extra bson.M
	if !conn.Identity.IsBot() {
		uid, err := primitive.ObjectIDFromHex(conn.UserID)
		if err != nil {
			return nil, errs.ErrNotAMember
		}
		extra = bson.M{"users": uid}
	}
	if _, err := ctx.Srv.Rooms().Fetch(c, p.Chatroom, extra); err != nil {
		return nil, err
	}

	msgType, command := chat.Classify(p.Message, p.Image)
	if command {
		err := ctx.Srv.Producer().Enqueue(ctx.Srv.Cfg().BotQueueTopic, p.Chatroom, queue.BotRequest{
			Chatroom: p.Chatroom,
			User:     conn.UserID,
			Command:  p.Message,
		})
		if err != nil {
			return nil, errs.ErrSendMessage.WithDetail(err.Error())
		}
		return nil, nil
	}

	body := p.Message
	if msgType == model.TypeImage {
		body = p.Image
	}
	msg, err := ctx.Srv.Messages().Create(c, conn.UserID, p.Chatroom, msgType, body)
	if err != nil {
		if errs.Code(err) == errs.ErrUnknown {
			return nil, errs.ErrSendMessage.WithDetail(err.Error())
		}
		return nil, err
	}

	if err := ctx.Srv.Bus().Publish(c, bus.RoomScope(p.Chatroom), chat.EventMessage, map[string]any{
		"chatroom": p.Chatroom,
		"msg":      msg,
	}); err != nil {
		return nil, err
	}
	return map[string]any{"msg": msg}, nil
}
