package handlers

import (
	"ChatRelay/service/chat"
	"ChatRelay/tools/decode"
	"ChatRelay/tools/errs"
)

// SwitchHandler serves a room view change: metadata plus the first
// history page in one round trip, without touching subscriptions.
type SwitchHandler struct{}

func (h *SwitchHandler) Event() string { return chat.EventSwitch }

func (h *SwitchHandler) Handle(ctx *chat.Context, conn *chat.WsConn, frame *chat.Frame) (map[string]any, error) {
	p, err := decode.Map[chat.SwitchPayload](frame.Data)
	if err != nil {
		return nil, errs.ErrMalformed.WithDetail(err.Error())
	}
	if p.Chatroom == "" {
		return nil, errs.ErrRoomNotFound
	}

	c, cancel := opCtx()
	defer cancel()

	room, err := ctx.Srv.Rooms().Fetch(c, p.Chatroom, nil)
	if err != nil {
		return nil, err
	}
	msgs, err := ctx.Srv.Messages().History(c, p.Chatroom, 0, ctx.Srv.Cfg().HistoryPageSize, ctx.Srv.Cfg().HistoryPageSize)
	if err != nil {
		if errs.Code(err) == errs.ErrUnknown {
			return nil, errs.ErrHistory.WithDetail(err.Error())
		}
		return nil, err
	}
	return map[string]any{"chatroom": room, "messages": msgs}, nil
}
