package handlers

import (
	"ChatRelay/service/chat"
	"ChatRelay/tools/decode"
	"ChatRelay/tools/errs"
)

// HistoryHandler pages a room's messages newest-first. An empty page is
// success.
type HistoryHandler struct{}

func (h *HistoryHandler) Event() string { return chat.EventHistory }

func (h *HistoryHandler) Handle(ctx *chat.Context, conn *chat.WsConn, frame *chat.Frame) (map[string]any, error) {
	p, err := decode.Map[chat.HistoryPayload](frame.Data)
	if err != nil {
		return nil, errs.ErrMalformed.WithDetail(err.Error())
	}
	if p.Chatroom == "" {
		return nil, errs.ErrRoomNotFound
	}

	c, cancel := opCtx()
	defer cancel()

	msgs, err := ctx.Srv.Messages().History(c, p.Chatroom, p.Skip, p.Limit, ctx.Srv.Cfg().HistoryPageSize)
	if err != nil {
		if errs.Code(err) == errs.ErrUnknown {
			return nil, errs.ErrHistory.WithDetail(err.Error())
		}
		return nil, err
	}
	return map[string]any{"messages": msgs}, nil
}
