package handlers

import (
	"context"
	"time"

	"ChatRelay/service/chat"
)

const opTimeout = 10 * time.Second

func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opTimeout)
}

// RegisterAll wires every connection-scoped operation into a worker's
// dispatcher.
func RegisterAll(d *chat.Dispatcher) {
	d.Register(&ChatroomHandler{})
	d.Register(&JoinHandler{})
	d.Register(&LeaveHandler{})
	d.Register(&MessageHandler{})
	d.Register(&WritingHandler{})
	d.Register(&HistoryHandler{})
	d.Register(&SwitchHandler{})
}
