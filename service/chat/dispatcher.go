package chat

import (
	"sync"

	"ChatRelay/logger"
	"ChatRelay/tools/errs"
)

// Handler processes one inbound event. The returned map becomes the
// extra fields of the ack; a CodeError becomes its error code.
type Handler interface {
	Event() string
	Handle(ctx *Context, conn *WsConn, frame *Frame) (map[string]any, error)
}

// Context carries the server's collaborators into handlers.
type Context struct {
	Srv *Server
}

// Dispatcher routes frames by event name. Registration happens once at
// worker start; dispatch is read-only after that.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

func (d *Dispatcher) Register(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, dup := d.handlers[h.Event()]; dup {
		logger.Warnf("[dispatch] duplicate handler for event %s, replacing", h.Event())
	}
	d.handlers[h.Event()] = h
}

func (d *Dispatcher) lookup(event string) (Handler, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.handlers[event]
	return h, ok
}

// Dispatch runs the handler for one frame and acks the result. Unknown
// events are logged and dropped; operational errors turn into their
// wire code on the ack.
func (d *Dispatcher) Dispatch(ctx *Context, conn *WsConn, frame *Frame) {
	h, ok := d.lookup(frame.Event)
	if !ok {
		logger.Warnf("[dispatch] unknown event %q from user=%s", frame.Event, conn.UserID)
		_ = conn.SendAck(frame.ID, errs.ErrUnknown, nil)
		return
	}

	extra, err := h.Handle(ctx, conn, frame)
	if err != nil {
		logger.Warnf("[dispatch] event=%s user=%s failed: %v", frame.Event, conn.UserID, err)
		_ = conn.SendAck(frame.ID, errs.Code(err), nil)
		return
	}
	_ = conn.SendAck(frame.ID, errs.NoErr, extra)
}
