package chat

import (
	"encoding/json"
	"net"
	"sync"
	"time"

	"ChatRelay/logger"
	"ChatRelay/service/auth"
	"ChatRelay/tools/errs"

	"github.com/gorilla/websocket"
)

const (
	sendQueueSize  = 256
	writeDeadline  = 5 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 1 << 20 // 1MB
)

// WsConn is one live client connection. It is owned by exactly one
// worker and never crosses worker boundaries; remote workers only ever
// see fan-out envelopes, not this struct.
type WsConn struct {
	SnowID   string
	UserID   string
	Identity *auth.Identity
	Remote   net.Addr

	Conn      *websocket.Conn
	CreatedAt time.Time

	sendChan  chan []byte
	closeOnce sync.Once
	closedCh  chan struct{}

	mu    sync.Mutex
	rooms map[string]struct{} // local mirror of scope subscriptions
}

func newWsConn(snowID string, id *auth.Identity, ws *websocket.Conn) *WsConn {
	c := &WsConn{
		SnowID:    snowID,
		UserID:    id.User,
		Identity:  id,
		Remote:    ws.RemoteAddr(),
		Conn:      ws,
		CreatedAt: time.Now(),
		sendChan:  make(chan []byte, sendQueueSize),
		closedCh:  make(chan struct{}),
		rooms:     make(map[string]struct{}),
	}
	go c.writePump()
	return c
}

// ===== room mirror =====

func (c *WsConn) JoinRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[roomID] = struct{}{}
}

func (c *WsConn) LeaveRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, roomID)
}

func (c *WsConn) InRoom(roomID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.rooms[roomID]
	return ok
}

// Rooms snapshots the rooms this connection is subscribed to.
func (c *WsConn) Rooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.rooms))
	for r := range c.rooms {
		out = append(out, r)
	}
	return out
}

// ===== writing =====

// Send queues raw bytes for the write pump. A full queue means the
// client can't keep up; the connection is closed rather than letting it
// block everyone else.
func (c *WsConn) Send(raw []byte) error {
	select {
	case <-c.closedCh:
		return errs.New("connection closed")
	default:
	}
	select {
	case c.sendChan <- raw:
		return nil
	default:
		logger.Warnf("[conn] send queue full, closing slow client snowID=%s user=%s", c.SnowID, c.UserID)
		c.Close()
		return errs.New("send queue full")
	}
}

// SendEvent pushes an unsolicited server event {event, data}.
func (c *WsConn) SendEvent(event string, data any) error {
	raw, err := EncodeServerEvent(event, data)
	if err != nil {
		return err
	}
	return c.Send(raw)
}

// SendAck answers one inbound frame. id 0 means the client did not ask
// for an acknowledgement.
func (c *WsConn) SendAck(id int64, code int, extra map[string]any) error {
	if id == 0 {
		return nil
	}
	raw, err := EncodeAck(id, code, extra)
	if err != nil {
		return err
	}
	return c.Send(raw)
}

// Close is idempotent and only tears the socket down; session cleanup
// (unregister, scope refs) runs in the read loop's exit path so there is
// exactly one disconnect code path, forced kicks included.
func (c *WsConn) Close() {
	c.closeOnce.Do(func() {
		close(c.closedCh)
		if c.Conn != nil {
			_ = c.Conn.Close()
		}
	})
}

func (c *WsConn) Closed() bool {
	select {
	case <-c.closedCh:
		return true
	default:
		return false
	}
}

// writePump is the single writer for this connection. gorilla/websocket
// does not allow concurrent writes, so every outbound byte goes through
// sendChan.
func (c *WsConn) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case raw, ok := <-c.sendChan:
			if !ok {
				return
			}
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.Conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				logger.Debugf("[conn] write failed snowID=%s: %v", c.SnowID, err)
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeDeadline)); err != nil {
				c.Close()
				return
			}
		case <-c.closedCh:
			return
		}
	}
}

// EncodeServerEvent builds the {event, data} wire form.
func EncodeServerEvent(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}{Event: event, Data: data})
	return raw, errs.Wrap(err, "marshal server event")
}
