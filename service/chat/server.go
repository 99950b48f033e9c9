package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"ChatRelay/global/config"
	"ChatRelay/logger"
	"ChatRelay/module/message"
	msgmodel "ChatRelay/module/message/model"
	"ChatRelay/module/room"
	"ChatRelay/module/room/model"
	"ChatRelay/service/auth"
	"ChatRelay/service/bus"
	"ChatRelay/service/queue"
	"ChatRelay/tools/errs"
	"ChatRelay/tools/ids"
	"ChatRelay/tools/safe"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Deps bundles the collaborators one worker's session manager needs.
type Deps struct {
	Cfg      *config.Config
	Rooms    *room.Repo
	Messages *message.Repo
	Bus      bus.Bus
	Auth     auth.Authenticator
	Producer *queue.Producer
	Active   ActiveIndexer
}

// ActiveIndexer is the slice of the cluster session index presence needs.
type ActiveIndexer interface {
	Incr(ctx context.Context, user string)
	Decr(ctx context.Context, user string)
}

// Server is one worker's room session manager. Each worker owns its own
// Server; workers never share connection state, only bus envelopes.
type Server struct {
	Worker   int
	cfg      *config.Config
	rooms    *room.Repo
	messages *message.Repo
	bus      bus.Bus
	auth     auth.Authenticator
	producer *queue.Producer
	presence *Presence

	Conns    *ConnManager
	Dispatch *Dispatcher

	upgrader websocket.Upgrader

	subMu     sync.Mutex
	roomSubs  map[string]*roomSub
	globalSub bus.Subscription
	closed    bool
}

// roomSub pairs one scope subscription with the local connections that
// want its traffic. The subscription lives while refs > 0.
type roomSub struct {
	sub   bus.Subscription
	conns map[string]*WsConn // snowID -> conn
}

func NewServer(worker int, d Deps) *Server {
	s := &Server{
		Worker:   worker,
		cfg:      d.Cfg,
		rooms:    d.Rooms,
		messages: d.Messages,
		bus:      d.Bus,
		auth:     d.Auth,
		producer: d.Producer,
		Conns:    NewConnManager(),
		Dispatch: NewDispatcher(),
		roomSubs: make(map[string]*roomSub),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	s.presence = NewPresence(d.Rooms, d.Bus, d.Active)
	return s
}

// Start attaches the global scope so room-creation announcements reach
// every local connection.
func (s *Server) Start() error {
	sub, err := s.bus.Subscribe(bus.GlobalScope(), func(_ bus.Scope, env bus.Envelope) {
		s.deliverAll(env)
	})
	if err != nil {
		return errs.WrapMsg(err, "subscribe global scope", "worker", s.Worker)
	}
	s.globalSub = sub
	return nil
}

// Stop closes every connection and drops all scope subscriptions.
func (s *Server) Stop() {
	s.subMu.Lock()
	s.closed = true
	if s.globalSub != nil {
		_ = s.globalSub.Unsubscribe()
		s.globalSub = nil
	}
	for id, rs := range s.roomSubs {
		_ = rs.sub.Unsubscribe()
		delete(s.roomSubs, id)
	}
	s.subMu.Unlock()

	s.Conns.Range(func(c *WsConn) bool {
		c.Close()
		return true
	})
}

// ===== websocket entry =====

// HandleWS is the gin endpoint for one client connection: upgrade,
// gate, register, then pump frames until disconnect.
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnf("[chat] upgrade failed from %s: %v", c.ClientIP(), err)
		return
	}

	token := c.Query("token")
	actx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.AuthTimeout)
	identity, err := s.auth.Authenticate(actx, token, []string{config.RoleUser})
	cancel()
	if err != nil {
		// handshake failure is the one auth error that closes the socket
		logger.Warnf("[chat] auth rejected from %s: %v", c.ClientIP(), err)
		raw, encErr := EncodeServerEvent(EventAuth, map[string]any{"error": errs.Code(err)})
		if encErr == nil {
			_ = ws.SetWriteDeadline(time.Now().Add(writeDeadline))
			_ = ws.WriteMessage(websocket.TextMessage, raw)
		}
		_ = ws.Close()
		return
	}

	conn := newWsConn(ids.GenerateString(), identity, ws)
	s.admit(conn)
	s.readLoop(conn)
}

// admit runs the post-gate bootstrap: session store registration,
// presence, scope subscriptions for current memberships, and the
// room-catalog stream.
func (s *Server) admit(conn *WsConn) {
	first := s.Conns.Register(conn)
	logger.Infof("[chat] connected user=%s snowID=%s worker=%d first=%v", conn.UserID, conn.SnowID, s.Worker, first)

	_ = conn.SendEvent(EventAuth, map[string]any{
		"error": errs.NoErr,
		"user":  conn.UserID,
		"name":  conn.Identity.Name,
	})

	if first {
		safe.Go("presence-online", func() {
			s.presence.Online(context.Background(), conn.UserID)
		})
	}

	safe.Go("bootstrap-rooms", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := s.rooms.FetchAll(ctx, nil, func(r *model.Room) error {
			if conn.Closed() {
				return errs.New("connection closed during bootstrap")
			}
			isMember := r.HasUser(conn.UserID)
			if isMember {
				s.attachRoom(conn, r.ID.Hex())
			}
			return conn.SendEvent(EventChatroom, map[string]any{
				"id":     r.ID.Hex(),
				"name":   r.Name,
				"topic":  r.Topic,
				"owner":  r.Owner,
				"isUser": isMember,
				"users":  len(r.Users),
			})
		})
		if err != nil {
			logger.Warnf("[chat] room bootstrap aborted user=%s: %v", conn.UserID, err)
		}
	})
}

// readLoop pumps inbound frames until the socket dies, then runs the
// single teardown path.
func (s *Server) readLoop(conn *WsConn) {
	defer s.teardown(conn)

	conn.Conn.SetReadLimit(maxMessageSize)
	_ = conn.Conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.Conn.SetPongHandler(func(string) error {
		return conn.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx := &Context{Srv: s}
	for {
		_, raw, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debugf("[chat] read error user=%s: %v", conn.UserID, err)
			}
			return
		}

		frame, err := ParseFrame(raw)
		if err != nil {
			// malformed payload: log and drop, never kill the worker
			logger.Warnf("[chat] malformed frame user=%s: %v", conn.UserID, err)
			continue
		}
		if safe.Run("dispatch-"+frame.Event, func() {
			s.Dispatch.Dispatch(ctx, conn, frame)
		}) {
			_ = conn.SendAck(frame.ID, errs.ErrUnknown, nil)
		}
	}
}

// teardown is the only disconnect path. Forced kicks close the socket
// and land here through the read loop, same as natural disconnects.
func (s *Server) teardown(conn *WsConn) {
	conn.Close()

	for _, roomID := range conn.Rooms() {
		s.detachRoom(conn, roomID)
	}

	last := s.Conns.Unregister(conn)
	logger.Infof("[chat] disconnected user=%s snowID=%s worker=%d last=%v", conn.UserID, conn.SnowID, s.Worker, last)
	if last {
		safe.Go("presence-offline", func() {
			s.presence.Offline(context.Background(), conn.UserID)
		})
	}
}

// ===== scope subscriptions =====

// attachRoom wires a connection into a room scope, creating the bus
// subscription on first interest.
func (s *Server) attachRoom(conn *WsConn, roomID string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.closed || conn.Closed() {
		return
	}

	rs, ok := s.roomSubs[roomID]
	if !ok {
		sub, err := s.bus.Subscribe(bus.RoomScope(roomID), func(scope bus.Scope, env bus.Envelope) {
			s.deliverRoom(scope.Room, env)
		})
		if err != nil {
			logger.Errorf("[chat] subscribe room=%s failed: %v", roomID, err)
			return
		}
		rs = &roomSub{sub: sub, conns: make(map[string]*WsConn)}
		s.roomSubs[roomID] = rs
	}
	rs.conns[conn.SnowID] = conn
	conn.JoinRoom(roomID)

	// teardown may have closed the conn and snapshotted its rooms while
	// we held no lock; re-check after the insert so a dead conn can't
	// pin the scope subscription open
	if conn.Closed() {
		conn.LeaveRoom(roomID)
		delete(rs.conns, conn.SnowID)
		if len(rs.conns) == 0 {
			_ = rs.sub.Unsubscribe()
			delete(s.roomSubs, roomID)
		}
	}
}

// detachRoom removes a connection's interest, unsubscribing the scope
// when nobody local wants it anymore.
func (s *Server) detachRoom(conn *WsConn, roomID string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	conn.LeaveRoom(roomID)
	rs, ok := s.roomSubs[roomID]
	if !ok {
		return
	}
	delete(rs.conns, conn.SnowID)
	if len(rs.conns) == 0 {
		_ = rs.sub.Unsubscribe()
		delete(s.roomSubs, roomID)
	}
}

// AttachUser subscribes every live device of a user to a room scope;
// join must cover all devices, not just the one that sent the frame.
func (s *Server) AttachUser(user, roomID string) {
	for _, c := range s.Conns.ConnsOf(user) {
		s.attachRoom(c, roomID)
	}
}

// DetachUser is the leave-side counterpart of AttachUser.
func (s *Server) DetachUser(user, roomID string) {
	for _, c := range s.Conns.ConnsOf(user) {
		s.detachRoom(c, roomID)
	}
}

// ===== delivery =====

// deliverRoom forwards one envelope to every local connection attached
// to the room scope. The frame is encoded once and shared.
func (s *Server) deliverRoom(roomID string, env bus.Envelope) {
	raw, err := EncodeServerEvent(env.Event, env.Data)
	if err != nil {
		logger.Errorf("[chat] encode fan-out event=%s: %v", env.Event, err)
		return
	}

	s.subMu.Lock()
	rs, ok := s.roomSubs[roomID]
	var conns []*WsConn
	if ok {
		conns = make([]*WsConn, 0, len(rs.conns))
		for _, c := range rs.conns {
			conns = append(conns, c)
		}
	}
	s.subMu.Unlock()

	for _, c := range conns {
		_ = c.Send(raw)
	}
}

// deliverAll forwards a global-scope envelope to every local connection.
func (s *Server) deliverAll(env bus.Envelope) {
	raw, err := EncodeServerEvent(env.Event, env.Data)
	if err != nil {
		logger.Errorf("[chat] encode global event=%s: %v", env.Event, err)
		return
	}
	s.Conns.Range(func(c *WsConn) bool {
		_ = c.Send(raw)
		return true
	})
}

// ===== accessors used by handlers =====

func (s *Server) Cfg() *config.Config      { return s.cfg }
func (s *Server) Rooms() *room.Repo        { return s.rooms }
func (s *Server) Messages() *message.Repo  { return s.messages }
func (s *Server) Bus() bus.Bus             { return s.bus }
func (s *Server) Producer() *queue.Producer { return s.producer }

// ===== bot bridge =====

// botReply is what automation accounts publish on the reply topic.
type botReply struct {
	Token    string `json:"token"`
	Chatroom string `json:"chatroom"`
	Message  string `json:"message"`
}

// decodeBotReply parses one queue reply and fixes its persisted type.
// Replies are always stored as plain text: a bot echoing a command or a
// URL must not be reclassified on the way back in.
func decodeBotReply(value []byte) (*botReply, int32, error) {
	var reply botReply
	if err := json.Unmarshal(value, &reply); err != nil {
		return nil, 0, errs.ErrMalformed.WithDetail(err.Error())
	}
	return &reply, msgmodel.TypeText, nil
}

// BotReplyHandler bridges queue replies back into rooms: validate the
// bot's token, persist the reply as a normal text message, fan it out.
// Errors are logged and the message is dropped; the queue collaborator
// owns any retry policy.
func BotReplyHandler(d Deps) queue.MessageHandler {
	return func(topic string, _ []byte, value []byte) error {
		reply, msgType, err := decodeBotReply(value)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		identity, err := d.Auth.Authenticate(ctx, reply.Token, []string{config.RoleBot})
		if err != nil {
			return errs.WrapMsg(err, "bot reply auth", "topic", topic)
		}
		if _, err := d.Rooms.Fetch(ctx, reply.Chatroom, nil); err != nil {
			return errs.WrapMsg(err, "bot reply room", "chatroom", reply.Chatroom)
		}

		msg, err := d.Messages.Create(ctx, identity.User, reply.Chatroom, msgType, reply.Message)
		if err != nil {
			return err
		}
		return d.Bus.Publish(ctx, bus.RoomScope(reply.Chatroom), EventMessage, map[string]any{
			"chatroom": reply.Chatroom,
			"msg":      msg,
		})
	}
}
