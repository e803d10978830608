// Package transport wraps the websocket connection (spec.md §6) and the
// per-connection read/write pumps. Grounded directly on
// rakaoran-GuessTheObject's game/websocket.go (NetworkSession interface,
// WebsocketConnection) and game/player_actor.go (ReadPump/WritePump),
// generalized from that repo's binary protobuf frames to JSON text frames
// (see SPEC_FULL.md's wire-format deviation) and from a fire-and-forget
// inbox write to a rate-limited one.
package transport

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// Connection is the transport-level abstraction a Session drives. Satisfied
// by *WebsocketConnection in production and by a fake in tests.
type Connection interface {
	Close(reason string)
	WriteText(data []byte) error
	ReadText() ([]byte, error)
	Ping() error
}

// WebsocketConnection adapts *websocket.Conn to Connection.
type WebsocketConnection struct {
	socket *websocket.Conn
}

func NewWebsocketConnection(conn *websocket.Conn) *WebsocketConnection {
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readWait))
		return nil
	})
	conn.SetReadDeadline(time.Now().Add(readWait))
	return &WebsocketConnection{socket: conn}
}

func (c *WebsocketConnection) WriteText(data []byte) error {
	c.socket.SetWriteDeadline(time.Now().Add(writeWait))
	return c.socket.WriteMessage(websocket.TextMessage, data)
}

func (c *WebsocketConnection) Ping() error {
	c.socket.SetWriteDeadline(time.Now().Add(writeWait))
	return c.socket.WriteMessage(websocket.PingMessage, nil)
}

func (c *WebsocketConnection) ReadText() ([]byte, error) {
	_, p, err := c.socket.ReadMessage()
	return p, err
}

func (c *WebsocketConnection) Close(reason string) {
	c.socket.SetWriteDeadline(time.Now().Add(writeWait))
	c.socket.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason))
	c.socket.Close()
}

const (
	writeWait = 10 * time.Second
	readWait  = 60 * time.Second
	pingEvery = 30 * time.Second
)

// InboundMessage is a decoded client envelope, tagged with who sent it.
type InboundMessage struct {
	Uid  string
	Body json.RawMessage
}

// Session pairs a Connection with a verified uid and pumps messages to/from
// a room's inbox channel, rate-limiting inbound traffic the way
// rakaoran's Player.rateLimiter does (golang.org/x/time/rate, 1/sec burst 5).
type Session struct {
	Uid     string
	conn    Connection
	limiter *rate.Limiter
	outbox  chan []byte
	done    chan struct{}
}

func NewSession(uid string, conn Connection) *Session {
	return &Session{
		Uid:     uid,
		conn:    conn,
		limiter: rate.NewLimiter(1, 5),
		outbox:  make(chan []byte, 256),
		done:    make(chan struct{}),
	}
}

// Send enqueues an outbound frame; it never blocks the caller (the room
// actor) on a slow client.
func (s *Session) Send(data []byte) {
	select {
	case s.outbox <- data:
	default:
		// Slow consumer: drop rather than block the room actor's mailbox.
	}
}

// Close signals the write pump to stop.
func (s *Session) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

// ReadPump decodes inbound frames and forwards them to onMessage until the
// connection errors or closes. Messages arriving faster than the rate
// limiter allows are dropped rather than queued, the same backpressure
// choice the teacher's ReadPump makes implicitly via an unbuffered forward.
func (s *Session) ReadPump(onMessage func(InboundMessage), onClose func()) {
	defer onClose()
	for {
		raw, err := s.conn.ReadText()
		if err != nil {
			return
		}
		if !s.limiter.Allow() {
			continue
		}
		onMessage(InboundMessage{Uid: s.Uid, Body: json.RawMessage(raw)})
	}
}

// WritePump drains the outbox and pings on an interval until Close is
// called or a write fails, mirroring player_actor.go's select loop over
// inbox/pingChan.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()

	for {
		select {
		case data := <-s.outbox:
			if err := s.conn.WriteText(data); err != nil {
				return
			}
		case <-ticker.C:
			if err := s.conn.Ping(); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

var _ Connection = (*WebsocketConnection)(nil)
