package relay

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/coderoom/sync-service/internal/protocol"
)

// WebsocketRelay dials a relay server's room endpoint. The server forwards
// every frame to the other sockets subscribed to the same room and never
// echoes the sender.
type WebsocketRelay struct {
	baseURL string // e.g. ws://relay.example.com
	dialer  *websocket.Dialer
}

func NewWebsocketRelay(baseURL string) *WebsocketRelay {
	return &WebsocketRelay{
		baseURL: baseURL,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

func (t *WebsocketRelay) Connect(ctx context.Context, roomID string) (Conn, error) {
	u, err := url.Parse(t.baseURL)
	if err != nil {
		return nil, err
	}
	u = u.JoinPath("ws", "rooms", roomID)

	conn, _, err := t.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}

	c := &wsRelayConn{conn: conn, roomID: roomID}
	go c.readLoop()
	return c, nil
}

type wsRelayConn struct {
	conn   *websocket.Conn
	roomID string

	writeMu sync.Mutex // gorilla allows one concurrent writer

	mu       sync.Mutex
	receiver func(protocol.Envelope)
	closed   bool
}

func (c *wsRelayConn) Send(env protocol.Envelope) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrConnClosed
	}

	data, err := env.Encode()
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsRelayConn) SetReceiver(fn func(protocol.Envelope)) {
	c.mu.Lock()
	c.receiver = fn
	c.mu.Unlock()
}

func (c *wsRelayConn) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		env, err := protocol.Decode(data)
		if err != nil {
			slog.Debug("relay ws: drop malformed frame", "room", c.roomID, "err", err)
			continue
		}

		c.mu.Lock()
		fn := c.receiver
		closed := c.closed
		c.mu.Unlock()
		if closed || fn == nil {
			continue
		}
		fn(env)
	}
}

func (c *wsRelayConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.receiver = nil
	c.mu.Unlock()

	return c.conn.Close()
}
