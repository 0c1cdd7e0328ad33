// Package relay delivers envelopes verbatim among the members of a room.
// A relay never interprets payloads and keeps no history: delivery is
// at-most-once, unordered across senders, and a member that connects late
// sees only future traffic.
package relay

import (
	"context"
	"errors"

	"github.com/coderoom/sync-service/internal/protocol"
)

var ErrConnClosed = errors.New("relay connection closed")

// Conn is one live membership of one room.
//
// Adapters differ in whether they echo the sender's own traffic back (redis
// pub/sub does, the local broadcast and the websocket relay do not). Callers
// must filter by origin id and not rely on the transport either way.
type Conn interface {
	// Send broadcasts env to the other members of the room. Best effort.
	Send(env protocol.Envelope) error
	// SetReceiver registers the inbound callback. Must be called before
	// traffic is expected; a nil receiver drops frames.
	SetReceiver(fn func(protocol.Envelope))
	Close() error
}

// Transport opens room-scoped connections. Implementations are selected by
// configuration, not build tags.
type Transport interface {
	Connect(ctx context.Context, roomID string) (Conn, error)
}
