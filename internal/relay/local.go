package relay

import (
	"context"
	"sync"

	"github.com/coderoom/sync-service/internal/protocol"
)

// LocalBroadcast is a process-local fan-out registry scoped by room id.
// Every conn in a room receives all other conns' envelopes synchronously.
// Used for single-process multi-session setups and tests.
type LocalBroadcast struct {
	mu    sync.RWMutex
	rooms map[string]map[*localConn]struct{} // roomID -> set of connections
}

func NewLocalBroadcast() *LocalBroadcast {
	return &LocalBroadcast{rooms: make(map[string]map[*localConn]struct{})}
}

func (b *LocalBroadcast) Connect(_ context.Context, roomID string) (Conn, error) {
	c := &localConn{hub: b, roomID: roomID}

	b.mu.Lock()
	defer b.mu.Unlock()
	rs, ok := b.rooms[roomID]
	if !ok {
		rs = make(map[*localConn]struct{})
		b.rooms[roomID] = rs
	}
	rs[c] = struct{}{}
	return c, nil
}

func (b *LocalBroadcast) remove(c *localConn) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if rs, ok := b.rooms[c.roomID]; ok {
		delete(rs, c)
		if len(rs) == 0 {
			delete(b.rooms, c.roomID)
		}
	}
}

// peers returns the other members of the room, excluding from.
func (b *LocalBroadcast) peers(roomID string, from *localConn) []*localConn {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rs := b.rooms[roomID]
	out := make([]*localConn, 0, len(rs))
	for c := range rs {
		if c != from {
			out = append(out, c)
		}
	}
	return out
}

type localConn struct {
	hub    *LocalBroadcast
	roomID string

	mu       sync.Mutex
	receiver func(protocol.Envelope)
	closed   bool
}

func (c *localConn) Send(env protocol.Envelope) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrConnClosed
	}

	for _, peer := range c.hub.peers(c.roomID, c) {
		peer.deliver(env)
	}
	return nil
}

func (c *localConn) deliver(env protocol.Envelope) {
	c.mu.Lock()
	fn := c.receiver
	closed := c.closed
	c.mu.Unlock()
	if closed || fn == nil {
		return
	}
	fn(env)
}

func (c *localConn) SetReceiver(fn func(protocol.Envelope)) {
	c.mu.Lock()
	c.receiver = fn
	c.mu.Unlock()
}

func (c *localConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.receiver = nil
	c.mu.Unlock()

	c.hub.remove(c)
	return nil
}
