package room

import (
	"sort"
	"sync"

	"github.com/coderoom/sync-service/internal/domain"
	"github.com/coderoom/sync-service/internal/protocol"
)

// Presence is the ephemeral "live right now" overlay. It is deliberately
// separate from the persisted roster: leaving a room removes a user here but
// never from Room.Participants.
type Presence struct {
	mu      sync.Mutex
	live    map[string]string // senderID -> display name
	cursors map[string]domain.CursorPosition
}

func NewPresence() *Presence {
	return &Presence{
		live:    make(map[string]string),
		cursors: make(map[string]domain.CursorPosition),
	}
}

// Observe folds one envelope into the overlay. Join, heartbeat and cursor
// traffic all count as liveness signals.
func (p *Presence) Observe(env protocol.Envelope) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch env.Type {
	case protocol.EventUserJoined, protocol.EventPing, protocol.EventPong:
		p.live[env.SenderID] = env.SenderName
	case protocol.EventUserLeft:
		delete(p.live, env.SenderID)
		delete(p.cursors, env.SenderID)
	case protocol.EventCursorUpdate:
		p.live[env.SenderID] = env.SenderName
		if cp, err := protocol.DecodePayload(env); err == nil {
			if cur, ok := cp.(protocol.CursorUpdate); ok {
				p.cursors[env.SenderID] = domain.CursorPosition{Line: cur.Line, Col: cur.Col}
			}
		}
	}
}

// LiveUsers returns the display names of currently-live members, sorted for
// stable rendering.
func (p *Presence) LiveUsers() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, 0, len(p.live))
	for _, name := range p.live {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Cursor returns the last observed cursor position for a live user.
func (p *Presence) Cursor(userID string) (domain.CursorPosition, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.cursors[userID]
	return c, ok
}

// Reset clears the overlay, e.g. on disconnect.
func (p *Presence) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.live = make(map[string]string)
	p.cursors = make(map[string]domain.CursorPosition)
}
