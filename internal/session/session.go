// Package session owns one client's membership of one room: connection
// lifecycle, heartbeat, handler subscription and inbound dispatch. All room
// state mutation happens downstream of Dispatch, never here.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coderoom/sync-service/internal/domain"
	"github.com/coderoom/sync-service/internal/protocol"
	"github.com/coderoom/sync-service/internal/relay"
)

type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

type Handler func(protocol.Envelope)

type handlerEntry struct {
	id int
	fn Handler
}

// Session is an explicit per-client object, constructed on room entry and
// discarded on exit. A session holds at most one live room membership;
// connecting again tears the previous one down first.
type Session struct {
	transport relay.Transport
	selfID    string
	selfName  string
	originID  string // unique per session instance, for echo suppression

	heartbeatEvery time.Duration

	mu        sync.Mutex
	state     State
	roomID    string
	conn      relay.Conn
	onStatus  func(bool)
	handlers  map[protocol.EventType][]handlerEntry
	nextID    int
	gen       uint64 // bumped on every disconnect; stale frames check it
	stopPing  chan struct{}

	dispatchMu sync.Mutex // serializes handler invocation
}

func New(transport relay.Transport, selfID, selfName string) *Session {
	return &Session{
		transport:      transport,
		selfID:         selfID,
		selfName:       selfName,
		originID:       uuid.New().String()[:8],
		heartbeatEvery: 5 * time.Second,
		handlers:       make(map[protocol.EventType][]handlerEntry),
	}
}

func (s *Session) SetHeartbeatInterval(d time.Duration) {
	if d > 0 {
		s.heartbeatEvery = d
	}
}

// OriginID identifies this connection instance on the wire.
func (s *Session) OriginID() string { return s.originID }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Connected() bool { return s.State() == Connected }

func (s *Session) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

// Connect joins roomID, announces USER_JOINED and starts the heartbeat.
// A transport-open failure is reported through onStatus(false) as well as
// the returned error; the caller may simply re-invoke Connect.
func (s *Session) Connect(ctx context.Context, roomID string, onStatus func(bool)) error {
	s.Disconnect()

	s.mu.Lock()
	s.state = Connecting
	s.roomID = roomID
	s.onStatus = onStatus
	s.mu.Unlock()

	conn, err := s.transport.Connect(ctx, roomID)
	if err != nil {
		s.mu.Lock()
		s.state = Disconnected
		s.roomID = ""
		s.mu.Unlock()
		if onStatus != nil {
			onStatus(false)
		}
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.state = Connected
	gen := s.gen
	stop := make(chan struct{})
	s.stopPing = stop
	s.mu.Unlock()

	conn.SetReceiver(func(env protocol.Envelope) {
		s.receive(gen, env)
	})

	if onStatus != nil {
		onStatus(true)
	}

	go s.heartbeat(stop)

	s.Send(protocol.UserJoined{UserName: s.selfName})
	slog.Info("session connected", "room", roomID, "user", s.selfName, "origin", s.originID)
	return nil
}

// Disconnect announces USER_LEFT, closes the transport and clears every
// handler registration. After it returns no handler runs for frames that
// arrive late on the old connection. Safe to call when already disconnected.
// Must not be called from inside a handler; it waits for dispatch to drain.
func (s *Session) Disconnect() {
	s.mu.Lock()
	if s.state != Connected {
		s.state = Disconnected
		s.mu.Unlock()
		return
	}
	conn := s.conn
	onStatus := s.onStatus
	stop := s.stopPing
	roomID := s.roomID

	s.state = Disconnected
	s.conn = nil
	s.roomID = ""
	s.stopPing = nil
	s.handlers = make(map[protocol.EventType][]handlerEntry)
	s.gen++
	s.mu.Unlock()

	// Old-generation frames are dropped by receive; waiting on the dispatch
	// lock lets any in-flight handler finish before we report disconnected.
	s.dispatchMu.Lock()
	s.dispatchMu.Unlock() //nolint:staticcheck // barrier, not a critical section

	if stop != nil {
		close(stop)
	}

	if env, err := protocol.Seal(s.sender(roomID), protocol.UserLeft{UserName: s.selfName}); err == nil {
		_ = conn.Send(env)
	}
	_ = conn.Close()

	if onStatus != nil {
		onStatus(false)
	}
	slog.Info("session disconnected", "room", roomID, "user", s.selfName)
}

// Subscribe registers a handler for one event kind. Handlers for a kind run
// in registration order. The returned func deregisters only this handler.
func (s *Session) Subscribe(t protocol.EventType, h Handler) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.handlers[t] = append(s.handlers[t], handlerEntry{id: id, fn: h})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		entries := s.handlers[t]
		for i, e := range entries {
			if e.id == id {
				s.handlers[t] = append(entries[:i:i], entries[i+1:]...)
				return
			}
		}
	}
}

// Send seals payload into an envelope and broadcasts it. While not connected
// this is a silent no-op: nothing is queued and no error surfaces, matching
// the documented degrade-silently contract.
func (s *Session) Send(p protocol.Payload) {
	s.mu.Lock()
	if s.state != Connected {
		s.mu.Unlock()
		return
	}
	conn := s.conn
	roomID := s.roomID
	s.mu.Unlock()

	env, err := protocol.Seal(s.sender(roomID), p)
	if err != nil {
		slog.Debug("session: seal failed", "type", p.Kind(), "err", err)
		return
	}
	if err := conn.Send(env); err != nil {
		slog.Debug("session: send failed", "type", p.Kind(), "err", err)
	}
}

func (s *Session) SendCodeUpdate(code string) {
	s.Send(protocol.CodeUpdate{Code: code})
}

func (s *Session) SendCursorUpdate(line, col int) {
	s.Send(protocol.CursorUpdate{Line: line, Col: col})
}

func (s *Session) SendComment(c domain.CodeComment) {
	s.Send(protocol.CommentAdded{Comment: c})
}

func (s *Session) SendApproval() {
	s.Send(protocol.ReviewApproved{})
}

func (s *Session) SendRequestChanges() {
	s.Send(protocol.ChangesRequested{})
}

func (s *Session) sender(roomID string) protocol.Sender {
	return protocol.Sender{
		RoomID:   roomID,
		UserID:   s.selfID,
		UserName: s.selfName,
		OriginID: s.originID,
	}
}

// receive filters and dispatches one inbound envelope. Dispatch is
// serialized on one lock so handlers never run concurrently, regardless of
// how many goroutines the transport uses.
func (s *Session) receive(gen uint64, env protocol.Envelope) {
	// Own traffic echoed back by the transport is never dispatched.
	if env.OriginID == s.originID {
		return
	}
	if !env.Type.Known() {
		slog.Debug("session: drop unknown event", "type", env.Type)
		return
	}

	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	if s.gen != gen || s.state != Connected {
		s.mu.Unlock()
		return
	}
	entries := make([]handlerEntry, len(s.handlers[env.Type]))
	copy(entries, s.handlers[env.Type])
	s.mu.Unlock()

	for _, e := range entries {
		s.mu.Lock()
		stale := s.gen != gen
		s.mu.Unlock()
		if stale {
			return
		}
		e.fn(env)
	}
}

func (s *Session) heartbeat(stop chan struct{}) {
	ticker := time.NewTicker(s.heartbeatEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Send(protocol.Ping{})
		case <-stop:
			return
		}
	}
}
