package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/coderoom/sync-service/internal/protocol"
	"github.com/coderoom/sync-service/internal/relay"
)

// fakeTransport records every opened conn. With echo set, a conn feeds sent
// envelopes straight back to its own receiver, the way a naive relay would.
type fakeTransport struct {
	mu    sync.Mutex
	conns []*fakeConn
	err   error
	echo  bool
}

func (t *fakeTransport) Connect(_ context.Context, roomID string) (relay.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return nil, t.err
	}
	c := &fakeConn{roomID: roomID, echo: t.echo}
	t.conns = append(t.conns, c)
	return c, nil
}

func (t *fakeTransport) last() *fakeConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conns[len(t.conns)-1]
}

type fakeConn struct {
	roomID string
	echo   bool

	mu       sync.Mutex
	sent     []protocol.Envelope
	receiver func(protocol.Envelope)
	closed   bool
}

func (c *fakeConn) Send(env protocol.Envelope) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return relay.ErrConnClosed
	}
	c.sent = append(c.sent, env)
	fn := c.receiver
	c.mu.Unlock()

	if c.echo && fn != nil {
		fn(env)
	}
	return nil
}

func (c *fakeConn) SetReceiver(fn func(protocol.Envelope)) {
	c.mu.Lock()
	c.receiver = fn
	c.mu.Unlock()
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) sentTypes() []protocol.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]protocol.EventType, 0, len(c.sent))
	for _, env := range c.sent {
		out = append(out, env.Type)
	}
	return out
}

// inject delivers a frame as if a peer had sent it.
func (c *fakeConn) inject(env protocol.Envelope) {
	c.mu.Lock()
	fn := c.receiver
	c.mu.Unlock()
	if fn != nil {
		fn(env)
	}
}

func peerEnvelope(t *testing.T, typ protocol.EventType, p protocol.Payload) protocol.Envelope {
	t.Helper()
	env, err := protocol.Seal(protocol.Sender{
		RoomID: "AB12CD", UserID: "peer", UserName: "Peer", OriginID: "peer-origin",
	}, p)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if env.Type != typ {
		t.Fatalf("payload kind %s, want %s", env.Type, typ)
	}
	return env
}

func TestConnect_AnnouncesJoinAndReportsStatus(t *testing.T) {
	tr := &fakeTransport{}
	s := New(tr, "u1", "Alice")

	var statuses []bool
	if err := s.Connect(context.Background(), "AB12CD", func(up bool) {
		statuses = append(statuses, up)
	}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Disconnect()

	if s.State() != Connected || s.RoomID() != "AB12CD" {
		t.Fatalf("state=%v room=%q", s.State(), s.RoomID())
	}
	if len(statuses) != 1 || !statuses[0] {
		t.Fatalf("status callbacks: %v", statuses)
	}

	sent := tr.last().sentTypes()
	if len(sent) != 1 || sent[0] != protocol.EventUserJoined {
		t.Fatalf("expected one USER_JOINED, got %v", sent)
	}
}

func TestConnect_TransportFailure(t *testing.T) {
	boom := errors.New("dial refused")
	tr := &fakeTransport{err: boom}
	s := New(tr, "u1", "Alice")

	var statuses []bool
	err := s.Connect(context.Background(), "AB12CD", func(up bool) {
		statuses = append(statuses, up)
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want dial error, got %v", err)
	}
	if s.State() != Disconnected {
		t.Fatalf("state after failure: %v", s.State())
	}
	if len(statuses) != 1 || statuses[0] {
		t.Fatalf("expected single false status, got %v", statuses)
	}
}

func TestDisconnect_AnnouncesLeaveAndClosesConn(t *testing.T) {
	tr := &fakeTransport{}
	s := New(tr, "u1", "Alice")

	var statuses []bool
	if err := s.Connect(context.Background(), "AB12CD", func(up bool) {
		statuses = append(statuses, up)
	}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	s.Disconnect()

	conn := tr.last()
	sent := conn.sentTypes()
	if len(sent) != 2 || sent[1] != protocol.EventUserLeft {
		t.Fatalf("expected USER_LEFT last, got %v", sent)
	}
	if !conn.closed {
		t.Fatalf("conn not closed")
	}
	if len(statuses) != 2 || statuses[1] {
		t.Fatalf("status callbacks: %v", statuses)
	}

	// Safe to call again.
	s.Disconnect()
}

func TestSend_WhileDisconnectedIsNoop(t *testing.T) {
	tr := &fakeTransport{}
	s := New(tr, "u1", "Alice")

	s.SendCodeUpdate("never sent") // no conn yet, must not panic

	if err := s.Connect(context.Background(), "AB12CD", nil); err != nil {
		t.Fatalf("connect: %v", err)
	}
	conn := tr.last()
	s.Disconnect()

	before := len(conn.sentTypes())
	s.SendCodeUpdate("late edit")
	if got := len(conn.sentTypes()); got != before {
		t.Fatalf("send after disconnect reached the wire")
	}
}

func TestReceive_DispatchesInSubscriptionOrder(t *testing.T) {
	tr := &fakeTransport{}
	s := New(tr, "u1", "Alice")

	var order []string
	s.Subscribe(protocol.EventCodeUpdate, func(protocol.Envelope) { order = append(order, "first") })
	s.Subscribe(protocol.EventCodeUpdate, func(protocol.Envelope) { order = append(order, "second") })

	if err := s.Connect(context.Background(), "AB12CD", nil); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Disconnect()

	tr.last().inject(peerEnvelope(t, protocol.EventCodeUpdate, protocol.CodeUpdate{Code: "x"}))

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("dispatch order: %v", order)
	}
}

func TestReceive_SuppressesOwnEcho(t *testing.T) {
	tr := &fakeTransport{echo: true}
	s := New(tr, "u1", "Alice")

	var echoed []protocol.Envelope
	s.Subscribe(protocol.EventCodeUpdate, func(env protocol.Envelope) {
		echoed = append(echoed, env)
	})

	if err := s.Connect(context.Background(), "AB12CD", nil); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Disconnect()

	s.SendCodeUpdate("my own edit")
	if len(echoed) != 0 {
		t.Fatalf("own frame dispatched back: %v", echoed)
	}

	// A peer's frame with a different origin still goes through.
	tr.last().inject(peerEnvelope(t, protocol.EventCodeUpdate, protocol.CodeUpdate{Code: "peer edit"}))
	if len(echoed) != 1 {
		t.Fatalf("peer frame lost")
	}
}

func TestReceive_DropsUnknownTypes(t *testing.T) {
	tr := &fakeTransport{}
	s := New(tr, "u1", "Alice")

	called := false
	s.Subscribe(protocol.EventCodeUpdate, func(protocol.Envelope) { called = true })

	if err := s.Connect(context.Background(), "AB12CD", nil); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Disconnect()

	tr.last().inject(protocol.Envelope{Type: "FUTURE_THING", OriginID: "peer-origin"})
	if called {
		t.Fatalf("unknown type dispatched")
	}
}

func TestReceive_LateFrameAfterDisconnect(t *testing.T) {
	tr := &fakeTransport{}
	s := New(tr, "u1", "Alice")

	var got []protocol.Envelope
	s.Subscribe(protocol.EventCodeUpdate, func(env protocol.Envelope) {
		got = append(got, env)
	})

	if err := s.Connect(context.Background(), "AB12CD", nil); err != nil {
		t.Fatalf("connect: %v", err)
	}
	conn := tr.last()
	s.Disconnect()

	// A frame still in flight on the old conn arrives after teardown.
	conn.inject(peerEnvelope(t, protocol.EventCodeUpdate, protocol.CodeUpdate{Code: "stale"}))
	if len(got) != 0 {
		t.Fatalf("late frame dispatched: %v", got)
	}
}

func TestDisconnect_ClearsSubscriptions(t *testing.T) {
	tr := &fakeTransport{}
	s := New(tr, "u1", "Alice")

	calls := 0
	s.Subscribe(protocol.EventCodeUpdate, func(protocol.Envelope) { calls++ })

	if err := s.Connect(context.Background(), "AB12CD", nil); err != nil {
		t.Fatalf("connect: %v", err)
	}
	s.Disconnect()

	// Reconnecting does not resurrect old handlers.
	if err := s.Connect(context.Background(), "AB12CD", nil); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	defer s.Disconnect()

	tr.last().inject(peerEnvelope(t, protocol.EventCodeUpdate, protocol.CodeUpdate{Code: "x"}))
	if calls != 0 {
		t.Fatalf("cleared handler ran %d times", calls)
	}
}

func TestUnsubscribe(t *testing.T) {
	tr := &fakeTransport{}
	s := New(tr, "u1", "Alice")

	var order []string
	off := s.Subscribe(protocol.EventCodeUpdate, func(protocol.Envelope) { order = append(order, "a") })
	s.Subscribe(protocol.EventCodeUpdate, func(protocol.Envelope) { order = append(order, "b") })

	if err := s.Connect(context.Background(), "AB12CD", nil); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Disconnect()

	off()
	off() // idempotent

	tr.last().inject(peerEnvelope(t, protocol.EventCodeUpdate, protocol.CodeUpdate{Code: "x"}))
	if len(order) != 1 || order[0] != "b" {
		t.Fatalf("unsubscribed handler ran: %v", order)
	}
}

func TestHeartbeat_SendsPing(t *testing.T) {
	tr := &fakeTransport{}
	s := New(tr, "u1", "Alice")
	s.SetHeartbeatInterval(20 * time.Millisecond)

	if err := s.Connect(context.Background(), "AB12CD", nil); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Disconnect()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, typ := range tr.last().sentTypes() {
			if typ == protocol.EventPing {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("no PING observed")
}

func TestTwoSessions_SyncOverLocalBroadcast(t *testing.T) {
	hub := relay.NewLocalBroadcast()

	alice := New(hub, "uA", "Alice")
	bob := New(hub, "uB", "Bob")

	var bobSaw []string
	bob.Subscribe(protocol.EventCodeUpdate, func(env protocol.Envelope) {
		if p, err := protocol.DecodePayload(env); err == nil {
			bobSaw = append(bobSaw, p.(protocol.CodeUpdate).Code)
		}
	})

	var bobJoins []string
	bob.Subscribe(protocol.EventUserJoined, func(env protocol.Envelope) {
		bobJoins = append(bobJoins, env.SenderName)
	})

	if err := bob.Connect(context.Background(), "AB12CD", nil); err != nil {
		t.Fatalf("bob connect: %v", err)
	}
	defer bob.Disconnect()
	if err := alice.Connect(context.Background(), "AB12CD", nil); err != nil {
		t.Fatalf("alice connect: %v", err)
	}
	defer alice.Disconnect()

	alice.SendCodeUpdate("const x = 1")

	if len(bobJoins) != 1 || bobJoins[0] != "Alice" {
		t.Fatalf("bob missed alice's join: %v", bobJoins)
	}
	if len(bobSaw) != 1 || bobSaw[0] != "const x = 1" {
		t.Fatalf("bob missed the edit: %v", bobSaw)
	}
}
