package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/coderoom/sync-service/internal/protocol"
)

// RedisRelay runs rooms over redis pub/sub channels. Redis delivers a
// published message back to the publisher's own subscription, so sessions
// see their own traffic echoed; the origin-id filter above this layer
// absorbs that.
type RedisRelay struct {
	client *redis.Client
}

func NewRedisRelay(ctx context.Context, redisURL string) (*RedisRelay, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisRelay{client: client}, nil
}

func (t *RedisRelay) Close() error {
	return t.client.Close()
}

func roomChannel(roomID string) string {
	return fmt.Sprintf("room:%s:events", roomID)
}

func (t *RedisRelay) Connect(ctx context.Context, roomID string) (Conn, error) {
	pubsub := t.client.Subscribe(ctx, roomChannel(roomID))
	// Force the subscription onto the wire before we report connected.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	c := &redisConn{
		client: t.client,
		pubsub: pubsub,
		roomID: roomID,
	}
	go c.readLoop()
	return c, nil
}

type redisConn struct {
	client *redis.Client
	pubsub *redis.PubSub
	roomID string

	mu       sync.Mutex
	receiver func(protocol.Envelope)
	closed   bool
}

func (c *redisConn) Send(env protocol.Envelope) error {
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
	return c.client.Publish(context.Background(), roomChannel(c.roomID), data).Err()
}

func (c *redisConn) SetReceiver(fn func(protocol.Envelope)) {
	c.mu.Lock()
	c.receiver = fn
	c.mu.Unlock()
}

func (c *redisConn) readLoop() {
	for msg := range c.pubsub.Channel() {
		env, err := protocol.Decode([]byte(msg.Payload))
		if err != nil {
			slog.Debug("relay redis: drop malformed frame", "room", c.roomID, "err", err)
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

func (c *redisConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.receiver = nil
	c.mu.Unlock()

	return c.pubsub.Close()
}
