package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dyluth/livestore/internal/schema"
	"github.com/dyluth/livestore/pkg/livestore"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// frame is the Pub/Sub payload. From lets an endpoint drop its own messages,
// since Redis delivers a publish to every subscriber including the publisher.
type frame struct {
	From string `json:"from"`
	Data []byte `json:"data"`
}

// Redis is a transport backed by Redis Pub/Sub.
// Channels are namespaced: livestore:{namespace}:channel:{id}.
type Redis struct {
	settings

	rdb       redis.UniversalClient
	namespace string
}

// NewRedis creates a Redis transport. The client is owned by the caller and
// must outlive every channel opened from the transport.
//
// Without WithErrorHandler, handler errors and undecodable frames are
// discarded. Pass a handler in anything but tests.
func NewRedis(rdb redis.UniversalClient, namespace string, opts ...Option) (*Redis, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	if namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}

	return &Redis{
		settings:  newSettings(opts),
		rdb:       rdb,
		namespace: namespace,
	}, nil
}

// Open subscribes to the channel for id and waits for Redis to confirm the
// subscription, so a reply to a message sent right after Open is not missed.
//
// The subscription lives until Close; cancelling ctx only aborts Open itself.
func (r *Redis) Open(ctx context.Context, id string) (livestore.Channel, error) {
	if id == "" {
		return nil, fmt.Errorf("channel id cannot be empty")
	}

	name := schema.Channel(r.namespace, id)
	pubsub := r.rdb.Subscribe(ctx, name)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", name, err)
	}

	subCtx, cancel := context.WithCancel(context.Background())
	return &redisEndpoint{
		transport: r,
		name:      name,
		sender:    uuid.New().String(),
		pubsub:    pubsub,
		ctx:       subCtx,
		cancel:    cancel,
	}, nil
}

// redisEndpoint is one subscription. Messages received before a handler is
// installed wait in the go-redis channel buffer.
type redisEndpoint struct {
	transport *Redis
	name      string
	sender    string
	pubsub    *redis.PubSub
	ctx       context.Context
	cancel    context.CancelFunc

	start     sync.Once
	closeOnce sync.Once

	mu      sync.Mutex
	handler Handler
}

func (e *redisEndpoint) Send(ctx context.Context, data []byte) error {
	if e.ctx.Err() != nil {
		return ErrClosed
	}

	payload, err := json.Marshal(frame{From: e.sender, Data: data})
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}
	if err := e.transport.rdb.Publish(ctx, e.name, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", e.name, err)
	}
	return nil
}

func (e *redisEndpoint) OnMessage(handler func(ctx context.Context, data []byte) error) {
	e.mu.Lock()
	e.handler = handler
	e.mu.Unlock()

	e.start.Do(func() { go e.receive() })
}

// Close stops the subscription. Safe to call multiple times.
func (e *redisEndpoint) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.cancel()
		err = e.pubsub.Close()
	})
	return err
}

func (e *redisEndpoint) receive() {
	ch := e.pubsub.Channel()

	for {
		select {
		case <-e.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var f frame
			if err := json.Unmarshal([]byte(msg.Payload), &f); err != nil {
				e.transport.onError(fmt.Errorf("failed to unmarshal frame on %s: %w", e.name, err))
				continue
			}
			if f.From == e.sender {
				continue
			}

			// select picks randomly among ready cases, so a message can win
			// over a Close that already happened.
			if e.ctx.Err() != nil {
				return
			}

			e.mu.Lock()
			handler := e.handler
			e.mu.Unlock()

			err := handler(e.ctx, f.Data)
			if err != nil && e.ctx.Err() == nil {
				e.transport.onError(fmt.Errorf("channel %s: %w", e.name, err))
			}
		}
	}
}
