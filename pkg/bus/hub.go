package bus

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dyluth/livestore/pkg/livestore"
)

// Handler is invoked once per inbound message.
type Handler = func(ctx context.Context, data []byte) error

// Hub is an in-process transport. Channels opened for the same identifier
// broadcast to each other. It is safe for concurrent use.
type Hub struct {
	settings

	mu        sync.Mutex
	endpoints map[string][]*hubEndpoint
	pending   atomic.Int64
}

// NewHub creates an empty hub.
//
// Without WithErrorHandler, handler errors (including SerializationError for
// malformed messages) are discarded. Pass a handler in anything but tests.
func NewHub(opts ...Option) *Hub {
	return &Hub{
		settings:  newSettings(opts),
		endpoints: make(map[string][]*hubEndpoint),
	}
}

// Open creates a channel bound to id. Each channel delivers through its own
// goroutine, which stops when the channel is closed.
func (h *Hub) Open(_ context.Context, id string) (livestore.Channel, error) {
	if id == "" {
		return nil, fmt.Errorf("channel id cannot be empty")
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &hubEndpoint{
		hub:    h,
		id:     id,
		ctx:    ctx,
		cancel: cancel,
		wake:   make(chan struct{}, 1),
	}

	h.mu.Lock()
	h.endpoints[id] = append(h.endpoints[id], e)
	h.mu.Unlock()

	go e.deliver()
	return e, nil
}

// Listeners returns the number of open channels bound to id.
func (h *Hub) Listeners(id string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.endpoints[id])
}

// Drain blocks until every message sent so far, and every message sent by
// handlers in response, has been handled, or ctx is done.
func (h *Hub) Drain(ctx context.Context) error {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	for h.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func (h *Hub) broadcast(from *hubEndpoint, data []byte) {
	h.mu.Lock()
	peers := slices.Clone(h.endpoints[from.id])
	h.mu.Unlock()

	for _, peer := range peers {
		if peer == from {
			continue
		}
		// Every receiver gets its own copy.
		peer.enqueue(slices.Clone(data))
	}
}

func (h *Hub) remove(e *hubEndpoint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.endpoints[e.id] = slices.DeleteFunc(h.endpoints[e.id], func(other *hubEndpoint) bool {
		return other == e
	})
	if len(h.endpoints[e.id]) == 0 {
		delete(h.endpoints, e.id)
	}
}

// hubEndpoint is one channel of a Hub. Its mailbox is unbounded so a sender
// never blocks on a slow receiver.
type hubEndpoint struct {
	hub    *Hub
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	wake   chan struct{}

	mu      sync.Mutex
	queue   [][]byte
	handler Handler
	closed  bool
}

func (e *hubEndpoint) Send(_ context.Context, data []byte) error {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return ErrClosed
	}

	e.hub.broadcast(e, data)
	return nil
}

func (e *hubEndpoint) OnMessage(handler func(ctx context.Context, data []byte) error) {
	e.mu.Lock()
	e.handler = handler
	e.mu.Unlock()
	e.signal()
}

func (e *hubEndpoint) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	dropped := len(e.queue)
	e.queue = nil
	e.mu.Unlock()

	e.hub.remove(e)
	e.hub.pending.Add(int64(-dropped))
	e.cancel()
	return nil
}

func (e *hubEndpoint) enqueue(data []byte) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.queue = append(e.queue, data)
	e.hub.pending.Add(1)
	e.mu.Unlock()
	e.signal()
}

func (e *hubEndpoint) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// next pops the oldest message once a handler is installed.
func (e *hubEndpoint) next() ([]byte, Handler, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.handler == nil || len(e.queue) == 0 {
		return nil, nil, false
	}
	data := e.queue[0]
	e.queue = e.queue[1:]
	return data, e.handler, true
}

func (e *hubEndpoint) deliver() {
	for {
		select {
		case <-e.ctx.Done():
			return
		case <-e.wake:
		}

		for {
			data, handler, ok := e.next()
			if !ok {
				break
			}
			if err := handler(e.ctx, data); err != nil {
				e.hub.onError(fmt.Errorf("channel %q: %w", e.id, err))
			}
			e.hub.pending.Add(-1)
		}
	}
}
