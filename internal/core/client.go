package core

import (
	"sync"
	"sync/atomic"
)

// ConnState is the position of a connection in the authentication gate.
type ConnState int

const (
	// StateUnauthenticated accepts only an authenticate frame.
	StateUnauthenticated ConnState = iota
	// StateAuthenticated has a session attached.
	StateAuthenticated
	// StateClosed is terminal; frames are no longer processed.
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Client is a live connection as seen by the core layer.
// The transport owns the socket; the core only pushes events into Events.
type Client struct {
	ID     string
	Events chan *Event

	// state is owned by the hub goroutine.
	state ConnState

	closed   atomic.Bool
	kickOnce sync.Once
	kicked   chan struct{}
}

// NewClient constructs a client with a buffered outbound queue.
func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = 8
	}
	return &Client{
		ID:     id,
		Events: make(chan *Event, buffer),
		kicked: make(chan struct{}),
	}
}

// MarkClosed records that the underlying channel is gone.
// Broadcasts skip closed clients until the hub reaps them.
func (c *Client) MarkClosed() {
	c.closed.Store(true)
}

// Closed reports whether the transport has shut the connection.
func (c *Client) Closed() bool {
	return c.closed.Load()
}

// Kicked is closed when the core wants the transport to drop the connection.
func (c *Client) Kicked() <-chan struct{} {
	return c.kicked
}

func (c *Client) kick() {
	c.kickOnce.Do(func() { close(c.kicked) })
}

// Notify queues an event produced outside the hub, such as a transport-level
// rejection. It follows the same non-blocking rules as hub deliveries.
func (c *Client) Notify(ev *Event) bool {
	return c.trySend(ev)
}

// trySend queues an event without blocking. A full queue means the peer
// stopped reading; the client is kicked instead of stalling the hub.
func (c *Client) trySend(ev *Event) bool {
	if c.Closed() {
		return false
	}
	select {
	case c.Events <- ev:
		return true
	default:
		c.kick()
		return false
	}
}
