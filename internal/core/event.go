package core

import (
	"encoding/json"
	"time"
)

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventAuthenticated confirms a successful authenticate.
	EventAuthenticated EventKind = iota
	// EventRoomUsers carries the presence list of a room.
	EventRoomUsers
	// EventUserJoined notifies clients about a user joining a room.
	EventUserJoined
	// EventUserLeft notifies clients about a user leaving a room.
	EventUserLeft
	// EventMessage relays a chat payload.
	EventMessage
	// EventError notifies a single client about a protocol error.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind    EventKind
	Room    string
	User    string
	Users   []string
	Message Message
	Error   *CoreError
	At      time.Time

	// Close asks the transport to drop the connection after delivery.
	Close bool
}

// Message is a relayed chat message. Payload and Timestamp are passed
// through exactly as the sender supplied them.
type Message struct {
	ID        string
	Room      string
	From      string
	Payload   json.RawMessage
	Timestamp json.RawMessage
}
