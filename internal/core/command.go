package core

import "encoding/json"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandUnknown carries a frame type the relay does not understand.
	CommandUnknown CommandKind = iota
	// CommandAuthenticate binds an identity to the connection.
	CommandAuthenticate
	// CommandJoin places the connection in a room.
	CommandJoin
	// CommandSendMessage relays an opaque payload to a room.
	CommandSendMessage
	// CommandSwitchRoom moves the connection between rooms.
	CommandSwitchRoom
)

func (k CommandKind) String() string {
	switch k {
	case CommandAuthenticate:
		return "authenticate"
	case CommandJoin:
		return "join"
	case CommandSendMessage:
		return "send_message"
	case CommandSwitchRoom:
		return "switch_room"
	default:
		return "unknown"
	}
}

// Command represents an action requested by a client.
// Only the fields relevant to Kind are set.
type Command struct {
	Kind CommandKind

	// Type is the raw frame tag, kept for logging unknown frames.
	Type string

	Username string
	Token    string

	Room    string
	OldRoom string
	NewRoom string

	Payload   json.RawMessage
	Timestamp json.RawMessage
}
