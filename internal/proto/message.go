package proto

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Frame type tags. Tags are case-sensitive.
const (
	InboundTypeAuthenticate = "authenticate"
	InboundTypeJoin         = "join"
	InboundTypeSendMessage  = "send_message"
	InboundTypeSwitchRoom   = "switch_room"

	OutboundTypeAuthenticated = "authenticated"
	OutboundTypeRoomUsers     = "room_users"
	OutboundTypeUserJoined    = "user_joined"
	OutboundTypeUserLeft      = "user_left"
	OutboundTypeMessage       = "message"
	OutboundTypeError         = "error"
)

// TimeLayout matches the ISO-8601 form browsers produce with toISOString.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrMissingType is returned for frames without a type tag.
var ErrMissingType = errors.New("frame has no type")

// Inbound holds the fields of every client frame; which ones are set depends on Type.
type Inbound struct {
	Type      string          `json:"type"`
	Username  string          `json:"username,omitempty"`
	Token     string          `json:"token,omitempty"`
	Room      string          `json:"room,omitempty"`
	OldRoom   string          `json:"oldRoom,omitempty"`
	NewRoom   string          `json:"newRoom,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
}

// DecodeInbound parses one client frame.
func DecodeInbound(data []byte) (Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return Inbound{}, fmt.Errorf("decode frame: %w", err)
	}
	if in.Type == "" {
		return Inbound{}, ErrMissingType
	}
	return in, nil
}

// Authenticate is sent by the client to bind an identity.
type Authenticate struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// Join requests membership of a room.
type Join struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

// SendMessage relays an opaque payload to a room.
type SendMessage struct {
	Type      string          `json:"type"`
	Room      string          `json:"room"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
}

// SwitchRoom moves the client from one room to another.
type SwitchRoom struct {
	Type    string `json:"type"`
	OldRoom string `json:"oldRoom"`
	NewRoom string `json:"newRoom"`
}

// Authenticated confirms a successful authenticate.
type Authenticated struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

// RoomUsers lists the users currently present in a room.
type RoomUsers struct {
	Type  string   `json:"type"`
	Room  string   `json:"room,omitempty"`
	Users []string `json:"users"`
}

// UserJoined notifies that a user joined a room.
type UserJoined struct {
	Type      string `json:"type"`
	Username  string `json:"username"`
	Room      string `json:"room,omitempty"`
	Timestamp string `json:"timestamp"`
}

// UserLeft notifies that a user left a room.
type UserLeft struct {
	Type      string `json:"type"`
	Username  string `json:"username"`
	Room      string `json:"room,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Message is a relayed chat message.
type Message struct {
	Type      string          `json:"type"`
	ID        string          `json:"id"`
	User      string          `json:"user"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
	Room      string          `json:"room"`
}

// Error describes a protocol-level error response.
type Error struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Outbound is the union of server frames, used by clients that read
// frames of mixed types.
type Outbound struct {
	Type      string          `json:"type"`
	Username  string          `json:"username,omitempty"`
	User      string          `json:"user,omitempty"`
	Users     []string        `json:"users,omitempty"`
	Room      string          `json:"room,omitempty"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
	Code      string          `json:"code,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// FormatTime renders t in TimeLayout (UTC).
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
