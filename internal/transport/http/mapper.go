package http

import (
	"github.com/vovakirdan/relaychat/internal/core"
	"github.com/vovakirdan/relaychat/internal/proto"
)

// inboundToCommand maps a decoded frame onto a hub command. Unknown types
// still produce a command so the hub can apply its authentication gate.
func inboundToCommand(inbound proto.Inbound) *core.Command {
	cmd := &core.Command{Type: inbound.Type}

	switch inbound.Type {
	case proto.InboundTypeAuthenticate:
		cmd.Kind = core.CommandAuthenticate
		cmd.Username = inbound.Username
		cmd.Token = inbound.Token
	case proto.InboundTypeJoin:
		cmd.Kind = core.CommandJoin
		cmd.Room = inbound.Room
	case proto.InboundTypeSendMessage:
		cmd.Kind = core.CommandSendMessage
		cmd.Room = inbound.Room
		cmd.Payload = inbound.Payload
		cmd.Timestamp = inbound.Timestamp
	case proto.InboundTypeSwitchRoom:
		cmd.Kind = core.CommandSwitchRoom
		cmd.OldRoom = inbound.OldRoom
		cmd.NewRoom = inbound.NewRoom
	default:
		cmd.Kind = core.CommandUnknown
	}
	return cmd
}

func outboundFromEvent(event *core.Event) any {
	switch event.Kind {
	case core.EventAuthenticated:
		return proto.Authenticated{
			Type:     proto.OutboundTypeAuthenticated,
			Username: event.User,
		}
	case core.EventRoomUsers:
		users := event.Users
		if users == nil {
			users = []string{}
		}
		return proto.RoomUsers{
			Type:  proto.OutboundTypeRoomUsers,
			Room:  event.Room,
			Users: users,
		}
	case core.EventUserJoined:
		return proto.UserJoined{
			Type:      proto.OutboundTypeUserJoined,
			Username:  event.User,
			Room:      event.Room,
			Timestamp: proto.FormatTime(event.At),
		}
	case core.EventUserLeft:
		return proto.UserLeft{
			Type:      proto.OutboundTypeUserLeft,
			Username:  event.User,
			Room:      event.Room,
			Timestamp: proto.FormatTime(event.At),
		}
	case core.EventMessage:
		return proto.Message{
			Type:      proto.OutboundTypeMessage,
			ID:        event.Message.ID,
			User:      event.Message.From,
			Payload:   event.Message.Payload,
			Timestamp: event.Message.Timestamp,
			Room:      event.Message.Room,
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Error{Type: proto.OutboundTypeError, Code: "unknown", Message: "unknown error"}
		}
		return proto.Error{
			Type:    proto.OutboundTypeError,
			Code:    event.Error.Code,
			Message: event.Error.Message,
		}
	default:
		return proto.Error{Type: proto.OutboundTypeError, Code: "unknown", Message: "unknown event"}
	}
}
