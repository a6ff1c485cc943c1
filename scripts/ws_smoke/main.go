package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/relaychat/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:3001/ws", "WebSocket address")
	user := flag.String("user", "tester", "registered username to authenticate as")
	token := flag.String("token", "", "session token from /api/login")
	room := flag.String("room", "general", "room name")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	mustSend := func(v any) error {
		if err := wsjson.Write(ctx, conn, v); err != nil {
			return fmt.Errorf("send: %w", err)
		}
		return nil
	}

	if err := mustSend(proto.Authenticate{Type: proto.InboundTypeAuthenticate, Username: *user, Token: *token}); err != nil {
		return err
	}
	if err := mustSend(proto.Join{Type: proto.InboundTypeJoin, Room: *room}); err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]string{"text": *text})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := mustSend(proto.SendMessage{
		Type:      proto.InboundTypeSendMessage,
		Room:      *room,
		Payload:   payload,
		Timestamp: json.RawMessage(`"` + proto.FormatTime(time.Now()) + `"`),
	}); err != nil {
		return err
	}

	for {
		var outbound proto.Outbound
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		switch outbound.Type {
		case proto.OutboundTypeAuthenticated:
			fmt.Printf("Authenticated: user=%s\n", outbound.Username)
		case proto.OutboundTypeRoomUsers:
			fmt.Printf("Presence: room=%s users=%v\n", outbound.Room, outbound.Users)
		case proto.OutboundTypeUserJoined:
			fmt.Printf("Join: room=%s user=%s\n", outbound.Room, outbound.Username)
		case proto.OutboundTypeUserLeft:
			fmt.Printf("Left: room=%s user=%s\n", outbound.Room, outbound.Username)
		case proto.OutboundTypeError:
			return fmt.Errorf("server error %s: %s", outbound.Code, outbound.Message)
		case proto.OutboundTypeMessage:
			fmt.Printf("Message: id=%s room=%s user=%s payload=%s\n", outbound.ID, outbound.Room, outbound.User, outbound.Payload)
			if outbound.User == *user {
				return nil
			}
		}
	}
}
