package core

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func startHub(t *testing.T, users ...string) *Hub {
	t.Helper()

	known := make(map[string]struct{}, len(users))
	for _, u := range users {
		known[u] = struct{}{}
	}
	verifier := VerifierFunc(func(_ context.Context, username, _ string) (bool, error) {
		_, ok := known[username]
		return ok, nil
	})

	hub := NewHub(HubConfig{DefaultRooms: []string{"general", "tech", "random"}}, verifier, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func connect(t *testing.T, hub *Hub, id string) *Client {
	t.Helper()

	c := NewClient(id, 32)
	if err := hub.RegisterClient(c); err != nil {
		t.Fatalf("register %s: %v", id, err)
	}
	return c
}

func send(t *testing.T, hub *Hub, c *Client, cmd *Command) {
	t.Helper()

	if err := hub.Dispatch(context.Background(), c, cmd); err != nil {
		t.Fatalf("dispatch %v: %v", cmd.Kind, err)
	}
}

// login connects a client and authenticates it as name.
func login(t *testing.T, hub *Hub, id, name string) *Client {
	t.Helper()

	c := connect(t, hub, id)
	send(t, hub, c, &Command{Kind: CommandAuthenticate, Username: name, Token: "tok"})
	ev := nextEvent(t, c.Events)
	if ev.Kind != EventAuthenticated || ev.User != name {
		t.Fatalf("expected authenticated for %s, got %+v", name, ev)
	}
	return c
}

// settle waits until every envelope queued so far has been handled.
func settle(t *testing.T, hub *Hub) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := hub.do(ctx, func() {}); err != nil {
		t.Fatalf("settle: %v", err)
	}
}

func inspect(t *testing.T, hub *Hub, fn func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := hub.do(ctx, fn); err != nil {
		t.Fatalf("inspect: %v", err)
	}
}

func nextEvent(t *testing.T, ch <-chan *Event) *Event {
	t.Helper()

	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("no event received")
		return nil
	}
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// noEvent asserts the queue is empty. Call settle first.
func noEvent(t *testing.T, ch <-chan *Event) {
	t.Helper()

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %+v", ev)
	default:
	}
}

func drain(ch <-chan *Event) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

func sameUsers(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	seen := make(map[string]int, len(got))
	for _, u := range got {
		seen[u]++
	}
	for _, u := range want {
		if seen[u] == 0 {
			return false
		}
		seen[u]--
	}
	return true
}

func raw(s string) json.RawMessage {
	return json.RawMessage(s)
}
