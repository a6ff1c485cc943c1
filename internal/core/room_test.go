package core

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestDirectoryEnsureIsIdempotent(t *testing.T) {
	dir := NewDirectory("general", "tech", "random")

	first := dir.Ensure("general")
	if dir.Ensure("general") != first {
		t.Fatalf("ensure created a second room")
	}
	if got := dir.Names(); len(got) != 3 {
		t.Fatalf("expected 3 default rooms, got %v", got)
	}
}

func TestDirectoryMembership(t *testing.T) {
	dir := NewDirectory()
	a := NewClient("a", 1)
	b := NewClient("b", 1)

	if dir.Remove("ghost", a) {
		t.Fatalf("remove from unknown room must be a no-op")
	}
	if members := dir.MembersOf("ghost"); len(members) != 0 {
		t.Fatalf("unknown room has members: %v", members)
	}
	if _, ok := dir.Lookup("ghost"); ok {
		t.Fatalf("lookup must not create rooms")
	}

	if !dir.Add("lobby", a) || !dir.Add("lobby", b) {
		t.Fatalf("expected new members")
	}
	if dir.Add("lobby", a) {
		t.Fatalf("duplicate add reported as new")
	}

	members := dir.MembersOf("lobby")
	if len(members) != 2 || members[0] != a || members[1] != b {
		t.Fatalf("expected join order [a b], got %v", members)
	}

	if !dir.Remove("lobby", a) || dir.Remove("lobby", a) {
		t.Fatalf("remove semantics broken")
	}
	if !dir.Remove("lobby", b) {
		t.Fatalf("remove b failed")
	}

	room, ok := dir.Lookup("lobby")
	if !ok || !room.Empty() {
		t.Fatalf("empty room must persist")
	}
}

func TestBroadcastExcludesAndSkipsClosed(t *testing.T) {
	dir := NewDirectory()
	nop := zerolog.Nop()
	out := NewBroadcaster(dir, &nop)

	a := NewClient("a", 4)
	b := NewClient("b", 4)
	c := NewClient("c", 4)
	for _, cl := range []*Client{a, b, c} {
		dir.Add("room", cl)
	}
	c.MarkClosed()

	n := out.Broadcast("room", &Event{Kind: EventMessage}, a)
	if n != 1 {
		t.Fatalf("expected 1 recipient, got %d", n)
	}
	if len(a.Events) != 0 || len(b.Events) != 1 || len(c.Events) != 0 {
		t.Fatalf("unexpected queue lengths a=%d b=%d c=%d", len(a.Events), len(b.Events), len(c.Events))
	}

	if n := out.Broadcast("nowhere", &Event{Kind: EventMessage}, nil); n != 0 {
		t.Fatalf("broadcast to unknown room reached %d", n)
	}
}
