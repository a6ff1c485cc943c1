package core

import "time"

// Presence derives and pushes the username list of a room.
type Presence struct {
	rooms    *Directory
	sessions *SessionStore
	out      *Broadcaster
	now      func() time.Time
}

// NewPresence wires a presence notifier to the hub's state.
func NewPresence(rooms *Directory, sessions *SessionStore, out *Broadcaster) *Presence {
	return &Presence{rooms: rooms, sessions: sessions, out: out, now: time.Now}
}

// Users lists the usernames of open members of room in join order.
func (p *Presence) Users(room string) []string {
	members := p.rooms.MembersOf(room)
	users := make([]string, 0, len(members))
	for _, c := range members {
		if c.Closed() {
			continue
		}
		if sess, ok := p.sessions.Get(c); ok {
			users = append(users, sess.Username)
		}
	}
	return users
}

// Announce sends the current presence list to the whole room.
func (p *Presence) Announce(room string) []string {
	users := p.Users(room)
	p.out.Broadcast(room, &Event{
		Kind:  EventRoomUsers,
		Room:  room,
		Users: users,
		At:    p.now(),
	}, nil)
	return users
}
