package core

import "github.com/rs/zerolog"

// Broadcaster fans events out to the members of a room.
type Broadcaster struct {
	rooms *Directory
	log   *zerolog.Logger
}

// NewBroadcaster builds a broadcaster over the given directory.
func NewBroadcaster(rooms *Directory, logger *zerolog.Logger) *Broadcaster {
	return &Broadcaster{rooms: rooms, log: logger}
}

// Broadcast queues ev for every open member of room except exclude and
// returns how many clients it reached. Closed members are skipped.
func (b *Broadcaster) Broadcast(room string, ev *Event, exclude *Client) int {
	sent := 0
	for _, c := range b.rooms.MembersOf(room) {
		if c == exclude || c.Closed() {
			continue
		}
		if c.trySend(ev) {
			sent++
			continue
		}
		b.log.Warn().Str("client_id", c.ID).Str("room", room).Msg("outbound queue full, dropping client")
	}
	return sent
}
