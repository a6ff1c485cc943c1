package core

import "sort"

// Room groups clients subscribed to the same channel.
type Room struct {
	Name    string
	clients map[*Client]uint64
	seq     uint64
}

// NewRoom constructs a room with no clients.
func NewRoom(name string) *Room {
	return &Room{
		Name:    name,
		clients: make(map[*Client]uint64),
	}
}

// AddClient inserts a client into the room. Returns true if newly added.
func (r *Room) AddClient(c *Client) bool {
	if _, exists := r.clients[c]; exists {
		return false
	}
	r.seq++
	r.clients[c] = r.seq
	return true
}

// RemoveClient deletes a client from the room. Returns true if removed.
func (r *Room) RemoveClient(c *Client) bool {
	if _, exists := r.clients[c]; !exists {
		return false
	}
	delete(r.clients, c)
	return true
}

// Has reports whether c is a member.
func (r *Room) Has(c *Client) bool {
	_, ok := r.clients[c]
	return ok
}

// Members returns the clients in join order.
func (r *Room) Members() []*Client {
	out := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return r.clients[out[i]] < r.clients[out[j]]
	})
	return out
}

// Empty returns true if no clients are in the room.
func (r *Room) Empty() bool {
	return len(r.clients) == 0
}

// Directory maps room names to rooms. Rooms are created on first use and
// kept for the lifetime of the directory, even when empty.
// Like SessionStore it belongs to the hub goroutine.
type Directory struct {
	rooms map[string]*Room
}

// NewDirectory returns a directory seeded with the given room names.
func NewDirectory(defaults ...string) *Directory {
	d := &Directory{rooms: make(map[string]*Room)}
	for _, name := range defaults {
		d.Ensure(name)
	}
	return d
}

// Ensure returns the named room, creating it if needed.
func (d *Directory) Ensure(name string) *Room {
	room, ok := d.rooms[name]
	if !ok {
		room = NewRoom(name)
		d.rooms[name] = room
	}
	return room
}

// Lookup returns the named room without creating it.
func (d *Directory) Lookup(name string) (*Room, bool) {
	room, ok := d.rooms[name]
	return room, ok
}

// Add places c in the named room, creating the room if needed.
func (d *Directory) Add(name string, c *Client) bool {
	return d.Ensure(name).AddClient(c)
}

// Remove takes c out of the named room. Unknown rooms and non-members are a no-op.
func (d *Directory) Remove(name string, c *Client) bool {
	room, ok := d.rooms[name]
	if !ok {
		return false
	}
	return room.RemoveClient(c)
}

// MembersOf returns the members of the named room in join order.
func (d *Directory) MembersOf(name string) []*Client {
	room, ok := d.rooms[name]
	if !ok {
		return nil
	}
	return room.Members()
}

// Names returns all known room names, sorted.
func (d *Directory) Names() []string {
	names := make([]string, 0, len(d.rooms))
	for name := range d.rooms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
