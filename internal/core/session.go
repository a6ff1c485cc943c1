package core

// Session is the authenticated identity bound to one connection.
type Session struct {
	Username string
	Room     string
}

// SessionStore maps connections to their sessions.
// It is owned by the hub goroutine and is not safe for concurrent use.
type SessionStore struct {
	sessions map[*Client]*Session
}

// NewSessionStore returns an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[*Client]*Session)}
}

// Attach creates a session with no room for the client.
func (s *SessionStore) Attach(c *Client, username string) (*Session, error) {
	if _, exists := s.sessions[c]; exists {
		return nil, ErrSessionExists
	}
	sess := &Session{Username: username}
	s.sessions[c] = sess
	return sess, nil
}

// Get returns the client's session, if any.
func (s *SessionStore) Get(c *Client) (*Session, bool) {
	sess, ok := s.sessions[c]
	return sess, ok
}

// SetRoom updates the room recorded for the client's session.
func (s *SessionStore) SetRoom(c *Client, room string) error {
	sess, ok := s.sessions[c]
	if !ok {
		return ErrNoSession
	}
	sess.Room = room
	return nil
}

// Remove detaches and returns the client's session.
func (s *SessionStore) Remove(c *Client) (*Session, bool) {
	sess, ok := s.sessions[c]
	if !ok {
		return nil, false
	}
	delete(s.sessions, c)
	return sess, true
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	return len(s.sessions)
}
