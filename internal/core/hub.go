package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/relaychat/internal/utils"
)

// Verifier decides whether a username (and optional token) names a known account.
type Verifier interface {
	Verify(ctx context.Context, username, token string) (bool, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, username, token string) (bool, error)

// Verify calls f.
func (f VerifierFunc) Verify(ctx context.Context, username, token string) (bool, error) {
	return f(ctx, username, token)
}

// HubConfig tunes the hub.
type HubConfig struct {
	DefaultRooms []string
	AuthTimeout  time.Duration
	InboxSize    int
}

// Stats is a point-in-time view of hub occupancy.
type Stats struct {
	Connections int
	Sessions    int
	Rooms       int
}

type envelopeKind int

const (
	envOpen envelopeKind = iota
	envFrame
	envClose
	envProbe
)

type envelope struct {
	kind   envelopeKind
	client *Client
	cmd    *Command
	probe  func()
}

// Hub is the protocol gate. A single goroutine (Run) owns the session store
// and room directory and processes one inbound frame at a time, including
// every broadcast it causes, before taking the next.
type Hub struct {
	cfg      HubConfig
	verifier Verifier
	log      *zerolog.Logger

	clients  map[*Client]struct{}
	sessions *SessionStore
	rooms    *Directory
	out      *Broadcaster
	presence *Presence

	inbox chan envelope
	done  chan struct{}

	now   func() time.Time
	newID func() string
}

// NewHub creates a hub with its own session store and room directory.
func NewHub(cfg HubConfig, verifier Verifier, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if cfg.AuthTimeout <= 0 {
		cfg.AuthTimeout = 2 * time.Second
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = 256
	}

	sessions := NewSessionStore()
	rooms := NewDirectory(cfg.DefaultRooms...)
	out := NewBroadcaster(rooms, logger)

	return &Hub{
		cfg:      cfg,
		verifier: verifier,
		log:      logger,
		clients:  make(map[*Client]struct{}),
		sessions: sessions,
		rooms:    rooms,
		out:      out,
		presence: NewPresence(rooms, sessions, out),
		inbox:    make(chan envelope, cfg.InboxSize),
		done:     make(chan struct{}),
		now:      time.Now,
		newID:    utils.NewMessageID,
	}
}

// Run processes inbound envelopes until ctx is cancelled.
// On exit every known client is kicked so transports can close.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	defer func() {
		for c := range h.clients {
			c.kick()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Int("clients", len(h.clients)).Msg("hub stopping")
			return
		case env := <-h.inbox:
			h.handle(ctx, env)
		}
	}
}

// RegisterClient announces a new connection in the unauthenticated state.
func (h *Hub) RegisterClient(c *Client) error {
	return h.enqueue(context.Background(), envelope{kind: envOpen, client: c})
}

// Dispatch queues an inbound command. Commands from one client are handled
// in the order Dispatch is called.
func (h *Hub) Dispatch(ctx context.Context, c *Client, cmd *Command) error {
	return h.enqueue(ctx, envelope{kind: envFrame, client: c, cmd: cmd})
}

// UnregisterClient reports that the connection has closed.
func (h *Hub) UnregisterClient(c *Client) {
	c.MarkClosed()
	if err := h.enqueue(context.Background(), envelope{kind: envClose, client: c}); err != nil {
		h.log.Debug().Err(err).Str("client_id", c.ID).Msg("close after hub stop")
	}
}

// Stats reports current occupancy.
func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := h.do(ctx, func() {
		st = Stats{
			Connections: len(h.clients),
			Sessions:    h.sessions.Len(),
			Rooms:       len(h.rooms.Names()),
		}
	})
	return st, err
}

// do runs fn on the hub goroutine and waits for it.
func (h *Hub) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := h.enqueue(ctx, envelope{kind: envProbe, probe: func() {
		fn()
		close(finished)
	}}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) enqueue(ctx context.Context, env envelope) error {
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}
	select {
	case h.inbox <- env:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) handle(ctx context.Context, env envelope) {
	switch env.kind {
	case envProbe:
		env.probe()
	case envOpen:
		h.clients[env.client] = struct{}{}
	case envClose:
		h.handleClose(env.client)
	case envFrame:
		h.handleFrame(ctx, env.client, env.cmd)
	}
}

func (h *Hub) handleFrame(ctx context.Context, c *Client, cmd *Command) {
	if c.state == StateClosed {
		h.log.Debug().Str("client_id", c.ID).Str("type", cmd.Type).Msg("frame after close ignored")
		return
	}
	if c.state == StateUnauthenticated && cmd.Kind != CommandAuthenticate {
		h.reply(c, NewError(ErrCodeUnauthenticated, "Must authenticate first"))
		return
	}

	switch cmd.Kind {
	case CommandAuthenticate:
		h.authenticate(ctx, c, cmd)
	case CommandJoin:
		h.join(c, cmd)
	case CommandSendMessage:
		h.sendMessage(c, cmd)
	case CommandSwitchRoom:
		h.switchRoom(c, cmd)
	case CommandUnknown:
		h.log.Debug().Str("client_id", c.ID).Str("type", cmd.Type).Msg("unknown message type")
	default:
		h.log.Warn().Str("client_id", c.ID).Int("kind", int(cmd.Kind)).Msg("unhandled command kind")
	}
}

func (h *Hub) authenticate(ctx context.Context, c *Client, cmd *Command) {
	if c.state == StateAuthenticated {
		h.reply(c, NewError(ErrCodeAlreadyAuthenticated, "Already authenticated"))
		return
	}

	known := false
	if cmd.Username != "" && h.verifier != nil {
		vctx, cancel := context.WithTimeout(ctx, h.cfg.AuthTimeout)
		ok, err := h.verifier.Verify(vctx, cmd.Username, cmd.Token)
		cancel()
		if err != nil {
			h.log.Error().Err(err).Str("client_id", c.ID).Str("user", cmd.Username).Msg("account lookup failed")
		}
		known = ok && err == nil
	}

	if !known {
		h.log.Info().Str("client_id", c.ID).Str("user", cmd.Username).Msg("authentication rejected")
		ev := NewError(ErrCodeInvalidAuth, "Invalid authentication")
		ev.Close = true
		h.reply(c, ev)
		c.state = StateClosed
		return
	}

	if _, err := h.sessions.Attach(c, cmd.Username); err != nil {
		h.log.Error().Err(err).Str("client_id", c.ID).Msg("attach session")
		h.reply(c, NewError(ErrCodeAlreadyAuthenticated, "Already authenticated"))
		return
	}
	c.state = StateAuthenticated
	h.reply(c, &Event{Kind: EventAuthenticated, User: cmd.Username, At: h.now()})
	h.log.Info().Str("client_id", c.ID).Str("user", cmd.Username).Msg("user authenticated")
}

func (h *Hub) join(c *Client, cmd *Command) {
	sess, ok := h.sessions.Get(c)
	if !ok {
		return
	}
	if cmd.Room == "" {
		h.reply(c, NewError(ErrCodeBadRequest, "room is required"))
		return
	}

	if sess.Room == cmd.Room {
		if room, exists := h.rooms.Lookup(cmd.Room); exists && room.Has(c) {
			h.presence.Announce(cmd.Room)
			return
		}
	}
	if sess.Room != "" && sess.Room != cmd.Room {
		h.move(c, sess, sess.Room, cmd.Room)
		return
	}

	h.enter(c, sess, cmd.Room)
	h.log.Info().Str("user", sess.Username).Str("room", cmd.Room).Msg("joined room")
}

func (h *Hub) sendMessage(c *Client, cmd *Command) {
	sess, ok := h.sessions.Get(c)
	if !ok {
		return
	}
	if cmd.Room == "" {
		h.reply(c, NewError(ErrCodeBadRequest, "room is required"))
		return
	}

	n := h.out.Broadcast(cmd.Room, &Event{
		Kind: EventMessage,
		Room: cmd.Room,
		User: sess.Username,
		Message: Message{
			ID:        h.newID(),
			Room:      cmd.Room,
			From:      sess.Username,
			Payload:   cmd.Payload,
			Timestamp: cmd.Timestamp,
		},
		At: h.now(),
	}, nil)
	h.log.Debug().Str("user", sess.Username).Str("room", cmd.Room).Int("recipients", n).Msg("message relayed")
}

func (h *Hub) switchRoom(c *Client, cmd *Command) {
	sess, ok := h.sessions.Get(c)
	if !ok {
		return
	}
	if cmd.NewRoom == "" {
		h.reply(c, NewError(ErrCodeBadRequest, "newRoom is required"))
		return
	}

	old := sess.Room
	if old == "" {
		old = cmd.OldRoom
	}
	h.move(c, sess, old, cmd.NewRoom)
}

// move completes the departure from old before the arrival in next, so no
// other client ever sees c in both rooms or in neither.
func (h *Hub) move(c *Client, sess *Session, old, next string) {
	if _, exists := h.rooms.Lookup(old); old != "" && exists {
		h.rooms.Remove(old, c)
		h.out.Broadcast(old, h.presenceEvent(EventUserLeft, old, sess.Username), nil)
		h.presence.Announce(old)
	}
	h.enter(c, sess, next)
	h.log.Info().Str("user", sess.Username).Str("from", old).Str("to", next).Msg("switched room")
}

func (h *Hub) enter(c *Client, sess *Session, room string) {
	h.rooms.Add(room, c)
	if err := h.sessions.SetRoom(c, room); err != nil {
		h.log.Error().Err(err).Str("client_id", c.ID).Msg("set session room")
	}
	h.out.Broadcast(room, h.presenceEvent(EventUserJoined, room, sess.Username), c)
	h.presence.Announce(room)
}

func (h *Hub) handleClose(c *Client) {
	delete(h.clients, c)
	c.state = StateClosed
	c.MarkClosed()

	sess, ok := h.sessions.Remove(c)
	if !ok || sess.Room == "" {
		return
	}
	h.rooms.Remove(sess.Room, c)
	h.presence.Announce(sess.Room)
	h.out.Broadcast(sess.Room, h.presenceEvent(EventUserLeft, sess.Room, sess.Username), nil)
	h.log.Info().Str("client_id", c.ID).Str("user", sess.Username).Str("room", sess.Room).Msg("user disconnected")
}

func (h *Hub) presenceEvent(kind EventKind, room, user string) *Event {
	return &Event{Kind: kind, Room: room, User: user, At: h.now()}
}

func (h *Hub) reply(c *Client, ev *Event) {
	if !c.trySend(ev) {
		h.log.Debug().Str("client_id", c.ID).Msg("reply dropped")
	}
}
