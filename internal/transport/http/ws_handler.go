package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"slices"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/relaychat/internal/config"
	"github.com/vovakirdan/relaychat/internal/core"
	"github.com/vovakirdan/relaychat/internal/proto"
	"github.com/vovakirdan/relaychat/internal/utils"
)

var errKicked = errors.New("connection dropped by hub")

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub *core.Hub
	cfg *config.Config
	log *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, cfg: cfg, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, h.acceptOptions())
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()

	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	client := core.NewClient(utils.NewID(), h.cfg.SendBuffer)
	if err := h.hub.RegisterClient(client); err != nil {
		h.log.Warn().Err(err).Msg("hub unavailable")
		conn.Close(websocket.StatusTryAgainLater, "server shutting down")
		return
	}
	h.log.Debug().Str("client_id", client.ID).Str("remote", r.RemoteAddr).Msg("ws connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	client.MarkClosed()
	h.hub.UnregisterClient(client)

	var policy *policyClose
	switch {
	case errors.As(err, &policy):
		conn.Close(websocket.StatusPolicyViolation, policy.reason)
	case errors.Is(err, errKicked):
		conn.Close(websocket.StatusGoingAway, "closing")
	case err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF):
		conn.Close(websocket.StatusNormalClosure, "closing")
	default:
		status := websocket.CloseStatus(err)
		if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
			h.log.Debug().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
		}
		conn.Close(websocket.StatusNormalClosure, "closing")
	}
	h.log.Debug().Str("client_id", client.ID).Msg("ws disconnected")
}

func (h *WSHandler) acceptOptions() *websocket.AcceptOptions {
	if len(h.cfg.AllowedOrigins) == 0 || slices.Contains(h.cfg.AllowedOrigins, "*") {
		return &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	return &websocket.AcceptOptions{OriginPatterns: h.cfg.AllowedOrigins}
}

// readLoop decodes client frames and hands them to the hub in arrival order.
// Frames that are not valid JSON objects with a type are discarded.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newRateLimiter(h.cfg.RateLimit)
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		if !limiter.allow(time.Now()) {
			client.Notify(core.NewError(core.ErrCodeRateLimited, "Too many messages"))
			continue
		}

		inbound, err := proto.DecodeInbound(data)
		if err != nil {
			h.log.Debug().Err(err).Str("client_id", client.ID).Msg("discarding malformed frame")
			continue
		}

		if err := h.hub.Dispatch(ctx, client, inboundToCommand(inbound)); err != nil {
			return err
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event := <-client.Events:
			if err := h.write(ctx, conn, event); err != nil {
				h.log.Debug().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
			if event.Close {
				reason := "closing"
				if event.Error != nil {
					reason = event.Error.Message
				}
				return &policyClose{reason: reason}
			}
		case <-client.Kicked():
			return errKicked
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) write(ctx context.Context, conn *websocket.Conn, event *core.Event) error {
	if h.cfg.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.WriteTimeout)
		defer cancel()
	}
	return wsjson.Write(ctx, conn, outboundFromEvent(event))
}

// policyClose ends a connection the hub refused to keep.
type policyClose struct {
	reason string
}

func (e *policyClose) Error() string {
	return "policy close: " + e.reason
}
