package http

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/relaychat/internal/auth"
	"github.com/vovakirdan/relaychat/internal/config"
	"github.com/vovakirdan/relaychat/internal/core"
	"github.com/vovakirdan/relaychat/internal/proto"
	"github.com/vovakirdan/relaychat/internal/store/sqlite"
)

const testJWTSecret = "test-secret-change-me"

type testEnv struct {
	ts    *httptest.Server
	auth  *auth.Service
	hub   *core.Hub
	cfg   *config.Config
	wsURL string
}

// startTestServer runs the full stack on an in-memory store. mutate may
// adjust the configuration before anything is built.
func startTestServer(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.JWTSecret = testJWTSecret
	cfg.JWTIssuer = "test"
	cfg.JWTAudience = "test"
	if mutate != nil {
		mutate(&cfg)
	}

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.TokenTTL,
	}, auth.WithRequiredToken(cfg.RequireToken))

	disabledLogger := zerolog.Nop()
	hub := core.NewHub(core.HubConfig{
		DefaultRooms: cfg.DefaultRooms,
		AuthTimeout:  cfg.AuthTimeout,
	}, authService, &disabledLogger)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := NewServer(hub, authService, &cfg, &disabledLogger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})

	return &testEnv{
		ts:    ts,
		auth:  authService,
		hub:   hub,
		cfg:   &cfg,
		wsURL: strings.Replace(ts.URL, "http", "ws", 1) + wsPath,
	}
}

// register creates an account and returns its session token.
func (e *testEnv) register(t *testing.T, username string) string {
	t.Helper()

	token, err := e.auth.Register(context.Background(), username, "password123")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return token
}

func (e *testEnv) dial(t *testing.T, ctx context.Context) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, e.wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

// login dials and authenticates as username.
func (e *testEnv) login(t *testing.T, ctx context.Context, username, token string) *websocket.Conn {
	t.Helper()

	conn := e.dial(t, ctx)
	write(t, ctx, conn, proto.Authenticate{Type: proto.InboundTypeAuthenticate, Username: username, Token: token})
	out := readType(t, ctx, conn, proto.OutboundTypeAuthenticated)
	if out.Username != username {
		t.Fatalf("authenticated as %q, want %q", out.Username, username)
	}
	return conn
}

func write(t *testing.T, ctx context.Context, conn *websocket.Conn, frame any) {
	t.Helper()

	if err := wsjson.Write(ctx, conn, frame); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func read(t *testing.T, ctx context.Context, conn *websocket.Conn) proto.Outbound {
	t.Helper()

	rctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var out proto.Outbound
	if err := wsjson.Read(rctx, conn, &out); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return out
}

// readType reads frames until one of the given type arrives.
func readType(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string) proto.Outbound {
	t.Helper()

	for range 16 {
		out := read(t, ctx, conn)
		if out.Type == typ {
			return out
		}
	}
	t.Fatalf("no %s frame received", typ)
	return proto.Outbound{}
}

// expectClosed reads until the server closes the socket and returns the close status.
func expectClosed(t *testing.T, ctx context.Context, conn *websocket.Conn) websocket.StatusCode {
	t.Helper()

	rctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	for {
		_, _, err := conn.Read(rctx)
		if err == nil {
			continue
		}
		if errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("connection was not closed")
		}
		return websocket.CloseStatus(err)
	}
}

// settle waits until the hub has processed everything queued so far.
func (e *testEnv) settle(t *testing.T) core.Stats {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	stats, err := e.hub.Stats(ctx)
	if err != nil {
		t.Fatalf("hub stats: %v", err)
	}
	return stats
}

func sameUsers(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
