package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/relaychat/internal/store/sqlite"
)

func testJWTConfig() *JWTConfig {
	return &JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}
}

func newTestAuthService(t *testing.T, opts ...Option) *Service {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return NewService(st, testJWTConfig(), opts...)
}

func TestRegister_RejectsInvalidUsername(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "ab", "password123"); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("expected ErrInvalidUsername, got %v", err)
	}

	// Should be validated after trimming whitespace.
	if _, err := svc.Register(ctx, " ab ", "password123"); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("expected ErrInvalidUsername, got %v", err)
	}
}

func TestRegister_RejectsInvalidPassword(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "abc", "12345"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestRegister_TrimsUsernameAndCreatesUser(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	token, err := svc.Register(ctx, " alice ", "password123")
	if err != nil {
		t.Fatalf("expected registration success, got %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}

	// Should collide because the stored username is trimmed.
	if _, err := svc.Register(ctx, "alice", "password123"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}

	token, err := svc.Login(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.Username != "alice" || claims.Subject != "alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	// Login trims the username the same way Register does.
	if _, err := svc.Login(ctx, " alice ", "password123"); err != nil {
		t.Fatalf("login with padded username: %v", err)
	}

	if _, err := svc.Login(ctx, "alice", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestVerify_KnownUsernameOnly(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}

	ok, err := svc.Verify(ctx, "alice", "")
	if err != nil || !ok {
		t.Fatalf("expected alice to be known, ok=%v err=%v", ok, err)
	}
	ok, err = svc.Verify(ctx, "mallory", "whatever")
	if err != nil || ok {
		t.Fatalf("expected mallory to be unknown, ok=%v err=%v", ok, err)
	}
}

func TestVerify_RequiredToken(t *testing.T) {
	svc := newTestAuthService(t, WithRequiredToken(true))
	ctx := context.Background()

	aliceToken, err := svc.Register(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("register alice: %v", err)
	}
	bobToken, err := svc.Register(ctx, "bob", "password123")
	if err != nil {
		t.Fatalf("register bob: %v", err)
	}

	tests := []struct {
		name     string
		username string
		token    string
		want     bool
	}{
		{"matching token", "alice", aliceToken, true},
		{"missing token", "alice", "", false},
		{"garbage token", "alice", "not-a-jwt", false},
		{"token of another user", "alice", bobToken, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := svc.Verify(ctx, tt.username, tt.token)
			if err != nil {
				t.Fatalf("verify: %v", err)
			}
			if ok != tt.want {
				t.Fatalf("Verify = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestValidateToken_RejectsWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	token, err := GenerateToken(cfg, 1, "alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	other := testJWTConfig()
	other.Secret = []byte("another-secret")
	if _, err := ValidateToken(other, token); err == nil {
		t.Fatalf("expected validation failure with wrong secret")
	}

	expired := testJWTConfig()
	expired.TTL = -time.Minute
	stale, err := GenerateToken(expired, 1, "alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ValidateToken(cfg, stale); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}
