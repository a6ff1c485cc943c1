package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vovakirdan/relaychat/internal/store"
)

var (
	// ErrInvalidCredentials is returned when username/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when trying to register with existing username.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidUsername is returned when username doesn't meet constraints.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrInvalidPassword is returned when password doesn't meet constraints.
	ErrInvalidPassword = errors.New("invalid password")
)

const (
	minUsernameLen = 3
	maxUsernameLen = 32
	minPasswordLen = 6
)

// Service provides account operations: registration, login and the
// known-account check used by the relay's authentication gate.
type Service struct {
	store        store.UserStore
	jwtConfig    *JWTConfig
	requireToken bool
}

// Option customizes a Service.
type Option func(*Service)

// WithRequiredToken makes Verify demand a valid session token for the username.
func WithRequiredToken(required bool) Option {
	return func(s *Service) { s.requireToken = required }
}

// NewService creates a new authentication service.
func NewService(userStore store.UserStore, jwtConfig *JWTConfig, opts ...Option) *Service {
	s := &Service{
		store:     userStore,
		jwtConfig: jwtConfig,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new user with hashed password and returns a JWT token.
func (s *Service) Register(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return "", ErrInvalidUsername
	}
	if len(password) < minPasswordLen {
		return "", ErrInvalidPassword
	}

	exists, err := s.store.UserExists(ctx, username)
	if err != nil {
		return "", fmt.Errorf("check user: %w", err)
	}
	if exists {
		return "", ErrUserExists
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, username, hashedPassword)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return "", ErrUserExists
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.Username)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return token, nil
}

// Login validates credentials and returns a JWT token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("get user: %w", err)
	}

	if errPwd := ComparePassword(user.PasswordHash, password); errPwd != nil {
		return "", ErrInvalidCredentials
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.Username)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return token, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}

// Verify reports whether username is a registered account. When tokens are
// required, token must also be a valid session token issued to username.
func (s *Service) Verify(ctx context.Context, username, token string) (bool, error) {
	exists, err := s.store.UserExists(ctx, username)
	if err != nil {
		return false, fmt.Errorf("lookup account: %w", err)
	}
	if !exists {
		return false, nil
	}
	if !s.requireToken {
		return true, nil
	}

	claims, err := s.ValidateToken(token)
	if err != nil {
		return false, nil
	}
	return claims.Username == username, nil
}
