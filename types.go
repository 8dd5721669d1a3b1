package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// TokenService signs and validates session tokens. The service is TTL
// agnostic; callers decide whether a token plays the access or the
// refresh role.
type TokenService interface {
	Issue(email, userID string, ttl time.Duration) (string, error)
	Validate(token string) (*TokenClaims, error)
	ExtractEmail(token string) (string, error)
}

// RefreshTokenStore persists the single active refresh token per user.
// Put overwrites any previous record for the user unconditionally.
type RefreshTokenStore interface {
	Put(ctx context.Context, userID uuid.UUID, email, token string, ttl time.Duration) error
	FindByToken(ctx context.Context, token string) (*RefreshTokenRecord, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

// UserStore is the narrow credential-store surface the session manager
// needs. The bun backed Users repository implements it.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Register(ctx context.Context, user *User) (*User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// Metrics receives session lifecycle counters. Optional; the session
// manager works with a nil implementation.
type Metrics interface {
	LoginAttempt(outcome string)
	SignupCompleted(userType string)
	TokenRefreshed(outcome string)
	SessionRevoked(reason string)
	PasswordReset(stage string)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger adapts a *slog.Logger to the Logger interface used
// across the package.
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return slogLogger{l: l}
}

func (s slogLogger) Debug(format string, args ...any) {
	s.l.Debug(fmt.Sprintf(format, args...))
}

func (s slogLogger) Info(format string, args ...any) {
	s.l.Info(fmt.Sprintf(format, args...))
}

func (s slogLogger) Error(format string, args ...any) {
	s.l.Error(fmt.Sprintf(format, args...))
}
