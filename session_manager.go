package auth

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// DefaultAccessTokenTTL and DefaultRefreshTokenTTL are the stock token
// lifetimes. The refresh lifetime matches the cookie Max-Age the
// transport sets.
const (
	DefaultAccessTokenTTL  = 30 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// LoginResult carries both freshly issued tokens plus the public user
// projection.
type LoginResult struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"-"`
	User         UserInfo `json:"user"`
}

// RefreshResult carries the rotated token pair.
type RefreshResult struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"-"`
}

// SignupInput is the registration request after transport-level
// validation.
type SignupInput struct {
	Email           string
	Password        string
	PasswordConfirm string
	Name            string
	Type            UserType
	TermsAgreed     bool
	PrivacyAgreed   bool
}

// SessionManager orchestrates the session lifecycle across the
// credential store and the refresh token store. It is stateless per
// call; all durable state lives in the two stores.
type SessionManager struct {
	users      UserStore
	tokens     TokenService
	sessions   RefreshTokenStore
	logger     Logger
	metrics    Metrics
	accessTTL  time.Duration
	refreshTTL time.Duration
}

type SessionManagerOption func(*SessionManager)

func WithLogger(logger Logger) SessionManagerOption {
	return func(s *SessionManager) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(metrics Metrics) SessionManagerOption {
	return func(s *SessionManager) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

func WithAccessTokenTTL(ttl time.Duration) SessionManagerOption {
	return func(s *SessionManager) {
		if ttl > 0 {
			s.accessTTL = ttl
		}
	}
}

func WithRefreshTokenTTL(ttl time.Duration) SessionManagerOption {
	return func(s *SessionManager) {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
	}
}

// NewSessionManager wires the session lifecycle orchestrator. All
// three stores are required; logger and metrics default to no-ops.
func NewSessionManager(users UserStore, tokens TokenService, sessions RefreshTokenStore, opts ...SessionManagerOption) *SessionManager {
	s := &SessionManager{
		users:      users,
		tokens:     tokens,
		sessions:   sessions,
		logger:     defLogger{},
		metrics:    noopMetrics{},
		accessTTL:  DefaultAccessTokenTTL,
		refreshTTL: DefaultRefreshTokenTTL,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Login verifies credentials and opens a session, evicting any prior
// session for the same user. Unknown emails and wrong passwords are
// indistinguishable in the returned error.
func (s *SessionManager) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			s.metrics.LoginAttempt("invalid_credentials")
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, errors.CategoryOperation, "credential lookup failed")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.metrics.LoginAttempt("invalid_credentials")
		return nil, ErrMismatchedHashAndPassword
	}

	accessToken, err := s.tokens.Issue(user.Email, user.ID.String(), s.accessTTL)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokens.Issue(user.Email, user.ID.String(), s.refreshTTL)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Put(ctx, user.ID, user.Email, refreshToken, s.refreshTTL); err != nil {
		return nil, err
	}

	s.metrics.LoginAttempt("success")
	s.logger.Debug("session opened for user %s", user.ID)

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user.Info(),
	}, nil
}

// Signup registers a new account. The account email must be unused by
// any account, active or deactivated.
func (s *SessionManager) Signup(ctx context.Context, input SignupInput) (*User, error) {
	if input.Password != input.PasswordConfirm {
		return nil, ErrPasswordMismatch
	}

	if !input.TermsAgreed || !input.PrivacyAgreed {
		return nil, ErrTermsNotAgreed
	}

	taken, err := s.users.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "email lookup failed")
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	name := input.Name
	if name == "" {
		name = emailLocalPart(input.Email)
	}

	user, err := s.users.Register(ctx, &User{
		Email:        input.Email,
		PasswordHash: hash,
		Name:         name,
		Type:         input.Type,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "user registration failed")
	}

	s.metrics.SignupCompleted(user.Type)
	s.logger.Info("registered %s account %s", user.Type, user.ID)

	return user, nil
}

// Refresh rotates a presented refresh token. The server-side record is
// the source of truth: a signed, unexpired token with no live record
// is rejected, which is what catches replays after rotation.
//
// Delete-then-put is deliberately not atomic as a pair. Under
// concurrent refreshes of the same token only one caller finds the
// record; the loser must re-authenticate. Clients must never retry a
// refresh with the same token after a timeout of unknown outcome.
func (s *SessionManager) Refresh(ctx context.Context, presented string) (*RefreshResult, error) {
	if _, err := s.tokens.Validate(presented); err != nil {
		s.metrics.TokenRefreshed("invalid_token")
		return nil, ErrInvalidRefreshToken
	}

	record, err := s.sessions.FindByToken(ctx, presented)
	if err != nil {
		if errors.IsNotFound(err) {
			s.metrics.TokenRefreshed("replayed_or_revoked")
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, record.Email)
	if err != nil {
		if errors.IsNotFound(err) {
			s.logger.Error("refresh session %s references missing user %s", record.UserID, record.Email)
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryOperation, "credential lookup failed")
	}

	accessToken, err := s.tokens.Issue(user.Email, user.ID.String(), s.accessTTL)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokens.Issue(user.Email, user.ID.String(), s.refreshTTL)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.DeleteByToken(ctx, presented); err != nil {
		return nil, err
	}

	if err := s.sessions.Put(ctx, user.ID, user.Email, refreshToken, s.refreshTTL); err != nil {
		return nil, err
	}

	s.metrics.TokenRefreshed("success")

	return &RefreshResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Logout revokes the user's session. Idempotent; logging out with no
// live session is not an error.
func (s *SessionManager) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.sessions.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	s.metrics.SessionRevoked("logout")
	return nil
}

// ForgotPassword issues a short-lived reset token for the account.
// Token delivery is the caller's concern. The reset token reuses the
// access-token profile, so any valid access token also passes the
// reset check; kept as-is to match the deployed clients.
func (s *SessionManager) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return "", ErrUserNotFound
		}
		return "", errors.Wrap(err, errors.CategoryOperation, "credential lookup failed")
	}

	token, err := s.tokens.Issue(user.Email, user.ID.String(), s.accessTTL)
	if err != nil {
		return "", err
	}

	s.metrics.PasswordReset("requested")

	return token, nil
}

// ResetPassword validates the reset token and replaces the account
// password. Live refresh sessions are left untouched.
func (s *SessionManager) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}

	claims, err := s.tokens.Validate(token)
	if err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, claims.Email())
	if err != nil {
		if errors.IsNotFound(err) {
			return ErrUserNotFound
		}
		return errors.Wrap(err, errors.CategoryOperation, "credential lookup failed")
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		if errors.IsNotFound(err) {
			return ErrUserNotFound
		}
		return errors.Wrap(err, errors.CategoryOperation, "password update failed")
	}

	s.metrics.PasswordReset("completed")
	s.logger.Info("password reset for user %s", user.ID)

	return nil
}

// DeactivateAccount flips the account inactive and revokes its
// session. There is no reactivation path.
func (s *SessionManager) DeactivateAccount(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.Deactivate(ctx, userID); err != nil {
		if errors.IsNotFound(err) {
			return ErrUserNotFound
		}
		return errors.Wrap(err, errors.CategoryOperation, "account deactivation failed")
	}

	if err := s.sessions.DeleteByUserID(ctx, userID); err != nil {
		return err
	}

	s.metrics.SessionRevoked("deactivated")
	s.logger.Info("deactivated account %s", userID)

	return nil
}

func emailLocalPart(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
