package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/castlink/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestUser(t *testing.T, email, password string) *auth.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	now := time.Now()
	return &auth.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         "Test User",
		Type:         auth.UserTypeActor,
		IsActive:     true,
		CreatedAt:    &now,
	}
}

func newTestManager(users auth.UserStore, store auth.RefreshTokenStore) *auth.SessionManager {
	tokens := auth.NewTokenService([]byte("test-signing-key-32-bytes-long!!"), "castlink-test", nopLogger{})
	return auth.NewSessionManager(users, tokens, store,
		auth.WithLogger(nopLogger{}),
	)
}

func TestSessionManager_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("verifies credentials and opens a session", func(t *testing.T) {
		user := newTestUser(t, "a@x.com", "correct horse")
		users := &MockUserStore{}
		users.On("GetByEmail", mock.Anything, "a@x.com").Return(user, nil)

		store := newMemoryTokenStore()
		manager := newTestManager(users, store)

		result, err := manager.Login(ctx, "a@x.com", "correct horse")

		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
		assert.NotEmpty(t, result.RefreshToken)
		assert.Equal(t, user.ID, result.User.ID)
		assert.Equal(t, "a@x.com", result.User.Email)

		record, err := store.FindByToken(ctx, result.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, record.UserID)
		assert.Equal(t, "a@x.com", record.Email)

		users.AssertExpectations(t)
	})

	t.Run("wrong password yields invalid credentials", func(t *testing.T) {
		user := newTestUser(t, "a@x.com", "correct horse")
		users := &MockUserStore{}
		users.On("GetByEmail", mock.Anything, "a@x.com").Return(user, nil)

		manager := newTestManager(users, newMemoryTokenStore())

		_, err := manager.Login(ctx, "a@x.com", "wrong")
		assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
	})

	t.Run("unknown email yields the same invalid credentials error", func(t *testing.T) {
		users := &MockUserStore{}
		users.On("GetByEmail", mock.Anything, "nobody@x.com").Return(nil, auth.ErrUserNotFound)

		manager := newTestManager(users, newMemoryTokenStore())

		_, err := manager.Login(ctx, "nobody@x.com", "anything")
		assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
	})

	t.Run("second device login evicts the first session", func(t *testing.T) {
		user := newTestUser(t, "a@x.com", "correct horse")
		users := &MockUserStore{}
		users.On("GetByEmail", mock.Anything, "a@x.com").Return(user, nil)

		store := newMemoryTokenStore()
		manager := newTestManager(users, store)

		deviceA, err := manager.Login(ctx, "a@x.com", "correct horse")
		require.NoError(t, err)
		deviceB, err := manager.Login(ctx, "a@x.com", "correct horse")
		require.NoError(t, err)

		_, err = manager.Refresh(ctx, deviceA.RefreshToken)
		assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)

		_, err = manager.Refresh(ctx, deviceB.RefreshToken)
		assert.NoError(t, err)
	})
}

func TestSessionManager_Refresh(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*auth.SessionManager, *memoryTokenStore, *auth.LoginResult) {
		user := newTestUser(t, "a@x.com", "correct horse")
		users := &MockUserStore{}
		users.On("GetByEmail", mock.Anything, "a@x.com").Return(user, nil)

		store := newMemoryTokenStore()
		manager := newTestManager(users, store)

		result, err := manager.Login(ctx, "a@x.com", "correct horse")
		require.NoError(t, err)

		return manager, store, result
	}

	t.Run("rotates the session token", func(t *testing.T) {
		manager, store, login := setup(t)

		rotated, err := manager.Refresh(ctx, login.RefreshToken)

		require.NoError(t, err)
		assert.NotEmpty(t, rotated.AccessToken)
		assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

		record, err := store.FindByToken(ctx, rotated.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, rotated.RefreshToken, record.Token)
	})

	t.Run("a rotated token is accepted at most once", func(t *testing.T) {
		manager, _, login := setup(t)

		_, err := manager.Refresh(ctx, login.RefreshToken)
		require.NoError(t, err)

		_, err = manager.Refresh(ctx, login.RefreshToken)
		assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
	})

	t.Run("survives consecutive rotations with the newest token", func(t *testing.T) {
		manager, _, login := setup(t)

		first, err := manager.Refresh(ctx, login.RefreshToken)
		require.NoError(t, err)

		second, err := manager.Refresh(ctx, first.RefreshToken)
		require.NoError(t, err)

		_, err = manager.Refresh(ctx, first.RefreshToken)
		assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)

		_, err = manager.Refresh(ctx, second.RefreshToken)
		assert.NoError(t, err)
	})

	t.Run("a token past its store TTL is rejected like a never-issued one", func(t *testing.T) {
		manager, store, login := setup(t)

		store.now = func() time.Time {
			return time.Now().Add(8 * 24 * time.Hour)
		}

		_, err := manager.Refresh(ctx, login.RefreshToken)
		assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
	})

	t.Run("garbage tokens are rejected", func(t *testing.T) {
		manager, _, _ := setup(t)

		_, err := manager.Refresh(ctx, "not-a-token")
		assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
	})

	t.Run("missing user behind a live record is a data integrity failure", func(t *testing.T) {
		user := newTestUser(t, "gone@x.com", "correct horse")
		users := &MockUserStore{}
		users.On("GetByEmail", mock.Anything, "gone@x.com").Return(nil, auth.ErrUserNotFound)

		store := newMemoryTokenStore()
		manager := newTestManager(users, store)

		tokens := auth.NewTokenService([]byte("test-signing-key-32-bytes-long!!"), "castlink-test", nopLogger{})
		token, err := tokens.Issue(user.Email, user.ID.String(), time.Hour)
		require.NoError(t, err)
		require.NoError(t, store.Put(ctx, user.ID, user.Email, token, time.Hour))

		_, err = manager.Refresh(ctx, token)
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})
}

func TestSessionManager_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("revokes the live session", func(t *testing.T) {
		user := newTestUser(t, "a@x.com", "correct horse")
		users := &MockUserStore{}
		users.On("GetByEmail", mock.Anything, "a@x.com").Return(user, nil)

		store := newMemoryTokenStore()
		manager := newTestManager(users, store)

		login, err := manager.Login(ctx, "a@x.com", "correct horse")
		require.NoError(t, err)

		require.NoError(t, manager.Logout(ctx, user.ID))

		_, err = manager.Refresh(ctx, login.RefreshToken)
		assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
	})

	t.Run("is idempotent", func(t *testing.T) {
		manager := newTestManager(&MockUserStore{}, newMemoryTokenStore())

		userID := uuid.New()
		assert.NoError(t, manager.Logout(ctx, userID))
		assert.NoError(t, manager.Logout(ctx, userID))
	})
}

func TestSessionManager_Signup(t *testing.T) {
	ctx := context.Background()

	input := auth.SignupInput{
		Email:           "new@x.com",
		Password:        "Password1!",
		PasswordConfirm: "Password1!",
		Type:            auth.UserTypeAgency,
		TermsAgreed:     true,
		PrivacyAgreed:   true,
	}

	t.Run("registers a new account", func(t *testing.T) {
		users := &MockUserStore{}
		users.On("ExistsByEmail", mock.Anything, "new@x.com").Return(false, nil)
		users.On("Register", mock.Anything, mock.MatchedBy(func(u *auth.User) bool {
			return u.Email == "new@x.com" &&
				u.Type == auth.UserTypeAgency &&
				u.Name == "new" &&
				auth.ComparePasswordAndHash("Password1!", u.PasswordHash) == nil
		})).Return(newTestUser(t, "new@x.com", "Password1!"), nil)

		manager := newTestManager(users, newMemoryTokenStore())

		user, err := manager.Signup(ctx, input)

		require.NoError(t, err)
		assert.Equal(t, "new@x.com", user.Email)
		users.AssertExpectations(t)
	})

	t.Run("rejects password confirmation mismatch", func(t *testing.T) {
		manager := newTestManager(&MockUserStore{}, newMemoryTokenStore())

		bad := input
		bad.PasswordConfirm = "different"

		_, err := manager.Signup(ctx, bad)
		assert.ErrorIs(t, err, auth.ErrPasswordMismatch)
	})

	t.Run("rejects missing agreements", func(t *testing.T) {
		manager := newTestManager(&MockUserStore{}, newMemoryTokenStore())

		bad := input
		bad.PrivacyAgreed = false

		_, err := manager.Signup(ctx, bad)
		assert.ErrorIs(t, err, auth.ErrTermsNotAgreed)
	})

	t.Run("rejects a taken email", func(t *testing.T) {
		users := &MockUserStore{}
		users.On("ExistsByEmail", mock.Anything, "new@x.com").Return(true, nil)

		manager := newTestManager(users, newMemoryTokenStore())

		_, err := manager.Signup(ctx, input)
		assert.ErrorIs(t, err, auth.ErrEmailTaken)
	})

	t.Run("keeps an explicit name", func(t *testing.T) {
		users := &MockUserStore{}
		users.On("ExistsByEmail", mock.Anything, "new@x.com").Return(false, nil)
		users.On("Register", mock.Anything, mock.MatchedBy(func(u *auth.User) bool {
			return u.Name == "Jane Doe"
		})).Return(newTestUser(t, "new@x.com", "Password1!"), nil)

		manager := newTestManager(users, newMemoryTokenStore())

		named := input
		named.Name = "Jane Doe"

		_, err := manager.Signup(ctx, named)
		require.NoError(t, err)
		users.AssertExpectations(t)
	})
}

func TestSessionManager_PasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("forgot password issues a token for a known account", func(t *testing.T) {
		user := newTestUser(t, "a@x.com", "old password")
		users := &MockUserStore{}
		users.On("GetByEmail", mock.Anything, "a@x.com").Return(user, nil)

		manager := newTestManager(users, newMemoryTokenStore())

		token, err := manager.ForgotPassword(ctx, "a@x.com")

		require.NoError(t, err)
		assert.NotEmpty(t, token)
	})

	t.Run("forgot password reports unknown accounts", func(t *testing.T) {
		users := &MockUserStore{}
		users.On("GetByEmail", mock.Anything, "nobody@x.com").Return(nil, auth.ErrUserNotFound)

		manager := newTestManager(users, newMemoryTokenStore())

		_, err := manager.ForgotPassword(ctx, "nobody@x.com")
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})

	t.Run("reset replaces the password", func(t *testing.T) {
		user := newTestUser(t, "a@x.com", "old password")
		users := &MockUserStore{}
		users.On("GetByEmail", mock.Anything, "a@x.com").Return(user, nil)
		users.On("UpdatePassword", mock.Anything, user.ID, mock.MatchedBy(func(hash string) bool {
			return auth.ComparePasswordAndHash("NewPass1!", hash) == nil
		})).Return(nil)

		manager := newTestManager(users, newMemoryTokenStore())

		token, err := manager.ForgotPassword(ctx, "a@x.com")
		require.NoError(t, err)

		require.NoError(t, manager.ResetPassword(ctx, token, "NewPass1!", "NewPass1!"))
		users.AssertExpectations(t)
	})

	t.Run("reset rejects confirmation mismatch", func(t *testing.T) {
		manager := newTestManager(&MockUserStore{}, newMemoryTokenStore())

		err := manager.ResetPassword(ctx, "whatever", "NewPass1!", "Other1!")
		assert.ErrorIs(t, err, auth.ErrPasswordMismatch)
	})

	t.Run("reset rejects invalid tokens", func(t *testing.T) {
		manager := newTestManager(&MockUserStore{}, newMemoryTokenStore())

		err := manager.ResetPassword(ctx, "garbage", "NewPass1!", "NewPass1!")
		assert.Error(t, err)
		assert.True(t, auth.IsMalformedError(err))
	})

	t.Run("reset leaves the live refresh session untouched", func(t *testing.T) {
		user := newTestUser(t, "a@x.com", "old password")
		users := &MockUserStore{}
		users.On("GetByEmail", mock.Anything, "a@x.com").Return(user, nil)
		users.On("UpdatePassword", mock.Anything, user.ID, mock.Anything).Return(nil)

		store := newMemoryTokenStore()
		manager := newTestManager(users, store)

		login, err := manager.Login(ctx, "a@x.com", "old password")
		require.NoError(t, err)

		token, err := manager.ForgotPassword(ctx, "a@x.com")
		require.NoError(t, err)
		require.NoError(t, manager.ResetPassword(ctx, token, "NewPass1!", "NewPass1!"))

		_, err = manager.Refresh(ctx, login.RefreshToken)
		assert.NoError(t, err)
	})
}

// Wires the manager to the real sqlite-backed repository so the error
// classes crossing the store boundary are the ones production sees,
// not mock stand-ins.
func TestSessionManager_WithUsersRepository(t *testing.T) {
	ctx := context.Background()

	repo := setupUsersRepo(t)
	manager := newTestManager(repo, newMemoryTokenStore())

	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)

	_, err = repo.Register(ctx, &auth.User{
		Email:        "a@x.com",
		PasswordHash: hash,
		Name:         "Seeded",
		Type:         auth.UserTypeActor,
	})
	require.NoError(t, err)

	t.Run("login with an unknown email is invalid credentials", func(t *testing.T) {
		_, err := manager.Login(ctx, "nobody@x.com", "anything")
		assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
	})

	t.Run("login with the seeded credentials succeeds", func(t *testing.T) {
		result, err := manager.Login(ctx, "a@x.com", "correct horse")
		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
	})

	t.Run("forgot password for an unknown email is not found", func(t *testing.T) {
		_, err := manager.ForgotPassword(ctx, "nobody@x.com")
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})

	t.Run("deactivating an unknown account is not found", func(t *testing.T) {
		err := manager.DeactivateAccount(ctx, uuid.New())
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})
}

func TestSessionManager_DeactivateAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("deactivates and revokes the session", func(t *testing.T) {
		user := newTestUser(t, "a@x.com", "correct horse")
		users := &MockUserStore{}
		users.On("GetByEmail", mock.Anything, "a@x.com").Return(user, nil)
		users.On("Deactivate", mock.Anything, user.ID).Return(nil)

		store := newMemoryTokenStore()
		manager := newTestManager(users, store)

		login, err := manager.Login(ctx, "a@x.com", "correct horse")
		require.NoError(t, err)

		require.NoError(t, manager.DeactivateAccount(ctx, user.ID))

		_, err = manager.Refresh(ctx, login.RefreshToken)
		assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
		users.AssertExpectations(t)
	})

	t.Run("reports unknown accounts", func(t *testing.T) {
		users := &MockUserStore{}
		userID := uuid.New()
		users.On("Deactivate", mock.Anything, userID).Return(auth.ErrUserNotFound)

		manager := newTestManager(users, newMemoryTokenStore())

		err := manager.DeactivateAccount(ctx, userID)
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})
}
