package auth_test

import (
	"context"
	"sync"
	"time"

	"github.com/castlink/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockLogger implements auth.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// nopLogger is a quiet Logger for tests that do not assert on logging
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// MockUserStore implements auth.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	var user *auth.User
	if v := args.Get(0); v != nil {
		user = v.(*auth.User)
	}
	return user, args.Error(1)
}

func (m *MockUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserStore) Register(ctx context.Context, user *auth.User) (*auth.User, error) {
	args := m.Called(ctx, user)
	var record *auth.User
	if v := args.Get(0); v != nil {
		record = v.(*auth.User)
	}
	return record, args.Error(1)
}

func (m *MockUserStore) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUserStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// memoryTokenStore is an in-memory auth.RefreshTokenStore with the
// same single-record-per-user and passive TTL semantics as the Redis
// implementation. The clock is injectable so tests can age records.
type memoryTokenStore struct {
	mu      sync.Mutex
	now     func() time.Time
	records map[uuid.UUID]memoryRecord
	byToken map[string]uuid.UUID
}

type memoryRecord struct {
	email     string
	token     string
	expiresAt time.Time
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{
		now:     time.Now,
		records: map[uuid.UUID]memoryRecord{},
		byToken: map[string]uuid.UUID{},
	}
}

func (s *memoryTokenStore) Put(ctx context.Context, userID uuid.UUID, email, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.records[userID]; ok {
		delete(s.byToken, old.token)
	}

	s.records[userID] = memoryRecord{
		email:     email,
		token:     token,
		expiresAt: s.now().Add(ttl),
	}
	s.byToken[token] = userID

	return nil
}

func (s *memoryTokenStore) FindByToken(ctx context.Context, token string) (*auth.RefreshTokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok := s.byToken[token]
	if !ok {
		return nil, auth.ErrSessionNotFound
	}

	record, ok := s.records[userID]
	if !ok || record.token != token {
		return nil, auth.ErrSessionNotFound
	}

	if s.now().After(record.expiresAt) {
		delete(s.byToken, token)
		delete(s.records, userID)
		return nil, auth.ErrSessionNotFound
	}

	return &auth.RefreshTokenRecord{
		UserID: userID,
		Email:  record.email,
		Token:  record.token,
	}, nil
}

func (s *memoryTokenStore) DeleteByToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok := s.byToken[token]
	if !ok {
		return nil
	}

	delete(s.byToken, token)
	if record, ok := s.records[userID]; ok && record.token == token {
		delete(s.records, userID)
	}

	return nil
}

func (s *memoryTokenStore) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.records[userID]; ok {
		delete(s.byToken, record.token)
		delete(s.records, userID)
	}

	return nil
}
