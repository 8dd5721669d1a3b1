package auth

import (
	"context"
	"encoding/json"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	refreshUserKeyPrefix  = "auth:refresh:user:"
	refreshTokenKeyPrefix = "auth:refresh:token:"
)

// ErrSessionNotFound is returned by the store when no live record
// matches the lookup. TTL eviction and explicit deletes are
// indistinguishable from each other here.
var ErrSessionNotFound = errors.New("refresh session not found", errors.CategoryNotFound)

// RedisTokenStore keeps the single active refresh session per user in
// Redis. Two keys per record, both expiring with the session TTL:
//
//	auth:refresh:user:<userID>  -> JSON {token, email}
//	auth:refresh:token:<token>  -> <userID>
//
// The token key is a secondary index so rotation can resolve a
// presented token without scanning.
type RedisTokenStore struct {
	client *redis.Client
	logger Logger
}

// NewRedisTokenStore creates a RefreshTokenStore backed by the given client.
func NewRedisTokenStore(client *redis.Client, logger Logger) *RedisTokenStore {
	if logger == nil {
		logger = defLogger{}
	}
	return &RedisTokenStore{
		client: client,
		logger: logger,
	}
}

var _ RefreshTokenStore = (*RedisTokenStore)(nil)

type refreshPayload struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// Put stores the record for userID, unconditionally replacing any
// previous session. The stale token index is removed first so the old
// token cannot resolve once the new record lands.
func (s *RedisTokenStore) Put(ctx context.Context, userID uuid.UUID, email, token string, ttl time.Duration) error {
	userKey := refreshUserKeyPrefix + userID.String()

	prev, err := s.client.Get(ctx, userKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return errors.Wrap(err, errors.CategoryOperation, "refresh store read failed")
	}

	if err == nil {
		var old refreshPayload
		if jerr := json.Unmarshal([]byte(prev), &old); jerr == nil && old.Token != "" {
			if derr := s.client.Del(ctx, refreshTokenKeyPrefix+old.Token).Err(); derr != nil {
				s.logger.Error("refresh store failed to drop stale token index for user %s: %v", userID, derr)
			}
		}
	}

	raw, err := json.Marshal(refreshPayload{Token: token, Email: email})
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "refresh record encode failed")
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, userKey, raw, ttl)
	pipe.Set(ctx, refreshTokenKeyPrefix+token, userID.String(), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "refresh store write failed")
	}

	return nil
}

// FindByToken resolves a presented token to its live session record.
// A token whose index survives but whose primary record was replaced
// is treated as not found.
func (s *RedisTokenStore) FindByToken(ctx context.Context, token string) (*RefreshTokenRecord, error) {
	rawID, err := s.client.Get(ctx, refreshTokenKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryOperation, "refresh store read failed")
	}

	userID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	raw, err := s.client.Get(ctx, refreshUserKeyPrefix+rawID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryOperation, "refresh store read failed")
	}

	var payload refreshPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "refresh record decode failed")
	}

	if payload.Token != token {
		return nil, ErrSessionNotFound
	}

	return &RefreshTokenRecord{
		UserID: userID,
		Email:  payload.Email,
		Token:  payload.Token,
	}, nil
}

// DeleteByToken removes the record owning the token. Deleting an
// unknown token is not an error.
func (s *RedisTokenStore) DeleteByToken(ctx context.Context, token string) error {
	rawID, err := s.client.Get(ctx, refreshTokenKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return errors.Wrap(err, errors.CategoryOperation, "refresh store read failed")
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, refreshTokenKeyPrefix+token)
	pipe.Del(ctx, refreshUserKeyPrefix+rawID)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "refresh store delete failed")
	}

	return nil
}

// DeleteByUserID removes the user's record and its token index.
// Idempotent.
func (s *RedisTokenStore) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	userKey := refreshUserKeyPrefix + userID.String()

	raw, err := s.client.Get(ctx, userKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return errors.Wrap(err, errors.CategoryOperation, "refresh store read failed")
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, userKey)

	var payload refreshPayload
	if jerr := json.Unmarshal([]byte(raw), &payload); jerr == nil && payload.Token != "" {
		pipe.Del(ctx, refreshTokenKeyPrefix+payload.Token)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "refresh store delete failed")
	}

	return nil
}
