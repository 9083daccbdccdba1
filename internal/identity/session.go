package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionPrefix = "session:"

// SessionStore wraps Redis for access-token sessions. A token is only
// honoured while its session id is present here.
type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl}
}

// Create stores a new session mapping sessionID -> userID.
func (s *SessionStore) Create(ctx context.Context, userID string) (string, error) {
	sid := uuid.New().String()
	err := s.rdb.Set(ctx, sessionPrefix+sid, userID, s.ttl).Err()
	return sid, err
}

// Get returns the userID for a session, or "" if not found / expired.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (string, error) {
	val, err := s.rdb.Get(ctx, sessionPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, sessionPrefix+sessionID).Err()
}
