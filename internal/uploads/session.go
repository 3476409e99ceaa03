package uploads

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/support-desk/internal/domain"
)

// SessionStore tracks which uploaded-but-unclaimed stored objects belong to
// which uploader. An object must be present in the caller's session before a
// reply may claim it. Entries expire with the session TTL; expiry is the
// bound on the accepted orphan leak.
type SessionStore interface {
	Add(ctx context.Context, subject domain.SubjectType, ownerID, objectID string) error
	Contains(ctx context.Context, subject domain.SubjectType, ownerID, objectID string) (bool, error)
	Release(ctx context.Context, subject domain.SubjectType, ownerID, objectID string) error
}

type redisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore builds the Redis-backed session store.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) SessionStore {
	return &redisSessionStore{client: client, ttl: ttl}
}

func sessionKey(subject domain.SubjectType, ownerID string) string {
	return fmt.Sprintf("upload_session:%s:%s", subject, ownerID)
}

func (s *redisSessionStore) Add(ctx context.Context, subject domain.SubjectType, ownerID, objectID string) error {
	key := sessionKey(subject, ownerID)
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, key, objectID)
	pipe.Expire(ctx, key, s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisSessionStore) Contains(ctx context.Context, subject domain.SubjectType, ownerID, objectID string) (bool, error) {
	return s.client.SIsMember(ctx, sessionKey(subject, ownerID), objectID).Result()
}

func (s *redisSessionStore) Release(ctx context.Context, subject domain.SubjectType, ownerID, objectID string) error {
	return s.client.SRem(ctx, sessionKey(subject, ownerID), objectID).Err()
}
