package requests

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrChallengeUnknown means the token was never issued, expired, or was
// already consumed. Callers report it to the client as a generic failure.
var ErrChallengeUnknown = errors.New("requests: challenge unknown")

// ChallengeStore issues single-use submission tokens backed by Redis.
// The stored value is the issue time, so the consumer can verify that a
// minimum delay passed between fetching the form and submitting it.
type ChallengeStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewChallengeStore(rdb *redis.Client, ttl time.Duration) *ChallengeStore {
	return &ChallengeStore{rdb: rdb, ttl: ttl}
}

func challengeKey(token string) string {
	return "challenge:" + token
}

// Issue creates a fresh token valid for the store's TTL.
func (s *ChallengeStore) Issue(ctx context.Context) (string, error) {
	token := uuid.NewString()
	issuedAt := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if err := s.rdb.Set(ctx, challengeKey(token), issuedAt, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("requests: issue challenge: %w", err)
	}
	return token, nil
}

// Consume atomically removes the token and returns when it was issued.
// A token can be consumed exactly once.
func (s *ChallengeStore) Consume(ctx context.Context, token string) (time.Time, error) {
	val, err := s.rdb.GetDel(ctx, challengeKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, ErrChallengeUnknown
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("requests: consume challenge: %w", err)
	}
	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, ErrChallengeUnknown
	}
	return time.UnixMilli(ms), nil
}
