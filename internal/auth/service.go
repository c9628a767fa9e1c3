// Package auth implements the single-credential admin guard. There is no
// user table: the store has one admin account configured via environment.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials indicates a failed login attempt.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrTokenUnknown indicates a missing or expired session token.
	ErrTokenUnknown = errors.New("auth: unknown token")
)

const tokenKeyPrefix = "admin_session:"

// Service validates admin credentials and manages bearer tokens in Redis.
type Service struct {
	redis        *redis.Client
	user         string
	passwordHash string
	ttl          time.Duration
}

func NewService(redisClient *redis.Client, user, passwordHash string, ttl time.Duration) *Service {
	return &Service{redis: redisClient, user: user, passwordHash: passwordHash, ttl: ttl}
}

// Login checks the credential pair and issues a bearer token on success.
func (s *Service) Login(ctx context.Context, user, password string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(user), []byte(s.user)) != 1 {
		// Burn the same hashing cost for unknown users.
		_ = bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password))
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := uuid.NewString()
	if err := s.redis.Set(ctx, tokenKeyPrefix+token, s.user, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("auth: store token: %w", err)
	}
	return token, nil
}

// Verify resolves a bearer token to the admin user name.
func (s *Service) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrTokenUnknown
	}
	user, err := s.redis.Get(ctx, tokenKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenUnknown
	}
	if err != nil {
		return "", fmt.Errorf("auth: load token: %w", err)
	}
	return user, nil
}

// Logout revokes a bearer token.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.redis.Del(ctx, tokenKeyPrefix+token).Err()
}
