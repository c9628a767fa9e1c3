package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCartNotFound indicates a missing or expired cart token.
var ErrCartNotFound = errors.New("cart: not found")

const cartKeyPrefix = "cart:"

// Store keeps carts in Redis with a sliding TTL.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) Save(ctx context.Context, c Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("cart: marshal: %w", err)
	}
	if err := s.client.Set(ctx, cartKeyPrefix+c.Token, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("cart: save: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, token string) (Cart, error) {
	raw, err := s.client.Get(ctx, cartKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return Cart{}, ErrCartNotFound
	}
	if err != nil {
		return Cart{}, fmt.Errorf("cart: load: %w", err)
	}
	var c Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cart{}, fmt.Errorf("cart: unmarshal: %w", err)
	}
	return c, nil
}

func (s *Store) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, cartKeyPrefix+token).Err()
}
