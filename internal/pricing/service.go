package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const settingsCacheKey = "settings:latest"

// DefaultSettings applies until an admin writes the first settings row.
var DefaultSettings = Settings{TaxPercentage: 7.5, ShippingHandling: 10}

// Service reads and writes the versioned store settings. Reads go through a
// Redis cache that is invalidated on every write.
type Service struct {
	repo     Repository
	cache    *redis.Client
	cacheTTL time.Duration
}

func NewService(repo Repository, cache *redis.Client, cacheTTL time.Duration) *Service {
	return &Service{repo: repo, cache: cache, cacheTTL: cacheTTL}
}

// Current returns the authoritative settings used by every pricing calculation.
func (s *Service) Current(ctx context.Context) (Settings, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, settingsCacheKey).Bytes()
		if err == nil {
			var cached Settings
			if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
				return cached, nil
			}
		}
	}

	latest, err := s.repo.Latest(ctx)
	if errors.Is(err, ErrNoSettings) {
		return DefaultSettings, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	s.fillCache(ctx, latest)
	return latest, nil
}

// Update appends a new settings version and drops the cached copy.
func (s *Service) Update(ctx context.Context, req UpdateSettingsRequest, updatedBy string) (Settings, error) {
	if !validRate(req.TaxPercentage) || !validRate(req.ShippingHandling) {
		return Settings{}, ErrInvalidSettings
	}
	saved, err := s.repo.Append(ctx, Settings{
		TaxPercentage:    req.TaxPercentage,
		ShippingHandling: req.ShippingHandling,
		UpdatedBy:        updatedBy,
	})
	if err != nil {
		return Settings{}, fmt.Errorf("append settings: %w", err)
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, settingsCacheKey).Err()
	}
	return saved, nil
}

// Quote prices a subtotal using the current settings.
func (s *Service) Quote(ctx context.Context, subtotal float64) (OrderTotals, error) {
	settings, err := s.Current(ctx)
	if err != nil {
		return OrderTotals{}, err
	}
	return CalculateTotals(subtotal, settings)
}

func (s *Service) fillCache(ctx context.Context, settings Settings) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, settingsCacheKey, raw, s.cacheTTL).Err()
}
