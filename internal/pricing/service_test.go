package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	versions    []Settings
	latestCalls int
}

func (m *mockRepository) Latest(ctx context.Context) (Settings, error) {
	m.latestCalls++
	if len(m.versions) == 0 {
		return Settings{}, ErrNoSettings
	}
	return m.versions[len(m.versions)-1], nil
}

func (m *mockRepository) Append(ctx context.Context, s Settings) (Settings, error) {
	s.Version = int64(len(m.versions) + 1)
	s.CreatedAt = time.Now().UTC()
	m.versions = append(m.versions, s)
	return s, nil
}

func newTestService(t *testing.T) (*Service, *mockRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := &mockRepository{}
	return NewService(repo, client, 10*time.Minute), repo
}

func TestCurrentFallsBackToDefaults(t *testing.T) {
	svc, _ := newTestService(t)

	settings, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings.TaxPercentage, settings.TaxPercentage)
	assert.Equal(t, DefaultSettings.ShippingHandling, settings.ShippingHandling)
}

func TestCurrentCachesRepositoryReads(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, UpdateSettingsRequest{TaxPercentage: 9, ShippingHandling: 12}, "admin")
	require.NoError(t, err)

	first, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9.0, first.TaxPercentage)

	second, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.latestCalls)
}

func TestUpdateInvalidatesCacheAndBumpsVersion(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	v1, err := svc.Update(ctx, UpdateSettingsRequest{TaxPercentage: 9, ShippingHandling: 12}, "admin")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v1.Version)

	// Warm the cache, then write a new version.
	_, err = svc.Current(ctx)
	require.NoError(t, err)

	v2, err := svc.Update(ctx, UpdateSettingsRequest{TaxPercentage: 11, ShippingHandling: 15}, "admin")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v2.Version)

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 11.0, current.TaxPercentage)
	assert.Equal(t, 15.0, current.ShippingHandling)
}

func TestQuoteUsesCurrentSettings(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	totals, err := svc.Quote(ctx, 300)
	require.NoError(t, err)
	assert.InDelta(t, 332.5, totals.Total, 1e-9)

	_, err = svc.Update(ctx, UpdateSettingsRequest{TaxPercentage: 0, ShippingHandling: 0}, "admin")
	require.NoError(t, err)

	totals, err = svc.Quote(ctx, 300)
	require.NoError(t, err)
	assert.InDelta(t, 300.0, totals.Total, 1e-9)
}
