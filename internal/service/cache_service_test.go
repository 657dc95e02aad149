package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studio-schedule-api/internal/models"
)

type failingCache struct{}

func (failingCache) Get(ctx context.Context, key string, dest interface{}) error {
	return errors.New("redis down")
}

func (failingCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return errors.New("redis down")
}

func (failingCache) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	return 0, errors.New("redis down")
}

func TestCacheServiceRecordsHitsAndMisses(t *testing.T) {
	metrics := NewMetricsService()
	store := newMemoryCache()
	svc := NewCacheService(store, metrics, 0, nil, true)
	ctx := context.Background()

	var week models.Week
	hit, err := svc.Get(ctx, "schedule:week:active:all", &week)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "schedule:week:active:all", &models.Week{IncludeInactive: true}, 0))
	hit, err = svc.Get(ctx, "schedule:week:active:all", &week)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.True(t, week.IncludeInactive)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(1), snapshot.CacheMisses)
	assert.InDelta(t, 0.5, snapshot.CacheHitRatio, 0.0001)
}

func TestCacheServiceDisabledAndFailing(t *testing.T) {
	ctx := context.Background()
	disabled := NewCacheService(newMemoryCache(), nil, time.Minute, nil, false)
	assert.False(t, disabled.Enabled())
	hit, err := disabled.Get(ctx, "k", &models.Week{})
	require.NoError(t, err)
	assert.False(t, hit)

	var nilService *CacheService
	assert.False(t, nilService.Enabled())

	failing := NewCacheService(failingCache{}, nil, time.Minute, nil, true)
	_, err = failing.Get(ctx, "k", &models.Week{})
	assert.Error(t, err)
	assert.Error(t, failing.Set(ctx, "k", &models.Week{}, 0))
	assert.Error(t, failing.Invalidate(ctx, "schedule:*"))
}
