package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/seam-events-api/internal/models"
)

type failingCacheRepo struct{}

func (failingCacheRepo) Get(context.Context, string, interface{}) error {
	return errors.New("connection refused")
}

func (failingCacheRepo) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("connection refused")
}

func (failingCacheRepo) DeleteByPattern(context.Context, string) error {
	return errors.New("connection refused")
}

func TestEventCacheRoundTrip(t *testing.T) {
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, NewMetricsService(), 0, nil, true)
	ctx := context.Background()

	_, hit := cache.Events(ctx)
	assert.False(t, hit)

	cache.StoreEvents(ctx, []models.Event{{ID: "e_1", Title: "Chess"}})
	events, hit := cache.Events(ctx)
	require.True(t, hit)
	require.Len(t, events, 1)
	assert.Equal(t, "Chess", events[0].Title)

	cache.InvalidateEvents(ctx)
	_, hit = cache.Events(ctx)
	assert.False(t, hit)
	assert.Equal(t, 1, repo.deletes)
}

func TestEventCacheDisabled(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryCacheRepo()

	for _, cache := range []*CacheService{nil, NewCacheService(repo, nil, time.Minute, nil, false)} {
		assert.False(t, cache.Enabled())
		cache.StoreEvents(ctx, []models.Event{{ID: "e_1"}})
		cache.InvalidateEvents(ctx)
		_, hit := cache.Events(ctx)
		assert.False(t, hit)
	}
	assert.Empty(t, repo.entries)
	assert.Zero(t, repo.gets)
}

func TestEventCacheRepositoryFailureIsMiss(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cache := NewCacheService(failingCacheRepo{}, nil, time.Minute, zap.New(core), true)
	ctx := context.Background()

	_, hit := cache.Events(ctx)
	assert.False(t, hit)
	cache.StoreEvents(ctx, nil)
	cache.InvalidateEvents(ctx)

	assert.Equal(t, 1, logs.FilterMessage("event cache read failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("event cache write failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("event cache invalidate failed").Len())
}
