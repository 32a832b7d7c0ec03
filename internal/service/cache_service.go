package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/seam-events-api/internal/models"
	appErrors "github.com/noah-isme/seam-events-api/pkg/errors"
)

// The event list is cached as one snapshot; filters run on the copy.
const (
	eventsCacheKey     = "events:all"
	eventsCachePattern = "events:*"
)

// CacheRepository reads and writes JSON snapshots by key.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService keeps a read-through copy of the event list. A nil or
// disabled service always misses, so callers never branch on it.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService builds the event list cache. ttl defaults to one minute.
func NewCacheService(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Events returns the cached event list. Repository errors count as a miss.
func (s *CacheService) Events(ctx context.Context) ([]models.Event, bool) {
	if !s.Enabled() {
		return nil, false
	}
	var events []models.Event
	start := time.Now()
	err := s.repo.Get(ctx, eventsCacheKey, &events)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("event cache read failed", zap.String("key", eventsCacheKey), zap.Error(err))
		}
		return nil, false
	}
	return events, true
}

// StoreEvents replaces the cached snapshot.
func (s *CacheService) StoreEvents(ctx context.Context, events []models.Event) {
	if !s.Enabled() {
		return
	}
	start := time.Now()
	err := s.repo.Set(ctx, eventsCacheKey, events, s.ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("event cache write failed", zap.String("key", eventsCacheKey), zap.Error(err))
	}
}

// InvalidateEvents drops every cached event snapshot. Called after any
// command that changes events or their attendees.
func (s *CacheService) InvalidateEvents(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.DeleteByPattern(ctx, eventsCachePattern); err != nil {
		s.logger.Warn("event cache invalidate failed", zap.String("pattern", eventsCachePattern), zap.Error(err))
	}
}
