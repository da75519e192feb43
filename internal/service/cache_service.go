package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/weprep-api/internal/models"
	appErrors "github.com/noah-isme/weprep-api/pkg/errors"
)

// CourseCacheRepository abstracts persistence for cached courses.
type CourseCacheRepository interface {
	GetCourse(ctx context.Context, id models.CourseID) (*models.Course, error)
	SetCourse(ctx context.Context, course *models.Course, ttl time.Duration) error
	InvalidateCourse(ctx context.Context, id models.CourseID) error
}

// CacheService orchestrates course cache operations and related metrics. Cache failures never fail a request.
type CacheService struct {
	repo    CourseCacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CourseCacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// GetCourse returns the cached course, or nil on a miss.
func (s *CacheService) GetCourse(ctx context.Context, id models.CourseID) *models.Course {
	if !s.Enabled() {
		return nil
	}
	start := time.Now()
	course, err := s.repo.GetCourse(ctx, id)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("cache get failed", zap.String("course_id", id.String()), zap.Error(err))
		}
		return nil
	}
	return course
}

// SetCourse stores the course in cache.
func (s *CacheService) SetCourse(ctx context.Context, course *models.Course) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.SetCourse(ctx, course, s.ttl); err != nil {
		s.logger.Warn("cache set failed", zap.String("course_id", course.ID.String()), zap.Error(err))
	}
}

// Invalidate removes the cached course.
func (s *CacheService) Invalidate(ctx context.Context, id models.CourseID) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.InvalidateCourse(ctx, id); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("course_id", id.String()), zap.Error(err))
	}
}
