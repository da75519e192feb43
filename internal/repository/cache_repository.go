package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/weprep-api/internal/models"
	appErrors "github.com/noah-isme/weprep-api/pkg/errors"
)

const courseKeyPrefix = "course:"

// CourseCacheKey returns the redis key of a cached course.
func CourseCacheKey(id models.CourseID) string {
	return courseKeyPrefix + id.String()
}

// CacheRepository stores course read models in Redis. A nil client turns every call into a miss or a no-op.
type CacheRepository struct {
	client redis.Cmdable
	logger *zap.Logger
}

// NewCacheRepository constructs a cache repository.
func NewCacheRepository(client redis.Cmdable, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, logger: logger}
}

// GetCourse returns the cached course or ErrCacheMiss.
func (r *CacheRepository) GetCourse(ctx context.Context, id models.CourseID) (*models.Course, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}
	key := CourseCacheKey(id)
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	var course models.Course
	if err := json.Unmarshal(raw, &course); err != nil {
		return nil, fmt.Errorf("unmarshal cached course %s: %w", key, err)
	}
	return &course, nil
}

// SetCourse caches the course for ttl.
func (r *CacheRepository) SetCourse(ctx context.Context, course *models.Course, ttl time.Duration) error {
	if r.client == nil || course == nil {
		return nil
	}
	key := CourseCacheKey(course.ID)
	payload, err := json.Marshal(course)
	if err != nil {
		return fmt.Errorf("marshal course for %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// InvalidateCourse drops the cached course.
func (r *CacheRepository) InvalidateCourse(ctx context.Context, id models.CourseID) error {
	if r.client == nil {
		return nil
	}
	key := CourseCacheKey(id)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	r.logger.Debug("course cache invalidated", zap.String("key", key))
	return nil
}
