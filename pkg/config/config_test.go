package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "weprep.course-events", cfg.Kafka.EventsTopic)
	assert.Equal(t, 5, cfg.Kafka.HandlerRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Kafka.RetryBackoff)
	assert.Equal(t, 5*time.Minute, cfg.Cache.CourseTTL)
	assert.False(t, cfg.Database.AutoMigrate)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("EVENTS_RETRY_DELAY", "250ms")
	t.Setenv("COURSE_CACHE_TTL", "not-a-duration")
	t.Setenv("DB_AUTO_MIGRATE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 250*time.Millisecond, cfg.Events.RetryDelay)
	assert.Equal(t, 5*time.Minute, cfg.Cache.CourseTTL)
	assert.True(t, cfg.Database.AutoMigrate)
}
