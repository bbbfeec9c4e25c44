package infra

import (
	"context"
	"testing"
	"time"

	"access-gateway/middleware/accessctrl/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return server, client
}

func TestRedisStatsStore_RecordAllowed(t *testing.T) {
	server, client := newTestRedis(t)
	s := NewRedisStatsStore(client, WithStatsBucket("none"))

	err := s.Record(context.Background(), domain.StatsEvent{
		Key:     "10.0.0.1",
		Allowed: true,
		Method:  "GET",
		Path:    "/api/messages",
		At:      time.Now(),
	})
	require.NoError(t, err)

	assert.Equal(t, "1", server.HGet("accessctrl:stats:total", "allowed"))
	assert.Equal(t, "1", server.HGet("accessctrl:stats:route", "GET /api/messages:allowed"))
	assert.False(t, server.Exists("accessctrl:stats:reason"))
}

func TestRedisStatsStore_RecordDeniedWithReason(t *testing.T) {
	server, client := newTestRedis(t)
	s := NewRedisStatsStore(client, WithStatsBucket("none"))

	err := s.Record(context.Background(), domain.StatsEvent{
		Key:     "10.0.0.1",
		Allowed: false,
		Reason:  domain.ReasonRateLimited,
		Method:  "POST",
		Path:    "/api/messages",
		At:      time.Now(),
	})
	require.NoError(t, err)

	assert.Equal(t, "1", server.HGet("accessctrl:stats:total", "denied"))
	assert.Equal(t, "1", server.HGet("accessctrl:stats:reason", "rate_limited"))
}

func TestRedisStatsStore_MinuteBucketGetsTTL(t *testing.T) {
	server, client := newTestRedis(t)
	s := NewRedisStatsStore(client, WithStatsTTL(time.Hour))

	at := time.Date(2025, time.March, 10, 12, 34, 56, 0, time.UTC)
	err := s.Record(context.Background(), domain.StatsEvent{Key: "k", Allowed: true, At: at})
	require.NoError(t, err)

	bucketKey := "accessctrl:stats:minute:202503101234"
	assert.Equal(t, "1", server.HGet(bucketKey, "allowed"))
	assert.Greater(t, server.TTL(bucketKey), time.Duration(0))
}

func TestRedisStatsStore_TrackKeys(t *testing.T) {
	server, client := newTestRedis(t)
	s := NewRedisStatsStore(client, WithStatsBucket("none"), WithStatsTrackKeys(true))

	err := s.Record(context.Background(), domain.StatsEvent{Key: "10.0.0.1", Allowed: false, Reason: domain.ReasonInsufficientRole})
	require.NoError(t, err)

	assert.Equal(t, "1", server.HGet("accessctrl:stats:key:10.0.0.1", "denied"))
}

func TestRedisStatsStore_NilClientIsNoop(t *testing.T) {
	var s *RedisStatsStore
	assert.NoError(t, s.Record(context.Background(), domain.StatsEvent{Key: "k"}))
}
