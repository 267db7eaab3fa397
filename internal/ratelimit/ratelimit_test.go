package ratelimit

import (
	"context"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/mealplan/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLimiterDisabledWithoutRedis(t *testing.T) {
	limiter := NewLimiter(Params{
		Policies: config.NewStaticPolicyHolder(config.DefaultSchedulePolicy()),
		Log:      zap.NewNop(),
	})
	require.False(t, limiter.Enabled())

	for i := 0; i < 100; i++ {
		res, err := limiter.AllowReschedule(context.Background(), "42")
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}

	release, err := limiter.LockPaymentConfirmation(context.Background(), "7")
	require.NoError(t, err)
	release()
}

func TestNilLimiterAllows(t *testing.T) {
	var limiter *Limiter
	res, err := limiter.AllowReschedule(context.Background(), "42")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestNilPrimitives(t *testing.T) {
	var bucket *TokenBucket
	_, err := bucket.Allow(context.Background(), "k", 1, 1)
	assert.ErrorIs(t, err, errBucketNotConfigured)

	var locker *Locker
	lease, err := locker.Acquire(context.Background(), "k", time.Second)
	assert.ErrorIs(t, err, errLockNotConfigured)
	assert.NotErrorIs(t, err, ErrLockHeld)
	assert.Nil(t, lease)
	assert.NoError(t, lease.Release(context.Background()))
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 5*time.Second, retryAfter(0, 0.2))
	assert.Equal(t, 500*time.Millisecond, retryAfter(0.5, 1))
	assert.Equal(t, time.Duration(0), retryAfter(1, 1))
	assert.Equal(t, time.Duration(0), retryAfter(0, 0))
}

func TestBucketTTL(t *testing.T) {
	assert.Equal(t, 50*time.Second, bucketTTL(0.2, 5))
	assert.Equal(t, time.Second, bucketTTL(100, 1))
	assert.Equal(t, time.Second, bucketTTL(0, 0))
}

func TestLockFailsOpenWhenRedisUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewLimiter(Params{
		Client:   client,
		Policies: config.NewStaticPolicyHolder(config.DefaultSchedulePolicy()),
		Log:      zap.NewNop(),
	})
	require.True(t, limiter.Enabled())

	_, err := limiter.locker.Acquire(context.Background(), "k", time.Second)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLockHeld)

	release, err := limiter.LockPaymentConfirmation(context.Background(), "7")
	require.NoError(t, err)
	release()
}
