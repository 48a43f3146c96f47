package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPublishSucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := retryPublish(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("连接中断")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPublishExhaustsAttempts(t *testing.T) {
	wanted := errors.New("broker不可达")
	calls := 0
	err := retryPublish(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return wanted
	})

	require.ErrorIs(t, err, wanted)
	assert.Equal(t, 3, calls)
}

func TestRetryPublishFirstAttemptSucceeds(t *testing.T) {
	calls := 0
	err := retryPublish(context.Background(), 5, time.Hour, func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryPublishStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := retryPublish(ctx, 3, time.Hour, func() error {
		calls++
		return errors.New("连接中断")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "取消后不应再尝试")
}

func TestRetryPublishNormalizesAttempts(t *testing.T) {
	calls := 0
	err := retryPublish(context.Background(), 0, time.Millisecond, func() error {
		calls++
		return errors.New("失败")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "attempts至少为1")
}
