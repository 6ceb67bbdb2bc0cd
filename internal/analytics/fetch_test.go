package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchChunkedPartitionsIntoBoundedBatches(t *testing.T) {
	keys := make([]int64, 0, 1050)
	for i := int64(0); i < 1050; i++ {
		keys = append(keys, i)
	}

	var mu sync.Mutex
	var batchSizes []int

	rows, err := FetchChunked(context.Background(), keys, FetchOptions{BatchSize: 500},
		func(ctx context.Context, batch []int64) ([]int64, error) {
			mu.Lock()
			batchSizes = append(batchSizes, len(batch))
			mu.Unlock()
			return batch, nil
		})
	require.NoError(t, err)

	assert.Equal(t, []int{500, 500, 50}, batchSizes)
	// Merged results preserve key order across batches.
	require.Len(t, rows, 1050)
	assert.Equal(t, keys, rows)
}

func TestFetchChunkedRetriesTransientFailures(t *testing.T) {
	keys := []int64{1, 2, 3}
	attempts := 0

	rows, err := FetchChunked(context.Background(), keys,
		FetchOptions{RetryAttempts: 3, RetryBackoff: time.Millisecond},
		func(ctx context.Context, batch []int64) ([]string, error) {
			attempts++
			if attempts < 3 {
				return nil, errors.New("connection reset")
			}
			return []string{"ok"}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []string{"ok"}, rows)
}

func TestFetchChunkedFailsWholeCallNamingTheBatch(t *testing.T) {
	keys := make([]int64, 30)
	for i := range keys {
		keys[i] = int64(i)
	}

	rows, err := FetchChunked(context.Background(), keys,
		FetchOptions{BatchSize: 10, RetryAttempts: 2, RetryBackoff: time.Millisecond},
		func(ctx context.Context, batch []int64) ([]int64, error) {
			if batch[0] == 10 {
				return nil, errors.New("store unavailable")
			}
			return batch, nil
		})

	require.Error(t, err)
	assert.Equal(t, KindRetrieval, KindOf(err))
	assert.Contains(t, err.Error(), "batch 1")
	// No partial results are ever returned.
	assert.Nil(t, rows)
}

func TestFetchChunkedEmptyKeySet(t *testing.T) {
	called := false
	rows, err := FetchChunked(context.Background(), nil, FetchOptions{},
		func(ctx context.Context, batch []int64) ([]int64, error) {
			called = true
			return nil, nil
		})
	require.NoError(t, err)
	assert.Nil(t, rows)
	assert.False(t, called)
}

func TestFetchChunkedHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FetchChunked(ctx, []int64{1, 2, 3}, FetchOptions{},
		func(ctx context.Context, batch []int64) ([]int64, error) {
			return batch, nil
		})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchChunkedBoundedConcurrency(t *testing.T) {
	keys := make([]int64, 40)
	for i := range keys {
		keys[i] = int64(i)
	}

	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0

	_, err := FetchChunked(context.Background(), keys,
		FetchOptions{BatchSize: 5, Concurrency: 2},
		func(ctx context.Context, batch []int64) ([]int64, error) {
			mu.Lock()
			inFlight++
			if inFlight > maxInFlight {
				maxInFlight = inFlight
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			inFlight--
			mu.Unlock()
			return batch, nil
		})
	require.NoError(t, err)
	assert.LessOrEqual(t, maxInFlight, 2)
	assert.GreaterOrEqual(t, maxInFlight, 1)
}
