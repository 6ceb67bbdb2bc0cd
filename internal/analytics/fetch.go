// internal/analytics/fetch.go
package analytics

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultBatchSize     = 500
	maxBatchSize         = 1000
	defaultRetryAttempts = 3
	defaultRetryBackoff  = 200 * time.Millisecond
)

// FetchOptions tunes chunked retrieval. Zero values fall back to defaults;
// BatchDelay is a throttling knob only and never affects correctness.
type FetchOptions struct {
	BatchSize     int
	Concurrency   int
	RetryAttempts int
	RetryBackoff  time.Duration
	BatchDelay    time.Duration
}

func (o FetchOptions) normalized() FetchOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}
	if o.BatchSize > maxBatchSize {
		o.BatchSize = maxBatchSize
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = defaultRetryAttempts
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = defaultRetryBackoff
	}
	return o
}

// BatchFetchFunc retrieves the rows for one bounded batch of keys.
type BatchFetchFunc[K comparable, R any] func(ctx context.Context, keys []K) ([]R, error)

// FetchChunked partitions keys into bounded batches and retrieves each batch
// through fn, retrying transient failures with increasing backoff. Results
// are all-or-nothing: if any batch exhausts its retry budget the whole call
// fails with an error naming that batch, and nothing is returned.
func FetchChunked[K comparable, R any](ctx context.Context, keys []K, opts FetchOptions, fn BatchFetchFunc[K, R]) ([]R, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	opts = opts.normalized()

	batches := make([][]K, 0, (len(keys)+opts.BatchSize-1)/opts.BatchSize)
	for start := 0; start < len(keys); start += opts.BatchSize {
		end := start + opts.BatchSize
		if end > len(keys) {
			end = len(keys)
		}
		batches = append(batches, keys[start:end])
	}

	results := make([][]R, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			rows, err := fetchBatch(gctx, i, batch, opts, fn)
			if err != nil {
				return err
			}
			results[i] = rows
			if opts.BatchDelay > 0 {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case <-time.After(opts.BatchDelay):
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []R
	for _, rows := range results {
		merged = append(merged, rows...)
	}
	return merged, nil
}

func fetchBatch[K comparable, R any](ctx context.Context, index int, keys []K, opts FetchOptions, fn BatchFetchFunc[K, R]) ([]R, error) {
	var lastErr error
	for attempt := 1; attempt <= opts.RetryAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := fn(ctx, keys)
		if err == nil {
			return rows, nil
		}
		lastErr = err

		if attempt < opts.RetryAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(opts.RetryBackoff * time.Duration(attempt)):
			}
		}
	}

	return nil, E(KindRetrieval, fmt.Errorf("batch %d (%d keys) failed after %d attempts: %w",
		index, len(keys), opts.RetryAttempts, lastErr))
}
