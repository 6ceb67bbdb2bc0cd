package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/demandlens/internal/config"
	"github.com/andresuchdata/demandlens/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	dashboardOverviewKeyPrefix = "insights:dashboard"
	overviewScanBatchSize      = 100
)

// OverviewKey identifies one dashboard computation. The engine itself stays
// pure; only this wrapper layer knows about cached results.
type OverviewKey struct {
	AsOf     time.Time
	Page     int
	PageSize int
}

type OverviewCache interface {
	GetDashboard(ctx context.Context, key OverviewKey) (*domain.DashboardOverview, bool, error)
	SetDashboard(ctx context.Context, key OverviewKey, overview *domain.DashboardOverview) error
	InvalidateAll(ctx context.Context) error
}

type redisOverviewCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopOverviewCache struct{}

func NewOverviewCache(cfg config.CacheConfig) (OverviewCache, error) {
	if !cfg.Enabled {
		return &noopOverviewCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisOverviewCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopOverviewCache() OverviewCache {
	return &noopOverviewCache{}
}

// NewRedisOverviewCache wraps an existing client; used by tests.
func NewRedisOverviewCache(client *redis.Client, ttl time.Duration) OverviewCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &redisOverviewCache{client: client, ttl: ttl}
}

func (c *redisOverviewCache) GetDashboard(ctx context.Context, key OverviewKey) (*domain.DashboardOverview, bool, error) {
	payload, err := c.client.Get(ctx, buildDashboardKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var overview domain.DashboardOverview
	if err := json.Unmarshal(payload, &overview); err != nil {
		return nil, false, fmt.Errorf("decode dashboard overview cache: %w", err)
	}

	return &overview, true, nil
}

func (c *redisOverviewCache) SetDashboard(ctx context.Context, key OverviewKey, overview *domain.DashboardOverview) error {
	payload, err := json.Marshal(overview)
	if err != nil {
		return fmt.Errorf("encode dashboard overview cache: %w", err)
	}

	if err := c.client.Set(ctx, buildDashboardKey(key), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisOverviewCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, dashboardOverviewKeyPrefix, overviewScanBatchSize)
}

func (n *noopOverviewCache) GetDashboard(ctx context.Context, key OverviewKey) (*domain.DashboardOverview, bool, error) {
	return nil, false, nil
}

func (n *noopOverviewCache) SetDashboard(ctx context.Context, key OverviewKey, overview *domain.DashboardOverview) error {
	return nil
}

func (n *noopOverviewCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildDashboardKey(key OverviewKey) string {
	parts := []string{
		"as_of=" + key.AsOf.UTC().Format("2006-01-02"),
		fmt.Sprintf("page=%d", key.Page),
		fmt.Sprintf("page_size=%d", key.PageSize),
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%s:%s", dashboardOverviewKeyPrefix, hex.EncodeToString(sum[:]))
}
