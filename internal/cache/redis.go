package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"resumescan/internal/config"
	resumescanErrors "resumescan/internal/errors"
	"resumescan/internal/types"

	"github.com/redis/go-redis/v9"
)

// AnalysisCache stores finished analyses in Redis under the caller's key
type AnalysisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection with a ping
func New(ctx context.Context, cfg config.CacheConfig) (*AnalysisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, resumescanErrors.NewStorageError(resumescanErrors.ErrCodeStoreFailed,
			"Failed to connect to Redis at "+cfg.Addr, err)
	}
	return NewWithClient(client, cfg.TTL), nil
}

// NewWithClient wraps an existing client. A non-positive ttl keeps entries forever.
func NewWithClient(client *redis.Client, ttl time.Duration) *AnalysisCache {
	if ttl < 0 {
		ttl = 0
	}
	return &AnalysisCache{client: client, ttl: ttl}
}

// Get returns the cached analysis, or nil, nil on a miss
func (c *AnalysisCache) Get(ctx context.Context, key string) (*types.AnalyzeOutput, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out types.AnalyzeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		// A corrupt entry is treated as a miss and overwritten on the next Set.
		return nil, nil
	}
	return &out, nil
}

// Set stores an analysis. Per-user fields are not cached.
func (c *AnalysisCache) Set(ctx context.Context, key string, out *types.AnalyzeOutput) error {
	entry := *out
	entry.ID = ""
	entry.Usage = nil
	entry.Cached = false

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func (c *AnalysisCache) Close() error {
	return c.client.Close()
}
