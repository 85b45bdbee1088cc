package metacache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/denisAlshanov/audiograb/internal/config"
	"github.com/denisAlshanov/audiograb/internal/models"
	"github.com/denisAlshanov/audiograb/internal/utils"
)

const redisKeyPrefix = "videoinfo:"

type redisEntry struct {
	Value     *models.VideoMetadata `json:"value"`
	CreatedAt time.Time             `json:"created_at"`
}

// RedisCache shares resolved metadata between processes. Keys expire at
// twice the TTL, which stands in for the in-memory sweep.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisCache(cfg *config.CacheConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &RedisCache{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (c *RedisCache) Get(ctx context.Context, url string) (*models.VideoMetadata, bool) {
	data, err := c.client.Get(ctx, redisKeyPrefix+url).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			utils.LogWarn(ctx, "Redis cache read failed", utils.Fields{"error": err.Error()})
		}
		return nil, false
	}

	var e redisEntry
	if err := json.Unmarshal(data, &e); err != nil || e.Value == nil {
		return nil, false
	}
	if c.now().Sub(e.CreatedAt) >= c.ttl {
		return nil, false
	}
	return e.Value, true
}

func (c *RedisCache) Put(ctx context.Context, url string, metadata *models.VideoMetadata) {
	data, err := json.Marshal(redisEntry{Value: metadata, CreatedAt: c.now()})
	if err != nil {
		utils.LogError(ctx, "Failed to encode cache entry", err)
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+url, data, 2*c.ttl).Err(); err != nil {
		utils.LogWarn(ctx, "Redis cache write failed", utils.Fields{"error": err.Error()})
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
