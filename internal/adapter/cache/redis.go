package cache

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"news-rag/internal/domain"
)

// RedisCache keeps the processed-URL set in a Redis SET so multiple crawler
// instances share one view.
type RedisCache struct {
	client *redis.Client
	setKey string
	log    *slog.Logger
}

var _ domain.CacheStore = (*RedisCache)(nil)

// NewRedisCache connects to Redis from a URL of the form
// redis://[:password@]host:port[/db].
func NewRedisCache(ctx context.Context, url, setKey string, log *slog.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &RedisCache{client: client, setKey: setKey, log: log}, nil
}

// Contains degrades to false on backend errors so a flaky Redis makes the
// crawler re-process pages instead of silently dropping them.
func (c *RedisCache) Contains(ctx context.Context, url string) bool {
	ok, err := c.client.SIsMember(ctx, c.setKey, url).Result()
	if err != nil {
		c.log.Warn("Cache lookup failed", "url", url, "error", err)
		return false
	}
	return ok
}

func (c *RedisCache) MarkProcessed(ctx context.Context, url string) {
	if err := c.client.SAdd(ctx, c.setKey, url).Err(); err != nil {
		c.log.Warn("Failed to mark url processed", "url", url, "error", err)
	}
}

func (c *RedisCache) All(ctx context.Context) map[string]struct{} {
	members, err := c.client.SMembers(ctx, c.setKey).Result()
	if err != nil {
		c.log.Warn("Failed to load processed set", "error", err)
		return map[string]struct{}{}
	}

	out := make(map[string]struct{}, len(members))
	for _, m := range members {
		out[m] = struct{}{}
	}
	return out
}

func (c *RedisCache) Clear(ctx context.Context) error {
	return c.client.Del(ctx, c.setKey).Err()
}

// Close releases the underlying connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
