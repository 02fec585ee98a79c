package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"storymap-go/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisCache is the backing store for the offline shell cache. Entries live
// under shell:<version>:<url> so that activation can prune whole versions at
// once; entries carry no TTL, pruning is the only eviction.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(opts *redis.Options) *RedisCache {
	rdb := redis.NewClient(opts)
	return &RedisCache{client: rdb}
}

func cacheKey(version, url string) string {
	return fmt.Sprintf("shell:%s:%s", version, url)
}

func (c *RedisCache) Get(ctx context.Context, version, url string) (models.CachedAsset, bool, error) {
	val, err := c.client.Get(ctx, cacheKey(version, url)).Result()
	if err == redis.Nil {
		return models.CachedAsset{}, false, nil
	}
	if err != nil {
		return models.CachedAsset{}, false, err
	}

	var asset models.CachedAsset
	if err := json.Unmarshal([]byte(val), &asset); err != nil {
		return models.CachedAsset{}, false, err
	}
	return asset, true, nil
}

func (c *RedisCache) Put(ctx context.Context, version, url string, asset models.CachedAsset) error {
	data, err := json.Marshal(asset)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(version, url), data, 0).Err()
}

// PutAll commits a full asset set in one pipeline, so an install is either
// fully cached or not visible at all.
func (c *RedisCache) PutAll(ctx context.Context, version string, assets map[string]models.CachedAsset) error {
	pipe := c.client.TxPipeline()
	for url, asset := range assets {
		data, err := json.Marshal(asset)
		if err != nil {
			return err
		}
		pipe.Set(ctx, cacheKey(version, url), data, 0)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Versions lists every cache version that currently holds entries.
func (c *RedisCache) Versions(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var versions []string

	iter := c.client.Scan(ctx, 0, "shell:*", 0).Iterator()
	for iter.Next(ctx) {
		parts := strings.SplitN(iter.Val(), ":", 3)
		if len(parts) < 3 {
			continue
		}
		if !seen[parts[1]] {
			seen[parts[1]] = true
			versions = append(versions, parts[1])
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	return versions, nil
}

// DeleteVersion drops every entry of one cache version.
func (c *RedisCache) DeleteVersion(ctx context.Context, version string) error {
	iter := c.client.Scan(ctx, 0, fmt.Sprintf("shell:%s:*", version), 0).Iterator()
	keys := []string{}
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) > 0 {
		return c.client.Del(ctx, keys...).Err()
	}
	return nil
}
