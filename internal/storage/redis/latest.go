package redis

import (
	"context"
	"encoding/json"
	"time"
)

// LatestCache 将最新读数以 JSON 写入固定键（带TTL），
// 供外部系统读取而无需访问导出器本身。
type LatestCache struct {
	client *Client
	key    string
	ttl    time.Duration
}

// NewLatestCache 创建最新读数缓存
func NewLatestCache(client *Client, key string, ttl time.Duration) *LatestCache {
	if key == "" {
		key = "sds011:latest"
	}
	return &LatestCache{client: client, key: key, ttl: ttl}
}

// Publish 覆盖写入最新读数
func (c *LatestCache) Publish(ctx context.Context, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key, data, c.ttl).Err()
}
