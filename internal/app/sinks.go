package app

import (
	"context"

	"github.com/taoyao-code/sds011-exporter/internal/storage/pg"
	redisstorage "github.com/taoyao-code/sds011-exporter/internal/storage/redis"
)

// PGHistory 读数历史：向 PostgreSQL 追加写（实现 HistorySink），
// 并为 HTTP 层提供最近读数查询。
type PGHistory struct {
	repo *pg.Repository
}

// NewPGHistory 包装 pg.Repository
func NewPGHistory(repo *pg.Repository) *PGHistory {
	return &PGHistory{repo: repo}
}

func (h *PGHistory) StoreReading(ctx context.Context, r Reading) error {
	return h.repo.InsertReading(ctx, int(r.DeviceID), r.PM25, r.PM10, r.At)
}

// Recent 按时间倒序返回最近 limit 条历史读数
func (h *PGHistory) Recent(ctx context.Context, limit int) ([]Reading, error) {
	rows, err := h.repo.RecentReadings(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Reading, 0, len(rows))
	for _, row := range rows {
		out = append(out, Reading{
			PM25:     row.PM25,
			PM10:     row.PM10,
			DeviceID: uint16(row.DeviceID),
			At:       row.At,
		})
	}
	return out, nil
}

// redisLatestSink 将最新读数发布到 Redis
type redisLatestSink struct {
	cache *redisstorage.LatestCache
}

// NewRedisLatestSink 包装 LatestCache 为 LatestSink
func NewRedisLatestSink(cache *redisstorage.LatestCache) LatestSink {
	return &redisLatestSink{cache: cache}
}

func (s *redisLatestSink) PublishLatest(ctx context.Context, r Reading) error {
	return s.cache.Publish(ctx, r)
}
