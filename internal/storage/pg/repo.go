package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository 读数历史的最小持久化能力
type Repository struct {
	Pool *pgxpool.Pool
}

// StoredReading 入库后的读数行
type StoredReading struct {
	ID       int64
	DeviceID int
	PM25     float64
	PM10     float64
	At       time.Time
}

// EnsureSchema 建表（幂等）。单表追加写，不引入迁移框架。
func (r *Repository) EnsureSchema(ctx context.Context) error {
	const q = `CREATE TABLE IF NOT EXISTS readings (
        id         BIGSERIAL PRIMARY KEY,
        device_id  INTEGER NOT NULL,
        pm25       DOUBLE PRECISION NOT NULL,
        pm10       DOUBLE PRECISION NOT NULL,
        created_at TIMESTAMPTZ NOT NULL
    )`
	_, err := r.Pool.Exec(ctx, q)
	return err
}

// InsertReading 追加一条读数
func (r *Repository) InsertReading(ctx context.Context, deviceID int, pm25, pm10 float64, at time.Time) error {
	const q = `INSERT INTO readings (device_id, pm25, pm10, created_at)
               VALUES ($1,$2,$3,$4)`
	_, err := r.Pool.Exec(ctx, q, deviceID, pm25, pm10, at)
	return err
}

// RecentReadings 按时间倒序返回最近 limit 条读数
func (r *Repository) RecentReadings(ctx context.Context, limit int) ([]StoredReading, error) {
	const q = `SELECT id, device_id, pm25, pm10, created_at
               FROM readings ORDER BY created_at DESC LIMIT $1`
	rows, err := r.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredReading
	for rows.Next() {
		var sr StoredReading
		if err := rows.Scan(&sr.ID, &sr.DeviceID, &sr.PM25, &sr.PM10, &sr.At); err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

// HealthCheck 连接探活
func (r *Repository) HealthCheck(ctx context.Context) error {
	return r.Pool.Ping(ctx)
}
