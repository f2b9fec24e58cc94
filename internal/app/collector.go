package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/sds011-exporter/internal/metrics"
	"github.com/taoyao-code/sds011-exporter/internal/protocol/sds011"
)

// Reading 对外暴露的读数快照
type Reading struct {
	PM25     float64   `json:"pm25"`
	PM10     float64   `json:"pm10"`
	DeviceID uint16    `json:"device"`
	At       time.Time `json:"at"`
}

// HistorySink 读数历史落库（可选）
type HistorySink interface {
	StoreReading(ctx context.Context, r Reading) error
}

// LatestSink 最新读数对外发布（可选，如 Redis 缓存）
type LatestSink interface {
	PublishLatest(ctx context.Context, r Reading) error
}

const sinkTimeout = 5 * time.Second

// Collector 消费引擎的响应流与控制流：
// 缓存最新读数（读写锁保护，供 HTTP 侧并发读取）、
// 维护指标、将读数推给可选的落库与缓存端。
// 致命错误后清空缓存，避免图表继续呈现过期数据。
type Collector struct {
	eng     *sds011.Engine
	met     *metrics.AppMetrics
	history HistorySink
	cache   LatestSink
	log     *zap.Logger

	mu     sync.RWMutex
	latest *Reading
	seq    uint64

	fatal atomic.Bool
	done  chan struct{}
}

// NewCollector 创建采集器。history 与 cache 允许为 nil。
func NewCollector(
	eng *sds011.Engine,
	met *metrics.AppMetrics,
	history HistorySink,
	cache LatestSink,
	log *zap.Logger,
) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{
		eng:     eng,
		met:     met,
		history: history,
		cache:   cache,
		log:     log,
		done:    make(chan struct{}),
	}
}

// Run 阻塞消费直到引擎的响应通道关闭
func (c *Collector) Run() {
	defer close(c.done)

	responses := c.eng.Responses()
	control := c.eng.Control()

	for {
		select {
		case resp, ok := <-responses:
			if !ok {
				c.log.Info("response stream closed, collector exiting")
				return
			}
			c.handleResponse(resp)
		case msg := <-control:
			c.handleControl(msg)
		}
	}
}

// Done 采集循环退出信号
func (c *Collector) Done() <-chan struct{} { return c.done }

// Latest 最新读数快照；尚无读数（或致命错误后被清空）时第二个返回值为假
func (c *Collector) Latest() (Reading, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.latest == nil {
		return Reading{}, false
	}
	return *c.latest, true
}

// Healthy 自启动以来未发生致命传输错误
func (c *Collector) Healthy() bool { return !c.fatal.Load() }

// ReadyWithin 就绪检查：未发生致命错误，且最近 maxAge 内有读数到达。
// maxAge <= 0 时不检查新鲜度（查询模式下设备不主动出数）。
func (c *Collector) ReadyWithin(maxAge time.Duration) bool {
	if c.fatal.Load() {
		return false
	}
	if maxAge <= 0 {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest != nil && time.Since(c.latest.At) <= maxAge
}

func (c *Collector) handleResponse(resp sds011.Response) {
	if c.met != nil {
		c.met.FramesTotal.WithLabelValues("ok").Inc()
	}

	if resp.Kind != sds011.RespQuery {
		// 配置类应答：正常流量，记录后略过
		c.log.Debug("non-reading response",
			zap.Stringer("kind", resp.Kind),
			zap.Uint16("device", resp.DeviceID))
		return
	}

	r := Reading{
		PM25:     resp.PM25,
		PM10:     resp.PM10,
		DeviceID: resp.DeviceID,
		At:       time.Now(),
	}

	c.mu.Lock()
	c.latest = &r
	c.seq++
	c.mu.Unlock()

	if c.met != nil {
		c.met.PM25.Set(r.PM25)
		c.met.PM10.Set(r.PM10)
		c.met.LastReadingTS.Set(float64(r.At.Unix()))
	}
	c.log.Debug("reading",
		zap.Float64("pm25", r.PM25),
		zap.Float64("pm10", r.PM10),
		zap.Uint16("device", r.DeviceID))

	if c.history != nil {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		if err := c.history.StoreReading(ctx, r); err != nil {
			c.log.Warn("store reading failed", zap.Error(err))
		} else if c.met != nil {
			c.met.ReadingsStored.Inc()
		}
		cancel()
	}
	if c.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		if err := c.cache.PublishLatest(ctx, r); err != nil {
			c.log.Warn("publish latest failed", zap.Error(err))
		}
		cancel()
	}
}

func (c *Collector) handleControl(msg sds011.ControlMessage) {
	if !msg.Fatal {
		if c.met != nil {
			c.met.FramesTotal.WithLabelValues("error").Inc()
		}
		c.log.Warn("sensor warning", zap.Error(msg.Err))
		return
	}

	if c.met != nil {
		c.met.FatalErrors.Inc()
	}
	c.fatal.Store(true)
	c.log.Error("sensor fatal error", zap.Error(msg.Err))

	// 清空读数，避免对外呈现过期数据
	c.mu.Lock()
	c.latest = nil
	c.mu.Unlock()
}

func (c *Collector) currentSeq() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.seq
}

// TriggerQuery 手动触发一次查询并等待新的读数到达。
// 采集器是响应流的唯一消费者，因此这里不直接读通道，
// 而是发送 Query 命令后观察缓存序号的推进，沿用重试层的
// 次数/超时/轮询语义。
func (c *Collector) TriggerQuery(ctx context.Context, cfg sds011.RetryConfig) (Reading, error) {
	cfg = cfg.Normalized()
	start := c.currentSeq()

	for attempt := 1; attempt <= cfg.Retries; attempt++ {
		if err := c.eng.Send(sds011.NewQuery()); err != nil {
			return Reading{}, err
		}

		deadline := time.Now().Add(cfg.Timeout)
		for time.Now().Before(deadline) {
			if err := ctx.Err(); err != nil {
				return Reading{}, err
			}
			if c.currentSeq() != start {
				if r, ok := c.Latest(); ok {
					return r, nil
				}
			}
			time.Sleep(cfg.PollInterval)
		}

		c.log.Debug("no reading within timeout",
			zap.Int("attempt", attempt), zap.Int("retries", cfg.Retries))
	}

	return Reading{}, &sds011.RetriesExhaustedError{Command: sds011.CmdQuery, Attempts: cfg.Retries}
}
