package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/sds011-exporter/internal/app"
	cfgpkg "github.com/taoyao-code/sds011-exporter/internal/config"
	"github.com/taoyao-code/sds011-exporter/internal/httpserver"
	"github.com/taoyao-code/sds011-exporter/internal/logging"
	"github.com/taoyao-code/sds011-exporter/internal/metrics"
	"github.com/taoyao-code/sds011-exporter/internal/protocol/sds011"
	"github.com/taoyao-code/sds011-exporter/internal/storage/pg"
	redisstorage "github.com/taoyao-code/sds011-exporter/internal/storage/redis"
	"github.com/taoyao-code/sds011-exporter/internal/transport"
)

func main() {
	configPath := flag.String("config", "", "config file path (default: $SDS011_CONFIG or configs/example.yaml)")
	flag.Parse()

	// 1) 加载配置
	cfg, err := cfgpkg.Load(*configPath)
	if err != nil {
		panic(err)
	}

	// 2) 初始化日志
	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)
	log := zap.L()

	instanceID := app.GenerateInstanceID()
	log.Info("starting",
		zap.String("instance", instanceID),
		zap.String("env", cfg.App.Env),
		zap.String("device", cfg.Device.Path))

	// 3) 指标注册与处理器
	reg := metrics.NewRegistry()
	metricsHandler := metrics.Handler(reg)
	met := metrics.NewAppMetrics(reg)

	// 4) 打开串口并启动协议引擎
	port, err := transport.Open(cfg.Device.Path, cfg.Device.Baud)
	if err != nil {
		log.Fatal("open device", zap.Error(err))
	}
	eng := sds011.Start(port, port, log.Named("sds011"))

	retryCfg := sds011.RetryConfig{
		Retries:      cfg.Retry.Retries,
		Timeout:      cfg.Retry.Timeout,
		PollInterval: cfg.Retry.PollInterval,
	}.Normalized()

	// 5) 上电配置：先写工作周期，再写上报模式。
	// 采集器尚未启动，此时引擎的响应流归这里独占。
	period, err := sds011.NewWorkingPeriod(cfg.Device.WorkingPeriod)
	if err != nil {
		log.Fatal("configure device", zap.Error(err))
	}
	mode, err := sds011.ParseReportingMode(cfg.Device.ReportingMode)
	if err != nil {
		log.Fatal("configure device", zap.Error(err))
	}
	if err := configureDevice(eng, period, mode, retryCfg, met, log); err != nil {
		log.Fatal("configure device", zap.Error(err))
	}

	checks := map[string]func(ctx context.Context) error{}

	// 6) 可选的历史落库（PostgreSQL）
	var history app.HistorySink
	var recent func(ctx context.Context, limit int) ([]app.Reading, error)
	if cfg.Database.Enabled {
		pool, err := pg.NewPool(context.Background(), cfg.Database, log.Named("pg"))
		if err != nil {
			log.Fatal("connect database", zap.Error(err))
		}
		defer pool.Close()

		repo := &pg.Repository{Pool: pool}
		if err := repo.EnsureSchema(context.Background()); err != nil {
			log.Fatal("ensure schema", zap.Error(err))
		}
		h := app.NewPGHistory(repo)
		history = h
		recent = h.Recent
		checks["postgres"] = repo.HealthCheck
		log.Info("history store enabled")
	}

	// 7) 可选的最新读数发布（Redis）
	var latest app.LatestSink
	if cfg.Redis.Enabled {
		rdb, err := redisstorage.NewClient(cfg.Redis)
		if err != nil {
			log.Fatal("connect redis", zap.Error(err))
		}
		defer func() { _ = rdb.Close() }()

		latest = app.NewRedisLatestSink(redisstorage.NewLatestCache(rdb, cfg.Redis.Key, cfg.Redis.TTL))
		checks["redis"] = rdb.HealthCheck
		log.Info("latest cache enabled", zap.String("key", cfg.Redis.Key))
	}

	// 8) 采集器：自此独占响应流
	collector := app.NewCollector(eng, met, history, latest, log.Named("collector"))
	go collector.Run()

	// 9) HTTP 服务
	var metricsPath string
	if cfg.Metrics.Enable {
		metricsPath = cfg.Metrics.Path
	} else {
		metricsHandler = nil
	}
	maxAge := readingMaxAge(cfg.HTTP, period, mode)
	limiter := httpserver.NewRateLimiter(cfg.HTTP.QueryRatePerSec, cfg.HTTP.QueryBurst)
	httpSrv := httpserver.New(cfg.HTTP, metricsPath, metricsHandler, httpserver.Deps{
		Ready:  func() bool { return collector.ReadyWithin(maxAge) },
		Checks: checks,
		Latest: collector.Latest,
		Recent: recent,
		TriggerQuery: func(ctx context.Context) (app.Reading, error) {
			r, err := collector.TriggerQuery(ctx, retryCfg)
			if met != nil {
				met.CommandsTotal.WithLabelValues(sds011.CmdQuery.String(), resultLabel(err)).Inc()
			}
			return r, err
		},
		QueryLimiter: limiter,
	})
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := httpSrv.Start(); err != nil {
			log.Error("http server error", zap.Error(err))
		}
	}()

	// 信号处理，优雅关闭。采集循环退出（传输断开）同样触发退出。
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info("signal received", zap.String("signal", sig.String()))
	case <-collector.Done():
		log.Error("collector exited, shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	eng.Close()
	_ = port.Close()
}

// configureDevice 将工作周期与上报模式写入设备
func configureDevice(
	eng *sds011.Engine,
	period sds011.WorkingPeriod,
	mode sds011.ReportingMode,
	retryCfg sds011.RetryConfig,
	met *metrics.AppMetrics,
	log *zap.Logger,
) error {
	for _, cmd := range []sds011.Command{
		sds011.NewSetWorkingPeriod(false, period),
		sds011.NewSetReportingMode(false, mode),
	} {
		resp, extra, err := eng.SendAndWait(cmd, retryCfg)
		if met != nil {
			met.CommandsTotal.WithLabelValues(cmd.Kind.String(), resultLabel(err)).Inc()
		}
		if err != nil {
			return err
		}
		log.Info("device configured",
			zap.Stringer("command", cmd.Kind),
			zap.Uint16("device", resp.DeviceID),
			zap.Int("interleaved", len(extra)))
	}
	return nil
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// readingMaxAge /readyz 的读数新鲜度窗口：配置值优先；
// 否则按工作周期推导（两个周期加一分钟余量）。
// 查询模式下设备不主动出数，不做新鲜度检查。
func readingMaxAge(cfg cfgpkg.HTTPConfig, period sds011.WorkingPeriod, mode sds011.ReportingMode) time.Duration {
	if cfg.ReadingMaxAge > 0 {
		return cfg.ReadingMaxAge
	}
	if mode == sds011.ReportingQuery {
		return 0
	}
	if period.IsContinuous() {
		return time.Minute
	}
	return 2*time.Duration(period.Minutes())*time.Minute + time.Minute
}
