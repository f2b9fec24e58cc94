package httpserver

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taoyao-code/sds011-exporter/internal/app"
	cfgpkg "github.com/taoyao-code/sds011-exporter/internal/config"
)

// 历史查询条数的默认值与上限
const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

const checkTimeout = 2 * time.Second

// Deps HTTP 层依赖注入，全部为函数以便测试替换
type Deps struct {
	// Ready 就绪检查（引擎存活且读数未过期）
	Ready func() bool
	// Checks 按名称的依赖探活（pg/redis 等），任一失败即未就绪
	Checks map[string]func(ctx context.Context) error
	// Latest 最新读数；无读数时第二个返回值为假
	Latest func() (app.Reading, bool)
	// Recent 最近的历史读数（未启用落库时为 nil）
	Recent func(ctx context.Context, limit int) ([]app.Reading, error)
	// TriggerQuery 手动触发一次查询并等待读数
	TriggerQuery func(ctx context.Context) (app.Reading, error)
	// QueryLimiter 手动查询限速器（可为 nil）
	QueryLimiter *RateLimiter
}

// Server HTTP 服务封装
type Server struct {
	srv *http.Server
}

// New 创建并配置 Gin + HTTP Server，注册健康检查、读数与指标路由
func New(cfg cfgpkg.HTTPConfig, metricsPath string, metricsHandler http.Handler, deps Deps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/readyz", func(c *gin.Context) {
		if deps.Ready != nil && !deps.Ready() {
			c.String(http.StatusServiceUnavailable, "not-ready")
			return
		}
		for name, check := range deps.Checks {
			ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
			err := check(ctx)
			cancel()
			if err != nil {
				c.String(http.StatusServiceUnavailable, "not-ready: %s", name)
				return
			}
		}
		c.String(http.StatusOK, "ready")
	})

	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	if metricsHandler != nil {
		r.GET(metricsPath, gin.WrapH(metricsHandler))
	}

	api := r.Group("/api/v1")

	api.GET("/reading", func(c *gin.Context) {
		if deps.Latest == nil {
			c.JSON(http.StatusOK, nil)
			return
		}
		reading, ok := deps.Latest()
		if !ok {
			// 与参考实现一致：无读数时返回 null 而非 404
			c.JSON(http.StatusOK, nil)
			return
		}
		c.JSON(http.StatusOK, reading)
	})

	api.GET("/readings", func(c *gin.Context) {
		if deps.Recent == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history not enabled"})
			return
		}
		limit := defaultHistoryLimit
		if s := c.Query("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
				return
			}
			limit = n
		}
		if limit > maxHistoryLimit {
			limit = maxHistoryLimit
		}
		readings, err := deps.Recent(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if readings == nil {
			readings = []app.Reading{}
		}
		c.JSON(http.StatusOK, readings)
	})

	query := api.Group("")
	if deps.QueryLimiter != nil {
		query.Use(deps.QueryLimiter.Middleware())
	}
	query.POST("/query", func(c *gin.Context) {
		if deps.TriggerQuery == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "query not available"})
			return
		}
		reading, err := deps.TriggerQuery(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, reading)
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return &Server{srv: srv}
}

// Start 启动 HTTP 服务（阻塞）
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler 暴露底层处理器（测试用）
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}
