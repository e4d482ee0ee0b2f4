package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xxz807/eduledger/backend/internal/platform/auth"
)

// RouteRegistrar 各业务模块的路由注册入口
type RouteRegistrar interface {
	RegisterRoutes(r *gin.RouterGroup)
}

// Config Server 配置
type Config struct {
	Port        string
	Mode        string
	AuthEnabled bool
	AuthSecret  string
}

// Server 封装 HTTP 服务
type Server struct {
	engine *gin.Engine
	logger *zap.Logger
	port   string
	server *http.Server
}

// NewServer 初始化 HTTP Server (包含网关逻辑)
func NewServer(logger *zap.Logger, cfg Config, handlers ...RouteRegistrar) *Server {
	// 1. 设置 Gin 模式
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Recovery (防崩)
	r.Use(gin.Recovery())

	// Custom Logger (接入 Zap)
	r.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next() // 执行后续逻辑

		cost := time.Since(start)
		logger.Info("HTTP Request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("cost", cost),
		)
	})

	// CORS (跨域处理 - 允许前端访问)
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"POST", "GET", "OPTIONS", "PUT", "DELETE"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	v1 := r.Group("/api/v1")

	// JWT 鉴权（本地开发可在配置里关掉）
	if cfg.AuthEnabled {
		v1.Use(auth.Middleware([]byte(cfg.AuthSecret)))
	}

	// 注册各业务模块的路由
	for _, h := range handlers {
		h.RegisterRoutes(v1)
	}

	// 健康检查
	r.GET("/api/v1/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})

	return &Server{
		engine: r,
		logger: logger,
		port:   cfg.Port,
	}
}

// Run 启动服务
func (s *Server) Run() error {
	s.server = &http.Server{
		Addr:    ":" + s.port,
		Handler: s.engine,
	}
	s.logger.Info("🚀 EduLedger API started", zap.String("port", s.port))
	return s.server.ListenAndServe()
}

// Shutdown 优雅停机 (Graceful Shutdown)
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
