package main

import (
	"fmt"
	"log"

	"TaxonomySync/internal/adapter"
	"TaxonomySync/internal/api"
	"TaxonomySync/internal/config"
	"TaxonomySync/internal/database"
	"TaxonomySync/internal/metrics"
	"TaxonomySync/internal/service"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func main() {
	// 1. 加载配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("加载配置文件失败: %v", err)
	}

	// 2. 初始化日志
	logrusLogger := logrus.New()
	logrusLogger.SetLevel(logrus.InfoLevel)
	logrusLogger.Info("配置文件加载成功")

	// 3. 初始化 PostgreSQL 连接（库不存在则先创建再连）并迁移表结构
	db, err := database.Open(&cfg.Postgres, logrusLogger)
	if err != nil {
		logrusLogger.Fatalf("%v", err)
	}
	if err := database.Migrate(db); err != nil {
		logrusLogger.Fatalf("%v", err)
	}
	logrusLogger.Info("数据库表结构检查完成（不存在则已创建）")

	// 4. 指标（独立 registry，不污染默认全局）
	m, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		logrusLogger.Fatalf("注册指标失败: %v", err)
	}
	m.WithRuntimeCollectors()

	// 5. 组装适配器与服务
	dispatcher, err := adapter.NewDispatcher(cfg, logrusLogger)
	if err != nil {
		logrusLogger.Fatalf("初始化适配器失败: %v", err)
	}
	logrusLogger.Infof("已启用适配器: %v", dispatcher.Names())

	flags := service.NewStaticFeatureFlags(cfg.Features)
	audit := service.NewLogAuditSink(logrusLogger)
	cache := service.NewVariantSetCache(db, cfg.Ingestion.VariantSetCacheTTL, nil, logrusLogger)
	ingestion := service.NewIngestionService(db, dispatcher, logrusLogger, cfg).
		WithFeatureFlags(flags).
		WithAuditSink(audit).
		WithCache(cache).
		WithMetrics(m)

	// 6. 配置Gin运行模式（从配置读取：debug/release）
	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()

	// 注册ppof 方便调试和监测性能问题
	pprof.Register(r)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})))
	logrusLogger.Infof("Gin运行模式: %s", cfg.Server.Mode)

	// 7. 注册API路由
	api.RegisterRoutes(r, &api.Handlers{
		Auth:   api.NewAuthMiddleware(service.NewStaticAuthorizer(cfg.Auth), logrusLogger),
		Ingest: api.NewIngestHandler(ingestion, logrusLogger),
		Resolution: api.NewResolutionHandler(
			service.NewResolutionService(db, flags, cache, logrusLogger),
			service.NewIdentityResolver(db, cache, logrusLogger),
			logrusLogger,
		),
		Review: api.NewReviewHandler(service.NewReviewService(db, audit, logrusLogger), logrusLogger),
	})

	// 8. 启动服务（从配置读取端口）
	port := cfg.Server.Port
	logrusLogger.Infof("服务启动成功，端口：%d", port)
	if err := r.Run(fmt.Sprintf(":%d", port)); err != nil {
		logrusLogger.Fatalf("启动服务失败: %v", err)
	}
}
