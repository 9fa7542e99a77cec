package main

import (
	"encoding/json"
	"fmt"
	"io"

	"TaxonomySync/internal/adapter"
	"TaxonomySync/internal/config"
	"TaxonomySync/internal/database"
	"TaxonomySync/internal/service"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// app 命令共享的依赖，在 PersistentPreRunE 中初始化
type app struct {
	verbose bool

	cfg        *config.Config
	logger     *logrus.Logger
	db         *gorm.DB
	ingestion  *service.IngestionService
	resolution *service.ResolutionService
	identity   *service.IdentityResolver
	review     *service.ReviewService
}

func (a *app) init() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	if a.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	db, err := database.Open(&cfg.Postgres, logger)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	return a.wire(cfg, logger, db)
}

func (a *app) wire(cfg *config.Config, logger *logrus.Logger, db *gorm.DB) error {
	dispatcher, err := adapter.NewDispatcher(cfg, logger)
	if err != nil {
		return fmt.Errorf("初始化适配器失败: %w", err)
	}
	flags := service.NewStaticFeatureFlags(cfg.Features)
	audit := service.NewLogAuditSink(logger)
	cache := service.NewVariantSetCache(db, cfg.Ingestion.VariantSetCacheTTL, nil, logger)

	a.cfg, a.logger, a.db = cfg, logger, db
	a.ingestion = service.NewIngestionService(db, dispatcher, logger, cfg).
		WithFeatureFlags(flags).
		WithAuditSink(audit).
		WithCache(cache)
	a.resolution = service.NewResolutionService(db, flags, cache, logger)
	a.identity = service.NewIdentityResolver(db, cache, logger)
	a.review = service.NewReviewService(db, audit, logger)
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
