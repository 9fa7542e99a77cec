package service

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"TaxonomySync/internal/adapter"
	"TaxonomySync/internal/config"
	"TaxonomySync/internal/interfaces"
	"TaxonomySync/internal/model"
	"TaxonomySync/internal/repository"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSetID = "2024 Topps Chrome"

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存库每个连接独立，固定单连接
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(repository.Models()...))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// recordingAudit 收集审计记录
type recordingAudit struct {
	entries []interfaces.AuditEntry
}

func (a *recordingAudit) Record(_ context.Context, e interfaces.AuditEntry) error {
	a.entries = append(a.entries, e)
	return nil
}

type testEnv struct {
	db      *gorm.DB
	repos   *repository.Repositories
	svc     *IngestionService
	cache   *VariantSetCache
	audit   *recordingAudit
	cfg     *config.Config
	logger  *logrus.Logger
	flags   *StaticFeatureFlags
	context context.Context
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	log := testLogger()
	cfg := config.Default()
	dispatcher, err := adapter.NewDispatcher(cfg, log)
	require.NoError(t, err)
	cache := NewVariantSetCache(db, cfg.Ingestion.VariantSetCacheTTL, nil, log)
	audit := &recordingAudit{}
	flags := NewStaticFeatureFlags(cfg.Features)
	svc := NewIngestionService(db, dispatcher, log, cfg).
		WithFeatureFlags(flags).
		WithAuditSink(audit).
		WithCache(cache)
	return &testEnv{
		db:      db,
		repos:   repository.NewRepositories(db),
		svc:     svc,
		cache:   cache,
		audit:   audit,
		cfg:     cfg,
		logger:  log,
		flags:   flags,
		context: context.Background(),
	}
}

func rows(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func (e *testEnv) ingest(t *testing.T, req *IngestRequest) *IngestResult {
	t.Helper()
	res, err := e.svc.Ingest(e.context, req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func (e *testEnv) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(m).Count(&n).Error)
	return n
}

func (e *testEnv) seedVariants(t *testing.T, variants ...model.CardVariant) {
	t.Helper()
	require.NoError(t, e.db.Create(&variants).Error)
}
