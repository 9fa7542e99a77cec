package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"TaxonomySync/internal/adapter"
	"TaxonomySync/internal/config"
	"TaxonomySync/internal/interfaces"
	"TaxonomySync/internal/metrics"
	"TaxonomySync/internal/model"
	"TaxonomySync/internal/repository"
	"TaxonomySync/internal/utils/normalize"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	noAdapterConfidence   = 0.3
	bootstrapConfidence   = 0.4
	manualPatchConfidence = 0.9

	manualPatchAdapter = "manual_patch"
)

// IngestRequest 一次入库调用
type IngestRequest struct {
	SetID          string                 `json:"setId"`
	IngestionJobID string                 `json:"ingestionJobId"`
	DatasetType    model.DatasetType      `json:"datasetType"`
	RawPayload     json.RawMessage        `json:"rawPayload"`
	SourceURL      string                 `json:"sourceUrl,omitempty"`
	ParserVersion  string                 `json:"parserVersion,omitempty"`
	ParseSummary   map[string]interface{} `json:"parseSummary,omitempty"`
	Actor          string                 `json:"-"` // 审计用的调用方
}

// IngestResult 入库结果；Counts 为本次写入或匹配的行数，Created 只统计新建行
type IngestResult struct {
	SetID         string             `json:"setId"`
	Applied       bool               `json:"applied"`
	Adapter       string             `json:"adapter,omitempty"`
	SourceID      string             `json:"sourceId,omitempty"`
	SourceKind    model.SourceKind   `json:"sourceKind,omitempty"`
	ArtifactType  model.ArtifactType `json:"artifactType,omitempty"`
	Counts        EntityCounts       `json:"counts"`
	Created       EntityCounts       `json:"created"`
	SkippedReason string             `json:"skippedReason,omitempty"`
}

// IngestionService 对账编排：每次调用一个事务、一个来源
type IngestionService struct {
	db         *gorm.DB
	dispatcher interfaces.AdapterDispatcher
	flags      interfaces.FeatureFlags
	audit      interfaces.AuditSink
	cache      *VariantSetCache
	metrics    *metrics.Metrics
	locks      *setLocks
	serialize  bool
	logger     *logrus.Logger
}

func NewIngestionService(db *gorm.DB, dispatcher interfaces.AdapterDispatcher, logger *logrus.Logger, cfg *config.Config) *IngestionService {
	if cfg == nil {
		cfg = config.Default()
	}
	return &IngestionService{
		db:         db,
		dispatcher: dispatcher,
		flags:      NewStaticFeatureFlags(cfg.Features),
		audit:      NewLogAuditSink(logger),
		locks:      newSetLocks(),
		serialize:  cfg.Ingestion.SerializePerSet,
		logger:     logger,
	}
}

func (s *IngestionService) WithFeatureFlags(flags interfaces.FeatureFlags) *IngestionService {
	s.flags = flags
	return s
}

func (s *IngestionService) WithAuditSink(sink interfaces.AuditSink) *IngestionService {
	s.audit = sink
	return s
}

// WithCache 入库/回填提交后让该缓存失效
func (s *IngestionService) WithCache(cache *VariantSetCache) *IngestionService {
	s.cache = cache
	return s
}

func (s *IngestionService) WithMetrics(m *metrics.Metrics) *IngestionService {
	s.metrics = m
	return s
}

// Ingest 选择适配器、解析原始行，并在一个事务内完成对账与旧版映射刷新
func (s *IngestionService) Ingest(ctx context.Context, req *IngestRequest) (*IngestResult, error) {
	start := time.Now()
	setID, result, err := s.precheck(ctx, req)
	if err != nil {
		s.finish(ctx, req, result, start, metrics.OutcomeSkipped)
		return result, err
	}

	input := &model.AdapterInput{
		SetID:         setID,
		DatasetType:   req.DatasetType,
		RawPayload:    req.RawPayload,
		SourceURL:     req.SourceURL,
		ParserVersion: req.ParserVersion,
		ParseSummary:  req.ParseSummary,
	}
	var out *model.AdapterOutput
	if a, ok := s.dispatcher.Select(adapter.Hints(input)); ok {
		result.Adapter = a.GetName()
		out = DedupOutput(a.Build(input))
	}
	return s.commit(ctx, req, setID, out, result, start)
}

// ApplyOutput 跳过适配器，直接对一份已规范化的输出做对账（人工补丁导入等）
func (s *IngestionService) ApplyOutput(ctx context.Context, req *IngestRequest, adapterName string, out *model.AdapterOutput) (*IngestResult, error) {
	start := time.Now()
	setID, result, err := s.precheck(ctx, req)
	if err != nil {
		s.finish(ctx, req, result, start, metrics.OutcomeSkipped)
		return result, err
	}
	result.Adapter = adapterName
	return s.commit(ctx, req, setID, DedupOutput(out), result, start)
}

// ManualPatch 运营直接提交的已规范化实体，按 MANUAL_PATCH 来源对账
type ManualPatch struct {
	SetID          string                 `json:"-"`
	IngestionJobID string                 `json:"ingestionJobId"`
	SourceLabel    string                 `json:"sourceLabel"`
	SourceURL      string                 `json:"sourceUrl"`
	Programs       []model.ProgramDraft   `json:"programs"`
	Cards          []model.CardDraft      `json:"cards"`
	Variations     []model.VariationDraft `json:"variations"`
	Parallels      []model.ParallelDraft  `json:"parallels"`
	Scopes         []model.ScopeDraft     `json:"scopes"`
	OddsRows       []model.OddsDraft      `json:"oddsRows"`
	Actor          string                 `json:"-"`
}

// Empty 补丁不含任何实体
func (p *ManualPatch) Empty() bool {
	return len(p.Programs)+len(p.Cards)+len(p.Variations)+len(p.Parallels)+len(p.Scopes)+len(p.OddsRows) == 0
}

// ApplyManualPatch 人工补丁入库：不经过适配器，冲突与待定规则与普通入库相同
func (s *IngestionService) ApplyManualPatch(ctx context.Context, patch *ManualPatch) (*IngestResult, error) {
	label := patch.SourceLabel
	if label == "" {
		label = "Manual patch"
	}
	out := &model.AdapterOutput{
		Programs:         patch.Programs,
		Cards:            patch.Cards,
		Variations:       patch.Variations,
		Parallels:        patch.Parallels,
		Scopes:           patch.Scopes,
		OddsRows:         patch.OddsRows,
		SourceKind:       model.SourceManualPatch,
		ArtifactType:     model.ArtifactManualPatch,
		SourceLabel:      label,
		ParserConfidence: manualPatchConfidence,
		Metadata: map[string]interface{}{
			"adapter": manualPatchAdapter,
			"actor":   patch.Actor,
		},
	}
	return s.ApplyOutput(ctx, &IngestRequest{
		SetID:          patch.SetID,
		IngestionJobID: patch.IngestionJobID,
		DatasetType:    model.DatasetManualPatch,
		SourceURL:      patch.SourceURL,
		Actor:          patch.Actor,
	}, manualPatchAdapter, out)
}

func (s *IngestionService) precheck(ctx context.Context, req *IngestRequest) (string, *IngestResult, error) {
	setID := normalize.SetID(req.SetID)
	result := &IngestResult{SetID: setID}
	if !normalize.ValidSetID(setID) {
		result.SkippedReason = SkipInvalidSetID
		return setID, result, fmt.Errorf("%w: %q", ErrInvalidSetID, req.SetID)
	}
	if !s.flags.IngestionV2Enabled(ctx, setID) {
		result.SkippedReason = SkipIngestionDisabled
		return setID, result, fmt.Errorf("%w: %s", ErrIngestionDisabled, setID)
	}
	return setID, result, nil
}

func (s *IngestionService) commit(ctx context.Context, req *IngestRequest, setID string, out *model.AdapterOutput, result *IngestResult, start time.Time) (*IngestResult, error) {
	if s.serialize {
		unlock := s.locks.Lock(setID)
		defer unlock()
	}

	var rec *reconciler
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := advisoryLock(tx, setID); err != nil {
			return fmt.Errorf("获取套系锁失败: %w", err)
		}
		repos := repository.NewRepositories(tx)
		if out == nil {
			return s.recordNoAdapter(ctx, repos, setID, req, result)
		}

		src, err := s.createSource(ctx, repos, setID, req, out)
		if err != nil {
			return err
		}
		rec = newReconciler(ctx, repos, setID, src, s.logger)
		if err := rec.apply(out); err != nil {
			return err
		}
		bridges, err := refreshBridge(ctx, repos, setID, s.logger)
		if err != nil {
			return err
		}

		result.Applied = true
		result.SourceID = src.ID
		result.SourceKind = src.SourceKind
		result.ArtifactType = src.ArtifactType
		result.Counts = rec.counts
		result.Created = rec.created
		result.Counts.Bridges = bridges
		return nil
	})
	if err != nil {
		failed := &IngestResult{SetID: setID, Adapter: result.Adapter, SkippedReason: SkipTransactionFailed}
		s.logger.WithError(err).WithFields(logrus.Fields{"set_id": setID, "adapter": result.Adapter}).Error("入库事务失败，已整体回滚")
		s.finish(ctx, req, failed, start, metrics.OutcomeFailed)
		return failed, fmt.Errorf("套系%s入库失败: %w", setID, err)
	}

	s.cache.Invalidate()
	outcome := metrics.OutcomeApplied
	if !result.Applied {
		outcome = metrics.OutcomeNoAdapter
	}
	if rec != nil {
		rec.recordMetrics(s.metrics)
	}
	s.logger.WithFields(logrus.Fields{
		"set_id":      setID,
		"adapter":     result.Adapter,
		"source_id":   result.SourceID,
		"source_kind": result.SourceKind,
		"programs":    result.Counts.Programs,
		"cards":       result.Counts.Cards,
		"parallels":   result.Counts.Parallels,
		"conflicts":   result.Counts.Conflicts,
		"ambiguities": result.Counts.Ambiguities,
		"bridges":     result.Counts.Bridges,
	}).Info("套系入库完成")
	s.finish(ctx, req, result, start, outcome)
	return result, nil
}

func (s *IngestionService) createSource(ctx context.Context, repos *repository.Repositories, setID string, req *IngestRequest, out *model.AdapterOutput) (*model.Source, error) {
	kind := out.SourceKind
	if !kind.Valid() {
		kind = model.SourceTrustedSecondary
	}
	artifact := out.ArtifactType
	if artifact == "" {
		artifact = model.ArtifactChecklist
	}
	metadata, err := json.Marshal(out.Metadata)
	if err != nil {
		return nil, fmt.Errorf("序列化来源元数据失败: %w", err)
	}
	src := &model.Source{
		SetID:          setID,
		IngestionJobID: req.IngestionJobID,
		SourceKind:     kind,
		ArtifactType:   artifact,
		Label:          out.SourceLabel,
		URL:            req.SourceURL,
		ParserVersion:  req.ParserVersion,
		Confidence:     out.ParserConfidence,
		Metadata:       datatypes.JSON(metadata),
	}
	if err := repos.Sources.Create(ctx, src); err != nil {
		return nil, fmt.Errorf("创建来源记录失败: %w", err)
	}
	return src, nil
}

// recordNoAdapter 没有适配器可用：低置信度来源 + 一条待定记录，不写任何实体
func (s *IngestionService) recordNoAdapter(ctx context.Context, repos *repository.Repositories, setID string, req *IngestRequest, result *IngestResult) error {
	hints := adapter.Hints(&model.AdapterInput{SetID: setID, DatasetType: req.DatasetType, SourceURL: req.SourceURL, ParseSummary: req.ParseSummary})
	metadata := map[string]interface{}{
		"reason":      "no eligible adapter",
		"datasetType": string(req.DatasetType),
		"provider":    hints.Provider,
		"setName":     hints.SetName,
	}
	src, err := s.createSource(ctx, repos, setID, req, &model.AdapterOutput{
		SourceKind:       model.SourceTrustedSecondary,
		ArtifactType:     model.ArtifactChecklist,
		SourceLabel:      "No eligible adapter",
		ParserConfidence: noAdapterConfidence,
		Metadata:         metadata,
	})
	if err != nil {
		return err
	}

	key := normalize.Join(string(model.EntityIngestion), "no-eligible-adapter",
		normalize.KeyOr(string(req.DatasetType), normalize.NoneKey), normalize.KeyOr(req.SourceURL, normalize.NoneKey))
	queue := NewAmbiguityQueue()
	queue.Add(model.AmbiguityDraft{
		EntityType:   model.EntityIngestion,
		AmbiguityKey: key,
		Payload: map[string]interface{}{
			"reason":         "no eligible adapter",
			"datasetType":    string(req.DatasetType),
			"sourceUrl":      req.SourceURL,
			"provider":       hints.Provider,
			"setName":        hints.SetName,
			"ingestionJobId": req.IngestionJobID,
		},
	})
	created, err := queue.Flush(ctx, repos.Ambiguities, setID, src.ID)
	if err != nil {
		return err
	}

	result.Applied = false
	result.SourceID = src.ID
	result.SourceKind = src.SourceKind
	result.ArtifactType = src.ArtifactType
	result.Counts.Ambiguities = 1
	result.Created.Ambiguities = created
	result.SkippedReason = SkipNoEligibleAdapter
	s.logger.WithFields(logrus.Fields{"set_id": setID, "dataset_type": req.DatasetType, "source_url": req.SourceURL}).Warn("没有可用的适配器，已记录待定")
	return nil
}

func (s *IngestionService) finish(ctx context.Context, req *IngestRequest, result *IngestResult, start time.Time, outcome string) {
	s.metrics.RecordIngestion(result.Adapter, outcome, time.Since(start))
	s.recordAudit(ctx, interfaces.AuditEntry{
		Actor:          req.Actor,
		Action:         "ingest",
		SetID:          result.SetID,
		IngestionJobID: req.IngestionJobID,
		Outcome:        outcomeOf(result.Applied, result.SkippedReason),
		Detail: map[string]interface{}{
			"adapter":   result.Adapter,
			"sourceId":  result.SourceID,
			"counts":    result.Counts,
			"elapsedMs": time.Since(start).Milliseconds(),
		},
		At: time.Now(),
	})
}

func (s *IngestionService) recordAudit(ctx context.Context, entry interfaces.AuditEntry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.WithError(err).WithField("set_id", entry.SetID).Warn("写入审计日志失败")
	}
}

func outcomeOf(applied bool, skippedReason string) string {
	if applied {
		return "applied"
	}
	if skippedReason != "" {
		return skippedReason
	}
	return "skipped"
}
