package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"TaxonomySync/internal/adapter/rowset"
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
	bootstrapSourceLabel  = "Legacy variant bootstrap"
	bootstrapProgramLabel = "Base"
)

// refreshBridge 为套系内每个旧版变体推导规范键并写入映射；推导不出卡种时归入 base，从不失败跳过
func refreshBridge(ctx context.Context, repos *repository.Repositories, setID string, logger *logrus.Logger) (int, error) {
	variants, err := repos.CardVariants.ListBySet(ctx, setID)
	if err != nil {
		return 0, fmt.Errorf("查询旧版变体失败: %w", err)
	}
	if len(variants) == 0 {
		return 0, nil
	}
	cards, err := repos.Cards.ListBySet(ctx, setID)
	if err != nil {
		return 0, fmt.Errorf("查询卡片失败: %w", err)
	}
	scopes, err := repos.Scopes.ListBySet(ctx, setID)
	if err != nil {
		return 0, fmt.Errorf("查询平行版范围失败: %w", err)
	}

	programByCard := make(map[string]string)
	for _, c := range cards {
		preferProgram(programByCard, normalize.CardNumber(c.CardNumber), c.ProgramID)
	}
	programByParallel := make(map[string]string)
	for _, s := range scopes {
		preferProgram(programByParallel, s.ParallelID, s.ProgramID)
	}

	for _, v := range variants {
		cardNumber := normalize.CardNumber(v.CardNumber)
		parallelID := normalize.KeyOr(v.ParallelID, normalize.DefaultProgramID)
		programID, ok := programByCard[cardNumber]
		if !ok {
			if programID, ok = programByParallel[parallelID]; !ok {
				programID = normalize.DefaultProgramID
			}
		}
		if err := repos.CanonicalMaps.Upsert(ctx, &model.CanonicalMap{
			CardVariantID: v.ID,
			SetID:         setID,
			ProgramID:     programID,
			CardNumber:    cardNumber,
			ParallelID:    parallelID,
			CanonicalKey:  normalize.CanonicalKey(setID, programID, cardNumber, "", parallelID),
		}); err != nil {
			return 0, fmt.Errorf("写入旧版变体%s的映射失败: %w", v.ID, err)
		}
	}
	logger.WithFields(logrus.Fields{"set_id": setID, "variants": len(variants)}).Debug("旧版映射已刷新")
	return len(variants), nil
}

// preferProgram 同一卡号/平行版出现在多个卡种时优先 base，否则取最早写入的
func preferProgram(m map[string]string, key, programID string) {
	current, ok := m[key]
	if !ok || (current != normalize.DefaultProgramID && programID == normalize.DefaultProgramID) {
		m[key] = programID
	}
}

// bootstrapOutput 从旧版变体合成最小层级：一个 base 卡种、每个平行版一条范围、每个卡号一张卡
func bootstrapOutput(variants []*model.CardVariant) *model.AdapterOutput {
	out := &model.AdapterOutput{
		Programs: []model.ProgramDraft{{Label: bootstrapProgramLabel, ProgramClass: "base"}},
	}
	for _, v := range variants {
		label := normalize.Text(v.ParallelID)
		if label == "" {
			label = bootstrapProgramLabel
		}
		denominator := rowset.SerialDenominator(label)
		serialText := ""
		if denominator != nil {
			serialText = fmt.Sprintf("/%d", *denominator)
		}
		out.Parallels = append(out.Parallels, model.ParallelDraft{
			Label:             label,
			SerialDenominator: denominator,
			SerialText:        serialText,
			FinishFamily:      rowset.InferFinishFamily(label),
		})
		out.Scopes = append(out.Scopes, model.ScopeDraft{ProgramLabel: bootstrapProgramLabel, ParallelLabel: label})
		if cn := normalize.CardNumber(v.CardNumber); cn != "" {
			out.Cards = append(out.Cards, model.CardDraft{ProgramLabel: bootstrapProgramLabel, CardNumber: cn})
		}
	}
	return DedupOutput(out)
}

// BackfillRequest 旧版回填调用
type BackfillRequest struct {
	SetID          string `json:"setId"`
	IngestionJobID string `json:"ingestionJobId,omitempty"`
	SourceLabel    string `json:"sourceLabel,omitempty"`
	Actor          string `json:"-"`
}

// BackfillCounts 回填写入数量
type BackfillCounts struct {
	Programs  int `json:"programs"`
	Cards     int `json:"cards"`
	Parallels int `json:"parallels"`
	Scopes    int `json:"scopes"`
	Bridges   int `json:"bridges"`
}

type BackfillResult struct {
	SetID         string         `json:"setId"`
	Applied       bool           `json:"applied"`
	SourceID      string         `json:"sourceId,omitempty"`
	Counts        BackfillCounts `json:"counts"`
	SkippedReason string         `json:"skippedReason,omitempty"`
}

// BackfillFromLegacyVariants 套系只有旧版变体、还没有任何层级数据时，合成最小层级并刷新映射；
// 已有层级数据时只刷新映射
func (s *IngestionService) BackfillFromLegacyVariants(ctx context.Context, req *BackfillRequest) (*BackfillResult, error) {
	start := time.Now()
	setID := normalize.SetID(req.SetID)
	result := &BackfillResult{SetID: setID}
	if !normalize.ValidSetID(setID) {
		result.SkippedReason = SkipInvalidSetID
		s.finishBackfill(ctx, req, result, start, metrics.OutcomeSkipped)
		return result, fmt.Errorf("%w: %q", ErrInvalidSetID, req.SetID)
	}
	if !s.flags.LegacyFallbackAllowed(ctx, setID) {
		result.SkippedReason = SkipLegacyFallbackOff
		s.finishBackfill(ctx, req, result, start, metrics.OutcomeSkipped)
		return result, nil
	}

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
		variants, err := repos.CardVariants.ListBySet(ctx, setID)
		if err != nil {
			return fmt.Errorf("查询旧版变体失败: %w", err)
		}
		if len(variants) == 0 {
			result.SkippedReason = SkipNoLegacyVariants
			return nil
		}

		hasTaxonomy, err := repos.HasTaxonomy(ctx, setID)
		if err != nil {
			return fmt.Errorf("查询层级数据失败: %w", err)
		}
		if !hasTaxonomy {
			src, err := s.createBootstrapSource(ctx, repos, setID, req, len(variants))
			if err != nil {
				return err
			}
			rec = newReconciler(ctx, repos, setID, src, s.logger)
			if err := rec.apply(bootstrapOutput(variants)); err != nil {
				return err
			}
			result.Applied = true
			result.SourceID = src.ID
			result.Counts = BackfillCounts{
				Programs:  rec.counts.Programs,
				Cards:     rec.counts.Cards,
				Parallels: rec.counts.Parallels,
				Scopes:    rec.counts.Scopes,
			}
		} else {
			result.SkippedReason = SkipTaxonomyExists
		}

		bridges, err := refreshBridge(ctx, repos, setID, s.logger)
		if err != nil {
			return err
		}
		result.Counts.Bridges = bridges
		return nil
	})
	if err != nil {
		failed := &BackfillResult{SetID: setID, SkippedReason: SkipTransactionFailed}
		s.logger.WithError(err).WithField("set_id", setID).Error("旧版回填事务失败，已整体回滚")
		s.finishBackfill(ctx, req, failed, start, metrics.OutcomeFailed)
		return failed, fmt.Errorf("套系%s旧版回填失败: %w", setID, err)
	}

	s.cache.Invalidate()
	if rec != nil {
		rec.recordMetrics(s.metrics)
	}
	outcome := metrics.OutcomeApplied
	if !result.Applied {
		outcome = metrics.OutcomeSkipped
	}
	s.logger.WithFields(logrus.Fields{
		"set_id":    setID,
		"applied":   result.Applied,
		"programs":  result.Counts.Programs,
		"cards":     result.Counts.Cards,
		"parallels": result.Counts.Parallels,
		"bridges":   result.Counts.Bridges,
		"skipped":   result.SkippedReason,
	}).Info("旧版回填完成")
	s.finishBackfill(ctx, req, result, start, outcome)
	return result, nil
}

func (s *IngestionService) createBootstrapSource(ctx context.Context, repos *repository.Repositories, setID string, req *BackfillRequest, variants int) (*model.Source, error) {
	label := normalize.Text(req.SourceLabel)
	if label == "" {
		label = bootstrapSourceLabel
	}
	metadata, err := json.Marshal(map[string]interface{}{"bootstrap": true, "legacyVariants": variants})
	if err != nil {
		return nil, fmt.Errorf("序列化来源元数据失败: %w", err)
	}
	src := &model.Source{
		SetID:          setID,
		IngestionJobID: req.IngestionJobID,
		SourceKind:     model.SourceTrustedSecondary,
		ArtifactType:   model.ArtifactChecklist,
		Label:          label,
		Confidence:     bootstrapConfidence,
		Metadata:       datatypes.JSON(metadata),
	}
	if err := repos.Sources.Create(ctx, src); err != nil {
		return nil, fmt.Errorf("创建回填来源失败: %w", err)
	}
	return src, nil
}

func (s *IngestionService) finishBackfill(ctx context.Context, req *BackfillRequest, result *BackfillResult, start time.Time, outcome string) {
	s.metrics.RecordIngestion("legacy_bootstrap", outcome, time.Since(start))
	s.recordAudit(ctx, interfaces.AuditEntry{
		Actor:          req.Actor,
		Action:         "backfill",
		SetID:          result.SetID,
		IngestionJobID: req.IngestionJobID,
		Outcome:        outcomeOf(result.Applied, result.SkippedReason),
		Detail:         map[string]interface{}{"sourceId": result.SourceID, "counts": result.Counts},
		At:             time.Now(),
	})
}
