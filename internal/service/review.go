package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"TaxonomySync/internal/interfaces"
	"TaxonomySync/internal/model"
	"TaxonomySync/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReviewService 冲突与待定记录的人工审核；关闭冲突只记录备注，不修改实体
type ReviewService struct {
	db     *gorm.DB
	audit  interfaces.AuditSink
	logger *logrus.Logger
}

func NewReviewService(db *gorm.DB, audit interfaces.AuditSink, logger *logrus.Logger) *ReviewService {
	return &ReviewService{db: db, audit: audit, logger: logger}
}

func (s *ReviewService) ListConflicts(ctx context.Context, filter repository.ReviewFilter, page, pageSize int) ([]*model.Conflict, int64, error) {
	return repository.NewConflictRepository(s.db).List(ctx, filter, page, pageSize)
}

func (s *ReviewService) ListAmbiguities(ctx context.Context, filter repository.ReviewFilter, page, pageSize int) ([]*model.Ambiguity, int64, error) {
	return repository.NewAmbiguityRepository(s.db).List(ctx, filter, page, pageSize)
}

// ResolveConflict 将 OPEN 冲突置为 RESOLVED 并追加操作备注
func (s *ReviewService) ResolveConflict(ctx context.Context, id uint64, note, actor string) (*model.Conflict, error) {
	var out *model.Conflict
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repository.NewConflictRepository(tx)
		c, err := repo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("查询冲突失败: %w", err)
		}
		if c == nil {
			return fmt.Errorf("%w: conflict %d", ErrNotFound, id)
		}
		if c.Status != model.ReviewOpen {
			return fmt.Errorf("%w: conflict %d is %s", ErrNotOpen, id, c.Status)
		}
		resolution := c.ResolutionNote
		if note = strings.TrimSpace(note); note != "" {
			resolution = appendNote(resolution, fmt.Sprintf("resolved by %s: %s", actorOrUnknown(actor), note))
		}
		if err := repo.UpdateFields(ctx, c, map[string]interface{}{
			"status":          model.ReviewResolved,
			"resolution_note": resolution,
		}); err != nil {
			return fmt.Errorf("更新冲突状态失败: %w", err)
		}
		c.Status = model.ReviewResolved
		c.ResolutionNote = resolution
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor, "resolve_conflict", out.SetID, map[string]interface{}{"conflictId": id, "note": note})
	return out, nil
}

// DismissAmbiguity 将 OPEN 待定记录置为 DISMISSED 并追加操作备注（再次入库出现同键时会重新打开）
func (s *ReviewService) DismissAmbiguity(ctx context.Context, id uint64, note, actor string) (*model.Ambiguity, error) {
	var out *model.Ambiguity
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repository.NewAmbiguityRepository(tx)
		a, err := repo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("查询待定记录失败: %w", err)
		}
		if a == nil {
			return fmt.Errorf("%w: ambiguity %d", ErrNotFound, id)
		}
		if a.Status != model.ReviewOpen {
			return fmt.Errorf("%w: ambiguity %d is %s", ErrNotOpen, id, a.Status)
		}
		resolution := a.ResolutionNote
		if note = strings.TrimSpace(note); note != "" {
			resolution = appendNote(resolution, fmt.Sprintf("dismissed by %s: %s", actorOrUnknown(actor), note))
		}
		if err := repo.UpdateFields(ctx, a, map[string]interface{}{
			"status":          model.ReviewDismissed,
			"resolution_note": resolution,
		}); err != nil {
			return fmt.Errorf("更新待定记录状态失败: %w", err)
		}
		a.Status = model.ReviewDismissed
		a.ResolutionNote = resolution
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor, "dismiss_ambiguity", out.SetID, map[string]interface{}{"ambiguityId": id, "note": note})
	return out, nil
}

func (s *ReviewService) record(ctx context.Context, actor, action, setID string, detail map[string]interface{}) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, interfaces.AuditEntry{
		Actor:   actor,
		Action:  action,
		SetID:   setID,
		Outcome: "applied",
		Detail:  detail,
		At:      time.Now(),
	}); err != nil {
		s.logger.WithError(err).WithField("set_id", setID).Warn("写入审计日志失败")
	}
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + " | " + note
}

func actorOrUnknown(actor string) string {
	if actor == "" {
		return "unknown"
	}
	return actor
}
