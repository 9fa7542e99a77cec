package service

import (
	"context"
	"fmt"

	"TaxonomySync/internal/model"
	"TaxonomySync/internal/repository"
	"TaxonomySync/internal/utils/normalize"

	"github.com/sirupsen/logrus"
)

// PreferredSourceKind 新来源优先级不低于已有来源时选新来源，否则保留已有来源
// existing 为 nil（已有行没有来源）时按新来源自身比较，结果总是新来源
func PreferredSourceKind(existing *model.SourceKind, incoming model.SourceKind) model.SourceKind {
	base := incoming
	if existing != nil {
		base = *existing
	}
	if incoming.Precedence() >= base.Precedence() {
		return incoming
	}
	return base
}

// conflictNote 记录优先来源，但不自动应用其值
func conflictNote(existing *model.SourceKind, incoming model.SourceKind) string {
	existingKind := "UNKNOWN"
	existingWeight := 0
	if existing != nil {
		existingKind = string(*existing)
		existingWeight = existing.Precedence()
	}
	return fmt.Sprintf("preferred=%s; existing=%s(%d) incoming=%s(%d); pending review, value not applied",
		PreferredSourceKind(existing, incoming), existingKind, existingWeight, incoming, incoming.Precedence())
}

// ConflictResolver 字段冲突记录器，单次入库内缓存来源等级
type ConflictResolver struct {
	repos       *repository.Repositories
	logger      *logrus.Logger
	sourceKinds map[string]model.SourceKind
}

func NewConflictResolver(repos *repository.Repositories, logger *logrus.Logger) *ConflictResolver {
	return &ConflictResolver{repos: repos, logger: logger, sourceKinds: make(map[string]model.SourceKind)}
}

// ConflictInput 一次字段分歧
type ConflictInput struct {
	SetID            string
	EntityType       model.EntityType
	EntityKey        string
	Field            string
	ExistingSourceID *string
	ExistingValue    string
	IncomingValue    string
	Incoming         *model.Source
}

// Record 写入或刷新 OPEN 冲突；同一已有来源、同一（规范化后）新值的分歧只保留一条
func (r *ConflictResolver) Record(ctx context.Context, in ConflictInput) (created bool, err error) {
	open, err := r.repos.Conflicts.ListOpen(ctx, repository.ConflictKey{
		SetID:            in.SetID,
		EntityType:       in.EntityType,
		EntityKey:        in.EntityKey,
		ConflictField:    in.Field,
		ExistingSourceID: in.ExistingSourceID,
	})
	if err != nil {
		return false, fmt.Errorf("查询已有冲突失败: %w", err)
	}

	existingKind, err := r.kindOf(ctx, in.ExistingSourceID)
	if err != nil {
		return false, err
	}
	note := conflictNote(existingKind, in.Incoming.SourceKind)

	for _, c := range open {
		if !normalize.Equal(c.IncomingValue, in.IncomingValue) {
			continue
		}
		if err := r.repos.Conflicts.UpdateFields(ctx, c, map[string]interface{}{
			"incoming_source_id": in.Incoming.ID,
			"resolution_note":    note,
		}); err != nil {
			return false, fmt.Errorf("刷新冲突失败: %w", err)
		}
		return false, nil
	}

	c := &model.Conflict{
		SetID:            in.SetID,
		EntityType:       in.EntityType,
		EntityKey:        in.EntityKey,
		ConflictField:    in.Field,
		ExistingSourceID: in.ExistingSourceID,
		IncomingSourceID: in.Incoming.ID,
		ExistingValue:    in.ExistingValue,
		IncomingValue:    in.IncomingValue,
		Status:           model.ReviewOpen,
		ResolutionNote:   note,
	}
	if err := r.repos.Conflicts.Create(ctx, c); err != nil {
		return false, fmt.Errorf("写入冲突失败: %w", err)
	}
	r.logger.WithFields(logrus.Fields{
		"set_id":      in.SetID,
		"entity_type": in.EntityType,
		"entity_key":  in.EntityKey,
		"field":       in.Field,
	}).Warn("字段冲突，已记录待审核")
	return true, nil
}

func (r *ConflictResolver) kindOf(ctx context.Context, sourceID *string) (*model.SourceKind, error) {
	if sourceID == nil {
		return nil, nil
	}
	if k, ok := r.sourceKinds[*sourceID]; ok {
		return &k, nil
	}
	src, err := r.repos.Sources.GetByID(ctx, *sourceID)
	if err != nil {
		return nil, fmt.Errorf("查询来源%s失败: %w", *sourceID, err)
	}
	if src == nil {
		return nil, nil
	}
	r.sourceKinds[src.ID] = src.SourceKind
	return &src.SourceKind, nil
}
