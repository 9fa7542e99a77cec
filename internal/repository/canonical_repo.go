package repository

import (
	"context"

	"TaxonomySync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CanonicalMapRepository 旧版变体 → 规范键 映射仓储
type CanonicalMapRepository interface {
	Upsert(ctx context.Context, m *model.CanonicalMap) error
	GetByVariantID(ctx context.Context, cardVariantID string) (*model.CanonicalMap, error)
	ListBySets(ctx context.Context, setIDs []string) ([]*model.CanonicalMap, error)
	ListByCanonicalKey(ctx context.Context, canonicalKey string) ([]*model.CanonicalMap, error)
}

type canonicalMapRepository struct {
	db *gorm.DB
}

func NewCanonicalMapRepository(db *gorm.DB) CanonicalMapRepository {
	return &canonicalMapRepository{db: db}
}

// Upsert 以 card_variant_id 为冲突键，重复执行只刷新映射内容
func (r *canonicalMapRepository) Upsert(ctx context.Context, m *model.CanonicalMap) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "card_variant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"set_id", "program_id", "card_number", "variation_id", "parallel_id", "canonical_key", "updated_at"}),
	}).Create(m).Error
}

func (r *canonicalMapRepository) GetByVariantID(ctx context.Context, cardVariantID string) (*model.CanonicalMap, error) {
	return findOne[model.CanonicalMap](ctx, r.db, "card_variant_id = ?", cardVariantID)
}

func (r *canonicalMapRepository) ListBySets(ctx context.Context, setIDs []string) ([]*model.CanonicalMap, error) {
	return listBySets[model.CanonicalMap](ctx, r.db, setIDs)
}

func (r *canonicalMapRepository) ListByCanonicalKey(ctx context.Context, canonicalKey string) ([]*model.CanonicalMap, error) {
	var list []*model.CanonicalMap
	if err := r.db.WithContext(ctx).Where("canonical_key = ?", canonicalKey).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
