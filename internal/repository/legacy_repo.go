package repository

import (
	"context"

	"TaxonomySync/internal/model"

	"gorm.io/gorm"
)

// CardVariantRepository 旧版扁平变体目录（只读）
type CardVariantRepository interface {
	ListBySet(ctx context.Context, setID string) ([]*model.CardVariant, error)
	ListBySets(ctx context.Context, setIDs []string) ([]*model.CardVariant, error)
	ListSetIDs(ctx context.Context) ([]string, error)
}

type cardVariantRepository struct {
	db *gorm.DB
}

func NewCardVariantRepository(db *gorm.DB) CardVariantRepository {
	return &cardVariantRepository{db: db}
}

func (r *cardVariantRepository) ListBySet(ctx context.Context, setID string) ([]*model.CardVariant, error) {
	var list []*model.CardVariant
	if err := r.db.WithContext(ctx).Where("set_id = ?", setID).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *cardVariantRepository) ListBySets(ctx context.Context, setIDs []string) ([]*model.CardVariant, error) {
	var list []*model.CardVariant
	if len(setIDs) == 0 {
		return list, nil
	}
	if err := r.db.WithContext(ctx).Where("set_id IN ?", setIDs).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// ListSetIDs 含旧版变体的全部套系ID
func (r *cardVariantRepository) ListSetIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&model.CardVariant{}).Distinct("set_id").Order("set_id ASC").Pluck("set_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
