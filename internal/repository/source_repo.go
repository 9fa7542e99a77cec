package repository

import (
	"context"

	"TaxonomySync/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SourceRepository 来源记录仓储（只增不改）
type SourceRepository interface {
	Create(ctx context.Context, src *model.Source) error
	GetByID(ctx context.Context, id string) (*model.Source, error)
	ListBySet(ctx context.Context, setID string) ([]*model.Source, error)
}

type sourceRepository struct {
	db *gorm.DB
}

func NewSourceRepository(db *gorm.DB) SourceRepository {
	return &sourceRepository{db: db}
}

func (r *sourceRepository) Create(ctx context.Context, src *model.Source) error {
	if src.ID == "" {
		src.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(src).Error
}

func (r *sourceRepository) GetByID(ctx context.Context, id string) (*model.Source, error) {
	return findOne[model.Source](ctx, r.db, "id = ?", id)
}

func (r *sourceRepository) ListBySet(ctx context.Context, setID string) ([]*model.Source, error) {
	return listBySet[model.Source](ctx, r.db, setID)
}
