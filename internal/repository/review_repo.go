package repository

import (
	"context"

	"TaxonomySync/internal/model"

	"gorm.io/gorm"
)

// ReviewFilter 冲突/待定列表筛选
type ReviewFilter struct {
	SetID      string             // 套系ID
	Status     model.ReviewStatus // 状态，空为全部
	EntityType model.EntityType   // 实体类型，空为全部
}

func (f ReviewFilter) apply(db *gorm.DB) *gorm.DB {
	if f.SetID != "" {
		db = db.Where("set_id = ?", f.SetID)
	}
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.EntityType != "" {
		db = db.Where("entity_type = ?", f.EntityType)
	}
	return db
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	return page, pageSize
}

// AmbiguityRepository 待定队列仓储
type AmbiguityRepository interface {
	FindByKey(ctx context.Context, setID, ambiguityKey string) (*model.Ambiguity, error)
	Create(ctx context.Context, a *model.Ambiguity) error
	UpdateFields(ctx context.Context, a *model.Ambiguity, fields map[string]interface{}) error
	GetByID(ctx context.Context, id uint64) (*model.Ambiguity, error)
	List(ctx context.Context, filter ReviewFilter, page, pageSize int) ([]*model.Ambiguity, int64, error)
}

type ambiguityRepository struct {
	db *gorm.DB
}

func NewAmbiguityRepository(db *gorm.DB) AmbiguityRepository {
	return &ambiguityRepository{db: db}
}

func (r *ambiguityRepository) FindByKey(ctx context.Context, setID, ambiguityKey string) (*model.Ambiguity, error) {
	return findOne[model.Ambiguity](ctx, r.db, "set_id = ? AND ambiguity_key = ?", setID, ambiguityKey)
}

func (r *ambiguityRepository) Create(ctx context.Context, a *model.Ambiguity) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *ambiguityRepository) UpdateFields(ctx context.Context, a *model.Ambiguity, fields map[string]interface{}) error {
	return updateFields(ctx, r.db, a, fields)
}

func (r *ambiguityRepository) GetByID(ctx context.Context, id uint64) (*model.Ambiguity, error) {
	return findOne[model.Ambiguity](ctx, r.db, "id = ?", id)
}

func (r *ambiguityRepository) List(ctx context.Context, filter ReviewFilter, page, pageSize int) ([]*model.Ambiguity, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	db := filter.apply(r.db.WithContext(ctx).Model(&model.Ambiguity{}))
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []*model.Ambiguity
	if err := db.Order("id ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ConflictKey 冲突去重键（不含新值，新值由调用方做规范化比较）
type ConflictKey struct {
	SetID            string
	EntityType       model.EntityType
	EntityKey        string
	ConflictField    string
	ExistingSourceID *string
}

// ConflictRepository 字段冲突仓储
type ConflictRepository interface {
	ListOpen(ctx context.Context, key ConflictKey) ([]*model.Conflict, error)
	Create(ctx context.Context, c *model.Conflict) error
	UpdateFields(ctx context.Context, c *model.Conflict, fields map[string]interface{}) error
	GetByID(ctx context.Context, id uint64) (*model.Conflict, error)
	List(ctx context.Context, filter ReviewFilter, page, pageSize int) ([]*model.Conflict, int64, error)
}

type conflictRepository struct {
	db *gorm.DB
}

func NewConflictRepository(db *gorm.DB) ConflictRepository {
	return &conflictRepository{db: db}
}

// ListOpen 同一实体字段、同一已有来源下仍为 OPEN 的冲突
func (r *conflictRepository) ListOpen(ctx context.Context, key ConflictKey) ([]*model.Conflict, error) {
	db := r.db.WithContext(ctx).Where(
		"set_id = ? AND entity_type = ? AND entity_key = ? AND conflict_field = ? AND status = ?",
		key.SetID, key.EntityType, key.EntityKey, key.ConflictField, model.ReviewOpen,
	)
	if key.ExistingSourceID == nil {
		db = db.Where("existing_source_id IS NULL")
	} else {
		db = db.Where("existing_source_id = ?", *key.ExistingSourceID)
	}
	var list []*model.Conflict
	if err := db.Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *conflictRepository) Create(ctx context.Context, c *model.Conflict) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *conflictRepository) UpdateFields(ctx context.Context, c *model.Conflict, fields map[string]interface{}) error {
	return updateFields(ctx, r.db, c, fields)
}

func (r *conflictRepository) GetByID(ctx context.Context, id uint64) (*model.Conflict, error) {
	return findOne[model.Conflict](ctx, r.db, "id = ?", id)
}

func (r *conflictRepository) List(ctx context.Context, filter ReviewFilter, page, pageSize int) ([]*model.Conflict, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	db := filter.apply(r.db.WithContext(ctx).Model(&model.Conflict{}))
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []*model.Conflict
	if err := db.Order("id ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
