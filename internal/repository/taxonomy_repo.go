package repository

import (
	"context"

	"TaxonomySync/internal/model"

	"gorm.io/gorm"
)

// ProgramRepository 卡种仓储
type ProgramRepository interface {
	FindByKey(ctx context.Context, setID, programID string) (*model.Program, error)
	Create(ctx context.Context, p *model.Program) error
	UpdateFields(ctx context.Context, p *model.Program, fields map[string]interface{}) error
	ListBySet(ctx context.Context, setID string) ([]*model.Program, error)
}

type programRepository struct{ db *gorm.DB }

func NewProgramRepository(db *gorm.DB) ProgramRepository { return &programRepository{db: db} }

func (r *programRepository) FindByKey(ctx context.Context, setID, programID string) (*model.Program, error) {
	return findOne[model.Program](ctx, r.db, "set_id = ? AND program_id = ?", setID, programID)
}

func (r *programRepository) Create(ctx context.Context, p *model.Program) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *programRepository) UpdateFields(ctx context.Context, p *model.Program, fields map[string]interface{}) error {
	return updateFields(ctx, r.db, p, fields)
}

func (r *programRepository) ListBySet(ctx context.Context, setID string) ([]*model.Program, error) {
	return listBySet[model.Program](ctx, r.db, setID)
}

// CardRepository 卡片仓储
type CardRepository interface {
	FindByKey(ctx context.Context, setID, programID, cardNumber string) (*model.Card, error)
	Create(ctx context.Context, c *model.Card) error
	UpdateFields(ctx context.Context, c *model.Card, fields map[string]interface{}) error
	ListBySet(ctx context.Context, setID string) ([]*model.Card, error)
	ListBySets(ctx context.Context, setIDs []string) ([]*model.Card, error)
}

type cardRepository struct{ db *gorm.DB }

func NewCardRepository(db *gorm.DB) CardRepository { return &cardRepository{db: db} }

func (r *cardRepository) FindByKey(ctx context.Context, setID, programID, cardNumber string) (*model.Card, error) {
	return findOne[model.Card](ctx, r.db, "set_id = ? AND program_id = ? AND card_number = ?", setID, programID, cardNumber)
}

func (r *cardRepository) Create(ctx context.Context, c *model.Card) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cardRepository) UpdateFields(ctx context.Context, c *model.Card, fields map[string]interface{}) error {
	return updateFields(ctx, r.db, c, fields)
}

func (r *cardRepository) ListBySet(ctx context.Context, setID string) ([]*model.Card, error) {
	return listBySet[model.Card](ctx, r.db, setID)
}

func (r *cardRepository) ListBySets(ctx context.Context, setIDs []string) ([]*model.Card, error) {
	return listBySets[model.Card](ctx, r.db, setIDs)
}

// VariationRepository 变体仓储
type VariationRepository interface {
	FindByKey(ctx context.Context, setID, programID, variationID string) (*model.Variation, error)
	Create(ctx context.Context, v *model.Variation) error
	UpdateFields(ctx context.Context, v *model.Variation, fields map[string]interface{}) error
	ListBySet(ctx context.Context, setID string) ([]*model.Variation, error)
}

type variationRepository struct{ db *gorm.DB }

func NewVariationRepository(db *gorm.DB) VariationRepository { return &variationRepository{db: db} }

func (r *variationRepository) FindByKey(ctx context.Context, setID, programID, variationID string) (*model.Variation, error) {
	return findOne[model.Variation](ctx, r.db, "set_id = ? AND program_id = ? AND variation_id = ?", setID, programID, variationID)
}

func (r *variationRepository) Create(ctx context.Context, v *model.Variation) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *variationRepository) UpdateFields(ctx context.Context, v *model.Variation, fields map[string]interface{}) error {
	return updateFields(ctx, r.db, v, fields)
}

func (r *variationRepository) ListBySet(ctx context.Context, setID string) ([]*model.Variation, error) {
	return listBySet[model.Variation](ctx, r.db, setID)
}

// ParallelRepository 平行版仓储
type ParallelRepository interface {
	FindByKey(ctx context.Context, setID, parallelID string) (*model.Parallel, error)
	Create(ctx context.Context, p *model.Parallel) error
	UpdateFields(ctx context.Context, p *model.Parallel, fields map[string]interface{}) error
	ListBySet(ctx context.Context, setID string) ([]*model.Parallel, error)
}

type parallelRepository struct{ db *gorm.DB }

func NewParallelRepository(db *gorm.DB) ParallelRepository { return &parallelRepository{db: db} }

func (r *parallelRepository) FindByKey(ctx context.Context, setID, parallelID string) (*model.Parallel, error) {
	return findOne[model.Parallel](ctx, r.db, "set_id = ? AND parallel_id = ?", setID, parallelID)
}

func (r *parallelRepository) Create(ctx context.Context, p *model.Parallel) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *parallelRepository) UpdateFields(ctx context.Context, p *model.Parallel, fields map[string]interface{}) error {
	return updateFields(ctx, r.db, p, fields)
}

func (r *parallelRepository) ListBySet(ctx context.Context, setID string) ([]*model.Parallel, error) {
	return listBySet[model.Parallel](ctx, r.db, setID)
}

// ScopeRepository 平行版合法范围仓储
type ScopeRepository interface {
	FindByKey(ctx context.Context, setID, scopeKey string) (*model.ParallelScope, error)
	Create(ctx context.Context, s *model.ParallelScope) error
	UpdateFields(ctx context.Context, s *model.ParallelScope, fields map[string]interface{}) error
	ListBySet(ctx context.Context, setID string) ([]*model.ParallelScope, error)
	ListBySets(ctx context.Context, setIDs []string) ([]*model.ParallelScope, error)
}

type scopeRepository struct{ db *gorm.DB }

func NewScopeRepository(db *gorm.DB) ScopeRepository { return &scopeRepository{db: db} }

func (r *scopeRepository) FindByKey(ctx context.Context, setID, scopeKey string) (*model.ParallelScope, error) {
	return findOne[model.ParallelScope](ctx, r.db, "set_id = ? AND scope_key = ?", setID, scopeKey)
}

func (r *scopeRepository) Create(ctx context.Context, s *model.ParallelScope) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *scopeRepository) UpdateFields(ctx context.Context, s *model.ParallelScope, fields map[string]interface{}) error {
	return updateFields(ctx, r.db, s, fields)
}

func (r *scopeRepository) ListBySet(ctx context.Context, setID string) ([]*model.ParallelScope, error) {
	return listBySet[model.ParallelScope](ctx, r.db, setID)
}

func (r *scopeRepository) ListBySets(ctx context.Context, setIDs []string) ([]*model.ParallelScope, error) {
	return listBySets[model.ParallelScope](ctx, r.db, setIDs)
}

// OddsRepository 开包概率仓储
type OddsRepository interface {
	FindByKey(ctx context.Context, setID, oddsKey string) (*model.OddsRow, error)
	Create(ctx context.Context, o *model.OddsRow) error
	UpdateFields(ctx context.Context, o *model.OddsRow, fields map[string]interface{}) error
	ListBySet(ctx context.Context, setID string) ([]*model.OddsRow, error)
}

type oddsRepository struct{ db *gorm.DB }

func NewOddsRepository(db *gorm.DB) OddsRepository { return &oddsRepository{db: db} }

func (r *oddsRepository) FindByKey(ctx context.Context, setID, oddsKey string) (*model.OddsRow, error) {
	return findOne[model.OddsRow](ctx, r.db, "set_id = ? AND odds_key = ?", setID, oddsKey)
}

func (r *oddsRepository) Create(ctx context.Context, o *model.OddsRow) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *oddsRepository) UpdateFields(ctx context.Context, o *model.OddsRow, fields map[string]interface{}) error {
	return updateFields(ctx, r.db, o, fields)
}

func (r *oddsRepository) ListBySet(ctx context.Context, setID string) ([]*model.OddsRow, error) {
	return listBySet[model.OddsRow](ctx, r.db, setID)
}
