package repository

import (
	"context"

	"TaxonomySync/internal/model"

	"gorm.io/gorm"
)

// Repositories 一次工作单元内使用的全部仓储（传入事务句柄即绑定到该事务）
type Repositories struct {
	db *gorm.DB

	Sources       SourceRepository
	Programs      ProgramRepository
	Cards         CardRepository
	Variations    VariationRepository
	Parallels     ParallelRepository
	Scopes        ScopeRepository
	Odds          OddsRepository
	Ambiguities   AmbiguityRepository
	Conflicts     ConflictRepository
	CardVariants  CardVariantRepository
	CanonicalMaps CanonicalMapRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:            db,
		Sources:       NewSourceRepository(db),
		Programs:      NewProgramRepository(db),
		Cards:         NewCardRepository(db),
		Variations:    NewVariationRepository(db),
		Parallels:     NewParallelRepository(db),
		Scopes:        NewScopeRepository(db),
		Odds:          NewOddsRepository(db),
		Ambiguities:   NewAmbiguityRepository(db),
		Conflicts:     NewConflictRepository(db),
		CardVariants:  NewCardVariantRepository(db),
		CanonicalMaps: NewCanonicalMapRepository(db),
	}
}

// HasTaxonomy 套系下是否已有任何规范层级数据
func (r *Repositories) HasTaxonomy(ctx context.Context, setID string) (bool, error) {
	for _, m := range []interface{}{&model.Program{}, &model.Card{}, &model.Variation{}, &model.Parallel{}, &model.ParallelScope{}, &model.OddsRow{}} {
		var n int64
		if err := r.db.WithContext(ctx).Model(m).Where("set_id = ?", setID).Limit(1).Count(&n).Error; err != nil {
			return false, err
		}
		if n > 0 {
			return true, nil
		}
	}
	return false, nil
}

// Models 需要迁移的表（按依赖顺序）
func Models() []interface{} {
	return []interface{}{
		&model.Source{},
		&model.Program{},
		&model.Variation{},
		&model.Parallel{},
		&model.Card{},
		&model.ParallelScope{},
		&model.OddsRow{},
		&model.Ambiguity{},
		&model.Conflict{},
		&model.CardVariant{},
		&model.CanonicalMap{},
	}
}
