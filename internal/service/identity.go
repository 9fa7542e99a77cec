package service

import (
	"context"
	"fmt"

	"TaxonomySync/internal/repository"
	"TaxonomySync/internal/utils/normalize"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// 解析策略
const (
	StrategyLegacyMap = "legacy_map" // 旧版映射直接命中
	StrategyScoped    = "scoped"     // 按卡号/平行版的卡种线索推导
	StrategyFallback  = "fallback"   // 没有任何线索，归入 base
)

// IdentityIndex 一组套系的身份查找表（只读快照）
type IdentityIndex struct {
	CanonicalToVariant       map[string]string   // canonicalKey → cardVariantId
	LegacyToVariant          map[string]string   // legacyKey → cardVariantId
	VariantToCanonical       map[string]string   // cardVariantId → 首选 canonicalKey
	CanonicalKeysByLegacyKey map[string][]string // legacyKey → canonicalKey 列表
	ProgramsByCard           map[string][]string // set::cardNumber → programId 列表
	ProgramsByParallel       map[string][]string // set::parallelId → programId 列表
}

// Resolution 一个 (cardNumber, parallelLabel) 的解析结果
type Resolution struct {
	CanonicalKeys []string `json:"canonicalKeys"`
	Preferred     string   `json:"preferred"`
	VariantID     string   `json:"variantId,omitempty"`
	Strategy      string   `json:"strategy"`
}

// IdentityResolver 从已提交的数据构建身份查找表，供外部匹配器使用
type IdentityResolver struct {
	db     *gorm.DB
	cache  *VariantSetCache
	logger *logrus.Logger
}

func NewIdentityResolver(db *gorm.DB, cache *VariantSetCache, logger *logrus.Logger) *IdentityResolver {
	return &IdentityResolver{db: db, cache: cache, logger: logger}
}

// Build 读取一组套系的旧版变体、映射、卡片与范围，构建查找表
func (s *IdentityResolver) Build(ctx context.Context, setIDs []string) (*IdentityIndex, error) {
	sets := uniqueSetIDs(setIDs)
	legacySets, err := s.legacySets(ctx, sets)
	if err != nil {
		return nil, err
	}

	repos := repository.NewRepositories(s.db)
	variants, err := repos.CardVariants.ListBySets(ctx, legacySets)
	if err != nil {
		return nil, fmt.Errorf("查询旧版变体失败: %w", err)
	}
	maps, err := repos.CanonicalMaps.ListBySets(ctx, legacySets)
	if err != nil {
		return nil, fmt.Errorf("查询旧版映射失败: %w", err)
	}
	cards, err := repos.Cards.ListBySets(ctx, sets)
	if err != nil {
		return nil, fmt.Errorf("查询卡片失败: %w", err)
	}
	scopes, err := repos.Scopes.ListBySets(ctx, sets)
	if err != nil {
		return nil, fmt.Errorf("查询平行版范围失败: %w", err)
	}

	ix := &IdentityIndex{
		CanonicalToVariant:       make(map[string]string),
		LegacyToVariant:          make(map[string]string),
		VariantToCanonical:       make(map[string]string),
		CanonicalKeysByLegacyKey: make(map[string][]string),
		ProgramsByCard:           make(map[string][]string),
		ProgramsByParallel:       make(map[string][]string),
	}
	legacyKeyByVariant := make(map[string]string, len(variants))
	for _, v := range variants {
		lk := normalize.LegacyKey(v.SetID, v.CardNumber, v.ParallelID)
		legacyKeyByVariant[v.ID] = lk
		if _, ok := ix.LegacyToVariant[lk]; !ok {
			ix.LegacyToVariant[lk] = v.ID
		}
	}
	for _, m := range maps {
		if _, ok := ix.CanonicalToVariant[m.CanonicalKey]; !ok {
			ix.CanonicalToVariant[m.CanonicalKey] = m.CardVariantID
		}
		ix.VariantToCanonical[m.CardVariantID] = m.CanonicalKey
		if lk, ok := legacyKeyByVariant[m.CardVariantID]; ok {
			ix.CanonicalKeysByLegacyKey[lk] = appendUnique(ix.CanonicalKeysByLegacyKey[lk], m.CanonicalKey)
		}
	}
	for _, c := range cards {
		k := hintKey(c.SetID, normalize.Key(normalize.CardNumber(c.CardNumber)))
		ix.ProgramsByCard[k] = appendUnique(ix.ProgramsByCard[k], c.ProgramID)
	}
	for _, sc := range scopes {
		k := hintKey(sc.SetID, sc.ParallelID)
		ix.ProgramsByParallel[k] = appendUnique(ix.ProgramsByParallel[k], sc.ProgramID)
	}

	s.logger.WithFields(logrus.Fields{
		"sets":     len(sets),
		"variants": len(variants),
		"maps":     len(maps),
		"cards":    len(cards),
		"scopes":   len(scopes),
	}).Debug("身份查找表构建完成")
	return ix, nil
}

// legacySets 只对确实含旧版变体的套系读取旧版数据
func (s *IdentityResolver) legacySets(ctx context.Context, sets []string) ([]string, error) {
	if s.cache == nil {
		return sets, nil
	}
	ids, err := s.cache.SetIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取旧版套系缓存失败: %w", err)
	}
	out := make([]string, 0, len(sets))
	for _, id := range sets {
		if _, ok := ids[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// Resolve 旧版映射优先；没有映射时按卡号、平行版的卡种线索推导规范键，都没有则归入 base
func (ix *IdentityIndex) Resolve(setID, cardNumber, parallelLabel string) Resolution {
	setID = normalize.SetID(setID)
	cardNumber = normalize.CardNumber(cardNumber)
	lk := normalize.LegacyKey(setID, cardNumber, parallelLabel)

	res := Resolution{Strategy: StrategyLegacyMap}
	res.CanonicalKeys = append(res.CanonicalKeys, ix.CanonicalKeysByLegacyKey[lk]...)
	if len(res.CanonicalKeys) == 0 {
		parallelID := normalize.KeyOr(parallelLabel, normalize.DefaultProgramID)
		var programs []string
		for _, p := range ix.ProgramsByCard[hintKey(setID, normalize.Key(cardNumber))] {
			programs = appendUnique(programs, p)
		}
		for _, p := range ix.ProgramsByParallel[hintKey(setID, parallelID)] {
			programs = appendUnique(programs, p)
		}
		res.Strategy = StrategyScoped
		if len(programs) == 0 {
			programs = []string{normalize.DefaultProgramID}
			res.Strategy = StrategyFallback
		}
		for _, p := range programs {
			res.CanonicalKeys = append(res.CanonicalKeys, normalize.CanonicalKey(setID, p, cardNumber, "", parallelID))
		}
	}
	res.Preferred = res.CanonicalKeys[0]
	if id, ok := ix.LegacyToVariant[lk]; ok {
		res.VariantID = id
	} else {
		res.VariantID = ix.CanonicalToVariant[res.Preferred]
	}
	return res
}

func hintKey(setID, part string) string {
	return normalize.Join(normalize.Key(setID), part)
}

func uniqueSetIDs(ids []string) []string {
	var out []string
	for _, id := range ids {
		if id = normalize.SetID(id); id != "" {
			out = appendUnique(out, id)
		}
	}
	return out
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
