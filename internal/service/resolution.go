package service

import (
	"context"
	"fmt"

	"TaxonomySync/internal/interfaces"
	"TaxonomySync/internal/model"
	"TaxonomySync/internal/repository"
	"TaxonomySync/internal/utils/normalize"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ResolutionService 供 OCR 匹配器调用的只读查询；HasTaxonomy 为 false 时调用方退回旧版逻辑
type ResolutionService struct {
	db     *gorm.DB
	flags  interfaces.FeatureFlags
	cache  *VariantSetCache
	logger *logrus.Logger
}

func NewResolutionService(db *gorm.DB, flags interfaces.FeatureFlags, cache *VariantSetCache, logger *logrus.Logger) *ResolutionService {
	return &ResolutionService{db: db, flags: flags, cache: cache, logger: logger}
}

// ProgramVariationResolution 按标签解析卡种与变体
type ProgramVariationResolution struct {
	HasTaxonomy bool             `json:"hasTaxonomy"`
	Program     *model.Program   `json:"program,omitempty"`
	Variation   *model.Variation `json:"variation,omitempty"`
}

// ScopedParallelResolution 平行版识别结果以及它在该卡种下是否合法
type ScopedParallelResolution struct {
	HasTaxonomy bool            `json:"hasTaxonomy"`
	ProgramID   string          `json:"programId"`
	Parallel    *model.Parallel `json:"parallel,omitempty"`
	InScope     bool            `json:"inScope"`
	ScopeKeys   []string        `json:"scopeKeys,omitempty"`
}

// ProgramScope 匹配器视角下的一个卡种
type ProgramScope struct {
	ProgramID    string   `json:"programId"`
	Label        string   `json:"label"`
	ProgramClass string   `json:"programClass,omitempty"`
	CardCount    int      `json:"cardCount"`
	ParallelIDs  []string `json:"parallelIds"`
	VariationIDs []string `json:"variationIds"`
}

// MatcherScope 匹配器需要的整套系层级视图
type MatcherScope struct {
	SetID                 string         `json:"setId"`
	HasTaxonomy           bool           `json:"hasTaxonomy"`
	HasLegacyVariants     bool           `json:"hasLegacyVariants"`
	LegacyFallbackAllowed bool           `json:"legacyFallbackAllowed"`
	Programs              []ProgramScope `json:"programs,omitempty"`
}

// hasTaxonomy 匹配开关关闭或套系没有层级数据时返回 false
func (s *ResolutionService) hasTaxonomy(ctx context.Context, repos *repository.Repositories, setID string) (bool, error) {
	if !s.flags.MatchingV2Enabled(ctx, setID) {
		return false, nil
	}
	has, err := repos.HasTaxonomy(ctx, setID)
	if err != nil {
		return false, fmt.Errorf("查询套系%s层级数据失败: %w", setID, err)
	}
	return has, nil
}

// ResolveProgramAndVariation 卡种标签缺省为 base；变体标签为空时只解析卡种
func (s *ResolutionService) ResolveProgramAndVariation(ctx context.Context, setID, programLabel, variationLabel string) (*ProgramVariationResolution, error) {
	setID = normalize.SetID(setID)
	repos := repository.NewRepositories(s.db)
	has, err := s.hasTaxonomy(ctx, repos, setID)
	if err != nil || !has {
		return &ProgramVariationResolution{}, err
	}

	res := &ProgramVariationResolution{HasTaxonomy: true}
	programID := normalize.ProgramID(programLabel)
	if res.Program, err = repos.Programs.FindByKey(ctx, setID, programID); err != nil {
		return nil, fmt.Errorf("查询卡种失败: %w", err)
	}
	if res.Program == nil || normalize.Key(variationLabel) == "" {
		return res, nil
	}
	if res.Variation, err = repos.Variations.FindByKey(ctx, setID, programID, normalize.Key(variationLabel)); err != nil {
		return nil, fmt.Errorf("查询变体失败: %w", err)
	}
	return res, nil
}

// ResolveScopedParallel 按规范键识别平行版（其次按标签折叠比较），并检查它在该卡种下的合法范围
func (s *ResolutionService) ResolveScopedParallel(ctx context.Context, setID, programLabel, token string) (*ScopedParallelResolution, error) {
	setID = normalize.SetID(setID)
	repos := repository.NewRepositories(s.db)
	has, err := s.hasTaxonomy(ctx, repos, setID)
	if err != nil || !has {
		return &ScopedParallelResolution{ProgramID: normalize.ProgramID(programLabel)}, err
	}

	res := &ScopedParallelResolution{HasTaxonomy: true, ProgramID: normalize.ProgramID(programLabel)}
	parallelID := normalize.Key(token)
	if parallelID == "" {
		return res, nil
	}
	if res.Parallel, err = repos.Parallels.FindByKey(ctx, setID, parallelID); err != nil {
		return nil, fmt.Errorf("查询平行版失败: %w", err)
	}
	if res.Parallel == nil {
		parallels, err := repos.Parallels.ListBySet(ctx, setID)
		if err != nil {
			return nil, fmt.Errorf("查询平行版列表失败: %w", err)
		}
		for _, p := range parallels {
			if normalize.Equal(p.Label, token) {
				res.Parallel = p
				break
			}
		}
	}
	if res.Parallel == nil {
		return res, nil
	}

	scopes, err := repos.Scopes.ListBySet(ctx, setID)
	if err != nil {
		return nil, fmt.Errorf("查询平行版范围失败: %w", err)
	}
	for _, sc := range scopes {
		if sc.ProgramID == res.ProgramID && sc.ParallelID == res.Parallel.ParallelID {
			res.InScope = true
			res.ScopeKeys = append(res.ScopeKeys, sc.ScopeKey)
		}
	}
	return res, nil
}

// ResolveTaxonomyScopeForMatcher 整套系层级视图，附带旧版变体与回退开关信息
func (s *ResolutionService) ResolveTaxonomyScopeForMatcher(ctx context.Context, setID string) (*MatcherScope, error) {
	setID = normalize.SetID(setID)
	repos := repository.NewRepositories(s.db)
	out := &MatcherScope{SetID: setID, LegacyFallbackAllowed: s.flags.LegacyFallbackAllowed(ctx, setID)}
	if s.cache != nil {
		hasLegacy, err := s.cache.Has(ctx, setID)
		if err != nil {
			return nil, fmt.Errorf("读取旧版套系缓存失败: %w", err)
		}
		out.HasLegacyVariants = hasLegacy
	}
	has, err := s.hasTaxonomy(ctx, repos, setID)
	if err != nil || !has {
		return out, err
	}
	out.HasTaxonomy = true

	programs, err := repos.Programs.ListBySet(ctx, setID)
	if err != nil {
		return nil, fmt.Errorf("查询卡种失败: %w", err)
	}
	cards, err := repos.Cards.ListBySet(ctx, setID)
	if err != nil {
		return nil, fmt.Errorf("查询卡片失败: %w", err)
	}
	variations, err := repos.Variations.ListBySet(ctx, setID)
	if err != nil {
		return nil, fmt.Errorf("查询变体失败: %w", err)
	}
	scopes, err := repos.Scopes.ListBySet(ctx, setID)
	if err != nil {
		return nil, fmt.Errorf("查询平行版范围失败: %w", err)
	}

	index := make(map[string]int, len(programs))
	for _, p := range programs {
		index[p.ProgramID] = len(out.Programs)
		out.Programs = append(out.Programs, ProgramScope{
			ProgramID:    p.ProgramID,
			Label:        p.Label,
			ProgramClass: normalize.Deref(p.ProgramClass),
			ParallelIDs:  []string{},
			VariationIDs: []string{},
		})
	}
	for _, c := range cards {
		if i, ok := index[c.ProgramID]; ok {
			out.Programs[i].CardCount++
		}
	}
	for _, v := range variations {
		if i, ok := index[v.ProgramID]; ok {
			out.Programs[i].VariationIDs = appendUnique(out.Programs[i].VariationIDs, v.VariationID)
		}
	}
	for _, sc := range scopes {
		if i, ok := index[sc.ProgramID]; ok {
			out.Programs[i].ParallelIDs = appendUnique(out.Programs[i].ParallelIDs, sc.ParallelID)
		}
	}
	return out, nil
}
