package service

import (
	"testing"

	"TaxonomySync/internal/config"
	"TaxonomySync/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedResolutionSet(t *testing.T, env *testEnv) {
	env.ingest(t, &IngestRequest{
		SetID:       testSetID,
		DatasetType: model.DatasetChecklist,
		RawPayload: rows(t, []map[string]interface{}{
			{"program": "Base", "cardNumber": "1", "parallel": "Gold /50"},
			{"program": "Base", "variation": "Photo Variation"},
			{"program": "Inserts", "cardNumber": "I-1"},
		}),
	})
}

func TestResolveProgramAndVariation(t *testing.T) {
	env := newTestEnv(t)
	seedResolutionSet(t, env)
	svc := NewResolutionService(env.db, env.flags, env.cache, env.logger)

	res, err := svc.ResolveProgramAndVariation(env.context, testSetID, "", "photo variation")
	require.NoError(t, err)
	assert.True(t, res.HasTaxonomy)
	require.NotNil(t, res.Program)
	assert.Equal(t, "base", res.Program.ProgramID)
	require.NotNil(t, res.Variation)
	assert.Equal(t, "photo-variation", res.Variation.VariationID)

	res, err = svc.ResolveProgramAndVariation(env.context, testSetID, "Autographs", "")
	require.NoError(t, err)
	assert.True(t, res.HasTaxonomy)
	assert.Nil(t, res.Program)

	res, err = svc.ResolveProgramAndVariation(env.context, "1999 Unknown", "Base", "")
	require.NoError(t, err)
	assert.False(t, res.HasTaxonomy)
}

func TestResolveScopedParallel(t *testing.T) {
	env := newTestEnv(t)
	seedResolutionSet(t, env)
	svc := NewResolutionService(env.db, env.flags, env.cache, env.logger)

	res, err := svc.ResolveScopedParallel(env.context, testSetID, "Base", "gold /50")
	require.NoError(t, err)
	require.NotNil(t, res.Parallel)
	assert.Equal(t, "gold-50", res.Parallel.ParallelID)
	assert.True(t, res.InScope)
	assert.Equal(t, []string{"base::gold-50::none::any::any"}, res.ScopeKeys)

	res, err = svc.ResolveScopedParallel(env.context, testSetID, "Inserts", "Gold /50")
	require.NoError(t, err)
	require.NotNil(t, res.Parallel)
	assert.False(t, res.InScope)

	res, err = svc.ResolveScopedParallel(env.context, testSetID, "Base", "Red")
	require.NoError(t, err)
	assert.Nil(t, res.Parallel)
	assert.False(t, res.InScope)
}

func TestResolveTaxonomyScopeForMatcher(t *testing.T) {
	env := newTestEnv(t)
	seedResolutionSet(t, env)
	svc := NewResolutionService(env.db, env.flags, env.cache, env.logger)

	scope, err := svc.ResolveTaxonomyScopeForMatcher(env.context, testSetID)
	require.NoError(t, err)
	assert.True(t, scope.HasTaxonomy)
	assert.False(t, scope.HasLegacyVariants)
	assert.True(t, scope.LegacyFallbackAllowed)
	require.Len(t, scope.Programs, 2)
	assert.Equal(t, ProgramScope{
		ProgramID:    "base",
		Label:        "Base",
		ProgramClass: "base",
		CardCount:    1,
		ParallelIDs:  []string{"gold-50"},
		VariationIDs: []string{"photo-variation"},
	}, scope.Programs[0])
	assert.Equal(t, "inserts", scope.Programs[1].ProgramID)
	assert.Equal(t, 1, scope.Programs[1].CardCount)
	assert.Empty(t, scope.Programs[1].ParallelIDs)
}

func TestResolutionFallsBackWhenMatchingDisabled(t *testing.T) {
	env := newTestEnv(t)
	seedResolutionSet(t, env)
	flags := NewStaticFeatureFlags(config.FeatureConfig{IngestionV2: true, MatchingV2: false, LegacyFallback: true})
	svc := NewResolutionService(env.db, flags, env.cache, env.logger)

	scope, err := svc.ResolveTaxonomyScopeForMatcher(env.context, testSetID)
	require.NoError(t, err)
	assert.False(t, scope.HasTaxonomy)
	assert.Empty(t, scope.Programs)

	res, err := svc.ResolveScopedParallel(env.context, testSetID, "Base", "Gold /50")
	require.NoError(t, err)
	assert.False(t, res.HasTaxonomy)
	assert.Nil(t, res.Parallel)
}
