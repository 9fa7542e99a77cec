package service

import (
	"testing"

	"TaxonomySync/internal/model"
	"TaxonomySync/internal/utils/normalize"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityResolverOnBootstrappedSet(t *testing.T) {
	env := newTestEnv(t)
	env.seedVariants(t,
		model.CardVariant{ID: "v1", SetID: testSetID, CardNumber: "5", ParallelID: "Gold /99"},
		model.CardVariant{ID: "v2", SetID: testSetID, CardNumber: "6", ParallelID: "Base"},
	)
	_, err := env.svc.BackfillFromLegacyVariants(env.context, &BackfillRequest{SetID: testSetID})
	require.NoError(t, err)
	env.ingest(t, &IngestRequest{
		SetID:       testSetID,
		DatasetType: model.DatasetChecklist,
		RawPayload:  rows(t, []map[string]interface{}{{"program": "Inserts", "cardNumber": "I-1"}}),
	})

	ix, err := NewIdentityResolver(env.db, env.cache, env.logger).Build(env.context, []string{testSetID, " " + testSetID})
	require.NoError(t, err)

	direct := ix.Resolve(testSetID, "#5", "gold /99")
	assert.Equal(t, StrategyLegacyMap, direct.Strategy)
	assert.Equal(t, "v1", direct.VariantID)
	assert.Equal(t, "2024-topps-chrome::base::5::none::gold-99", direct.Preferred)
	assert.Equal(t, "2024-topps-chrome::base::5::none::gold-99", ix.VariantToCanonical["v1"])

	byParallel := ix.Resolve(testSetID, "12", "Gold /99")
	assert.Equal(t, StrategyScoped, byParallel.Strategy)
	assert.Equal(t, []string{"2024-topps-chrome::base::12::none::gold-99"}, byParallel.CanonicalKeys)
	assert.Empty(t, byParallel.VariantID)

	byCard := ix.Resolve(testSetID, "I-1", "Blue")
	assert.Equal(t, StrategyScoped, byCard.Strategy)
	assert.Equal(t, normalize.CanonicalKey(testSetID, "inserts", "I-1", "", "blue"), byCard.Preferred)

	fallback := ix.Resolve(testSetID, "99", "Red Wave")
	assert.Equal(t, StrategyFallback, fallback.Strategy)
	assert.Equal(t, "2024-topps-chrome::base::99::none::red-wave", fallback.Preferred)
}

func TestIdentityResolverSkipsLegacyReadsForSetsWithoutVariants(t *testing.T) {
	env := newTestEnv(t)
	env.ingest(t, &IngestRequest{
		SetID:       testSetID,
		DatasetType: model.DatasetChecklist,
		RawPayload:  rows(t, []map[string]interface{}{{"program": "Base", "cardNumber": "1", "parallel": "Gold"}}),
	})

	ix, err := NewIdentityResolver(env.db, env.cache, env.logger).Build(env.context, []string{testSetID})
	require.NoError(t, err)
	assert.Empty(t, ix.LegacyToVariant)
	assert.Empty(t, ix.CanonicalKeysByLegacyKey)

	res := ix.Resolve(testSetID, "1", "Gold")
	assert.Equal(t, StrategyScoped, res.Strategy)
	assert.Equal(t, "2024-topps-chrome::base::1::none::gold", res.Preferred)
}
