package upperdeck

import (
	"encoding/json"
	"io"
	"testing"

	"TaxonomySync/internal/config"
	"TaxonomySync/internal/interfaces"
	"TaxonomySync/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdapter(cfg *config.AdapterConfig) interfaces.SetAdapter {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return NewUpperDeckAdapter(cfg, l)
}

func TestUpperDeckCanRun(t *testing.T) {
	a := newAdapter(nil)
	assert.True(t, a.CanRun(interfaces.DispatchHints{SetName: "2023-24 Upper Deck Series 1"}))
	assert.True(t, a.CanRun(interfaces.DispatchHints{SetName: "Hockey", SourceURL: "https://www.upperdeck.com/checklist"}))
	assert.True(t, a.CanRun(interfaces.DispatchHints{SetName: "Hockey", Provider: "Upper Deck"}))
	assert.False(t, a.CanRun(interfaces.DispatchHints{SetName: "2024 Topps Chrome"}))
	assert.False(t, a.CanRun(interfaces.DispatchHints{SetName: "2023-24 Upper Deck", DatasetType: model.DatasetPlayerWorksheet}))

	extra := newAdapter(&config.AdapterConfig{SetTokens: []string{"artifacts"}})
	assert.True(t, extra.CanRun(interfaces.DispatchHints{SetName: "2023 Artifacts Hockey"}))
}

func TestUpperDeckBuildReadsTierAndCardID(t *testing.T) {
	payload, err := json.Marshal(map[string]interface{}{
		"items": []map[string]interface{}{
			{"tier": "Young Guns", "cardId": "201", "playerName": "A. Rookie"},
			{"subsetName": "Canvas", "cardId": "C-12", "playerName": "B. Veteran"},
			{"cardId": "1", "playerName": "C. Base"},
		},
	})
	require.NoError(t, err)

	out := newAdapter(nil).Build(&model.AdapterInput{
		SetID:       "2023-24 Upper Deck Series 1",
		DatasetType: model.DatasetChecklist,
		RawPayload:  payload,
		SourceURL:   "https://www.upperdeck.com/checklists/series-1",
	})
	assert.Equal(t, model.SourceOfficialChecklist, out.SourceKind)
	assert.Equal(t, model.ArtifactChecklist, out.ArtifactType)
	assert.Equal(t, "upper_deck", out.Metadata["adapter"])

	labels := make([]string, 0, len(out.Programs))
	for _, p := range out.Programs {
		labels = append(labels, p.Label)
	}
	assert.ElementsMatch(t, []string{"Young Guns", "Canvas", "Base"}, labels)

	require.Len(t, out.Cards, 3)
	assert.Equal(t, model.CardDraft{ProgramLabel: "Young Guns", CardNumber: "201", PlayerName: "A. Rookie"}, out.Cards[0])
	assert.Equal(t, model.CardDraft{ProgramLabel: "Canvas", CardNumber: "C-12", PlayerName: "B. Veteran"}, out.Cards[1])
	assert.Equal(t, "Base", out.Cards[2].ProgramLabel)
}
