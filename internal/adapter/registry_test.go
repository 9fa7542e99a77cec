package adapter

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

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestEveryKindHasFactory(t *testing.T) {
	assert.Empty(t, MissingFactories())
}

func TestDispatcherSelectsFirstMatch(t *testing.T) {
	d, err := NewDispatcher(config.Default(), testLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"Topps", "Panini", "Upper Deck"}, d.Names())

	cases := []struct {
		name  string
		hints interfaces.DispatchHints
		want  model.AdapterKind
	}{
		{"set name", interfaces.DispatchHints{DatasetType: model.DatasetChecklist, SetName: "2024 Topps Chrome"}, model.AdapterTopps},
		{"url domain", interfaces.DispatchHints{DatasetType: model.DatasetOdds, SetName: "2023 Prizm", SourceURL: "https://www.paniniamerica.net/odds"}, model.AdapterPanini},
		{"provider", interfaces.DispatchHints{DatasetType: model.DatasetChecklist, SetName: "2022-23 Series 1", Provider: "Upper Deck"}, model.AdapterUpperDeck},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, ok := d.Select(tc.hints)
			require.True(t, ok)
			assert.Equal(t, tc.want, a.Kind())
		})
	}
}

func TestDispatcherRejectsWorksheetAndUnknown(t *testing.T) {
	d, err := NewDispatcher(config.Default(), testLogger())
	require.NoError(t, err)

	_, ok := d.Select(interfaces.DispatchHints{DatasetType: model.DatasetPlayerWorksheet, SetName: "2024 Topps Chrome"})
	assert.False(t, ok)

	_, ok = d.Select(interfaces.DispatchHints{DatasetType: model.DatasetChecklist, SetName: "1990 Pro Set"})
	assert.False(t, ok)
}

func TestDispatcherHonorsConfig(t *testing.T) {
	off := false
	cfg := config.Default()
	cfg.Adapters = map[string]config.AdapterConfig{
		"topps":  {Enabled: &off},
		"panini": {SetTokens: []string{"leaf"}},
	}
	d, err := NewDispatcher(cfg, testLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"Panini", "Upper Deck"}, d.Names())

	_, ok := d.Select(interfaces.DispatchHints{DatasetType: model.DatasetChecklist, SetName: "2024 Topps Chrome"})
	assert.False(t, ok)

	a, ok := d.Select(interfaces.DispatchHints{DatasetType: model.DatasetChecklist, SetName: "2021 Leaf Metal"})
	require.True(t, ok)
	assert.Equal(t, model.AdapterPanini, a.Kind())
}

func TestHintsFromParseSummary(t *testing.T) {
	h := Hints(&model.AdapterInput{
		SetID:        "set-1",
		DatasetType:  model.DatasetChecklist,
		RawPayload:   json.RawMessage(`[]`),
		ParseSummary: map[string]interface{}{"provider": "topps", "setName": "2024 Topps Chrome"},
	})
	assert.Equal(t, "topps", h.Provider)
	assert.Equal(t, "2024 Topps Chrome", h.SetName)

	h = Hints(&model.AdapterInput{SetID: "2024 Bowman"})
	assert.Equal(t, "2024 Bowman", h.SetName)
	assert.Empty(t, h.Provider)
}
