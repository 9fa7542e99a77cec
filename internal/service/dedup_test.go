package service

import (
	"testing"

	"TaxonomySync/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestDedupOutputCollapsesByNaturalKey(t *testing.T) {
	fifty := 50
	out := DedupOutput(&model.AdapterOutput{
		Programs: []model.ProgramDraft{
			{Label: "Base"},
			{Label: " BASE ", CodePrefix: "B"},
			{Label: "Future Stars"},
		},
		Cards: []model.CardDraft{
			{ProgramLabel: "Base", CardNumber: "1"},
			{ProgramLabel: "base", CardNumber: "#1", PlayerName: "A. Example"},
			{ProgramLabel: "", CardNumber: "1"},
		},
		Parallels: []model.ParallelDraft{
			{Label: "Gold /50"},
			{Label: "gold  /50", SerialDenominator: &fifty, SerialText: "/50"},
		},
		Scopes: []model.ScopeDraft{
			{ProgramLabel: "Base", ParallelLabel: "Gold /50"},
			{ProgramLabel: "", ParallelLabel: "GOLD /50"},
			{ProgramLabel: "Base", ParallelLabel: "Gold /50", FormatKey: "hobby"},
		},
		OddsRows: []model.OddsDraft{
			{ParallelLabel: "Gold /50", OddsText: "1:24"},
			{ParallelLabel: "Gold /50", OddsText: "1:25"},
		},
		Ambiguities: []model.AmbiguityDraft{{AmbiguityKey: "k"}, {AmbiguityKey: "k"}},
		SourceKind:  model.SourceTrustedSecondary,
	})

	assert.Len(t, out.Programs, 2)
	assert.Equal(t, "Base", out.Programs[0].Label)
	assert.Equal(t, "B", out.Programs[0].CodePrefix)

	// 空卡种标签与 base 同键
	assert.Len(t, out.Cards, 1)
	assert.Equal(t, "A. Example", out.Cards[0].PlayerName)

	assert.Len(t, out.Parallels, 1)
	assert.Equal(t, "Gold /50", out.Parallels[0].Label)
	assert.Equal(t, &fifty, out.Parallels[0].SerialDenominator)

	assert.Len(t, out.Scopes, 2)
	assert.Len(t, out.OddsRows, 1)
	assert.Equal(t, "1:24", out.OddsRows[0].OddsText)
	assert.Len(t, out.Ambiguities, 1)
	assert.Equal(t, model.SourceTrustedSecondary, out.SourceKind)
}

func TestDedupOutputNil(t *testing.T) {
	assert.Nil(t, DedupOutput(nil))
	out := DedupOutput(&model.AdapterOutput{})
	assert.Nil(t, out.Programs)
}
