package rowset

import (
	"encoding/json"
	"testing"

	"TaxonomySync/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProfile() *Profile {
	return &Profile{
		Kind:              model.AdapterTopps,
		Manufacturer:      "Topps",
		SetTokens:         []string{"topps", "bowman"},
		DomainTokens:      []string{"topps"},
		ProviderTokens:    []string{"topps"},
		OfficialDomains:   []string{"topps.com"},
		OfficialProviders: []string{"topps-official"},
	}
}

func build(t *testing.T, dataset model.DatasetType, payload, sourceURL string) *model.AdapterOutput {
	t.Helper()
	out := testProfile().Build(&model.AdapterInput{
		SetID:       "2024 Topps Chrome",
		DatasetType: dataset,
		RawPayload:  json.RawMessage(payload),
		SourceURL:   sourceURL,
	})
	require.NotNil(t, out)
	return out
}

func TestBuildChecklistRow(t *testing.T) {
	out := build(t, model.DatasetChecklist, `{"rows":[{"program":"Base","cardNumber":"1","playerName":"A. Example"}]}`, "")

	require.Len(t, out.Programs, 1)
	assert.Equal(t, "Base", out.Programs[0].Label)
	assert.Equal(t, "base", out.Programs[0].ProgramClass)
	assert.Empty(t, out.Programs[0].CodePrefix)

	require.Len(t, out.Cards, 1)
	assert.Equal(t, model.CardDraft{ProgramLabel: "Base", CardNumber: "1", PlayerName: "A. Example"}, out.Cards[0])
	assert.Empty(t, out.Ambiguities)
	assert.Equal(t, model.ArtifactChecklist, out.ArtifactType)
	assert.Equal(t, model.SourceTrustedSecondary, out.SourceKind)
	assert.InDelta(t, 0.68, out.ParserConfidence, 1e-9)
}

func TestBuildCardWithoutProgramFallsBackToBase(t *testing.T) {
	out := build(t, model.DatasetChecklist, `[{"cardNumber":"7","parallel":"Gold /50"}]`, "")

	require.Len(t, out.Programs, 1)
	assert.Equal(t, "Base", out.Programs[0].Label)
	require.Len(t, out.Cards, 1)
	assert.Equal(t, "Base", out.Cards[0].ProgramLabel)
	require.Len(t, out.Parallels, 1)
	require.NotNil(t, out.Parallels[0].SerialDenominator)
	assert.Equal(t, 50, *out.Parallels[0].SerialDenominator)
	assert.Equal(t, "/50", out.Parallels[0].SerialText)
	require.Len(t, out.Scopes, 1)
	assert.Equal(t, "Base", out.Scopes[0].ProgramLabel)
	// card number plus a serial signal
	assert.Equal(t, model.ArtifactCombined, out.ArtifactType)
}

func TestBuildScopeOnlyRowReferencesParallel(t *testing.T) {
	out := build(t, model.DatasetChecklist, `[
		{"program":"Base","parallelLabel":"Gold Refractor /50"},
		{"program":"Base","parallel":"Sepia","finish":"refractor"},
		{"program":"Base","parallel":"Blue","odds":"1:12"}
	]`, "")

	require.Len(t, out.Scopes, 3)
	require.Len(t, out.Parallels, 2)
	assert.Equal(t, "Sepia", out.Parallels[0].Label)
	assert.Equal(t, "Blue", out.Parallels[1].Label)

	out = build(t, model.DatasetParallelDB, `[{"program":"Base","parallel":"Gold Refractor /50"}]`, "")
	require.Len(t, out.Parallels, 1)
	assert.Equal(t, 50, *out.Parallels[0].SerialDenominator)
}

func TestBuildNoiseProgramBecomesAmbiguity(t *testing.T) {
	out := build(t, model.DatasetChecklist, `[{"program":"Helvetica-BoldOblique","cardNumber":"3","playerName":"X"}]`, "")

	assert.Empty(t, out.Programs)
	assert.Empty(t, out.Cards)
	require.Len(t, out.Ambiguities, 1)
	assert.Equal(t, model.EntityCard, out.Ambiguities[0].EntityType)
	assert.Equal(t, "Helvetica-BoldOblique", out.Ambiguities[0].Payload["rawLabel"])
}

func TestBuildOddsDatasetSkipsRowsWithoutSignal(t *testing.T) {
	payload := `[
		{"program":"Base","parallel":"Refractor","odds":"1:3"},
		{"program":"Base","parallel":"Gold Refractor /50"},
		{"program":"Base","parallel":"Sepia"}
	]`
	out := build(t, model.DatasetOdds, payload, "")

	assert.Len(t, out.Parallels, 2)
	assert.Len(t, out.OddsRows, 1)
	assert.Equal(t, 1, out.Metadata["skippedRows"])
	assert.Equal(t, model.ArtifactOdds, out.ArtifactType)
	assert.Equal(t, "refractor", out.Parallels[0].FinishFamily)
}

func TestBuildOfficialSourceKinds(t *testing.T) {
	out := build(t, model.DatasetChecklist, `[{"program":"Base","cardNumber":"1"}]`, "https://www.topps.com/checklists/2024-chrome")
	assert.Equal(t, model.SourceOfficialChecklist, out.SourceKind)
	assert.InDelta(t, 0.9, out.ParserConfidence, 1e-9)
	assert.Equal(t, "Topps checklist (www.topps.com)", out.SourceLabel)

	out = build(t, model.DatasetParallelDB, `[{"parallel":"Gold /50"}]`, "https://cdn.topps.com/odds.pdf")
	assert.Equal(t, model.ArtifactOdds, out.ArtifactType)
	assert.Equal(t, model.SourceOfficialOdds, out.SourceKind)

	out = build(t, model.DatasetManualPatch, `[{"program":"Base","cardNumber":"1"}]`, "https://www.topps.com/x")
	assert.Equal(t, model.ArtifactManualPatch, out.ArtifactType)
	assert.Equal(t, model.SourceManualPatch, out.SourceKind)

	out = build(t, model.DatasetChecklist, `[{"program":"Base","cardNumber":"1"}]`, "https://faketopps.com.evil.net/x")
	assert.Equal(t, model.SourceTrustedSecondary, out.SourceKind)
}

func TestBuildUnparsablePayloadYieldsEmptyOutput(t *testing.T) {
	out := build(t, model.DatasetChecklist, `<<<not json>>>`, "")
	assert.Empty(t, out.Programs)
	assert.Empty(t, out.Cards)
	assert.Equal(t, 0, out.Metadata["rowCount"])
	assert.Equal(t, model.ArtifactChecklist, out.ArtifactType)
}

func TestProfileMatches(t *testing.T) {
	p := testProfile()
	assert.True(t, p.Matches("2024 Bowman Draft", "", ""))
	assert.True(t, p.Matches("Unknown", "https://checklists.topps.com/a", ""))
	assert.True(t, p.Matches("Unknown", "", "Topps Digital"))
	assert.False(t, p.Matches("2023 Panini Prizm", "https://paniniamerica.net", "panini"))
}

func TestProfileExpand(t *testing.T) {
	p := testProfile()
	p.Expand = func(r Row) []Row {
		a, b := r.Clone(), r.Clone()
		a.Set("cardNumber", "1")
		b.Set("cardNumber", "2")
		return []Row{a, b}
	}
	out := p.Build(&model.AdapterInput{
		SetID:       "2024 Topps Chrome",
		DatasetType: model.DatasetChecklist,
		RawPayload:  json.RawMessage(`{"program":"Base"}`),
	})
	assert.Len(t, out.Cards, 2)
}
