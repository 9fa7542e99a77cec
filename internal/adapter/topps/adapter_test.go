package topps

import (
	"encoding/json"
	"io"
	"testing"

	"TaxonomySync/internal/adapter/rowset"
	"TaxonomySync/internal/interfaces"
	"TaxonomySync/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdapter() interfaces.SetAdapter {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return NewToppsAdapter(nil, l)
}

func TestExpandFormatColumns(t *testing.T) {
	row := rowset.Row{"program": "Base", "parallel": "Gold /50", "hobby": "1:24", "retail": "1:96", "jumbo": "n/a"}
	out := expandFormatColumns(row)
	require.Len(t, out, 2)
	assert.Equal(t, "hobby", out[0]["format"])
	assert.Equal(t, "1:24", out[0]["odds"])
	assert.Equal(t, "retail", out[1]["format"])
	_, ok := out[1].Raw("hobby")
	assert.False(t, ok)

	// 已有统一 odds 字段时不展开
	plain := rowset.Row{"odds": "1:10", "hobby": "1:24"}
	assert.Len(t, expandFormatColumns(plain), 1)
}

func TestToppsBuildOfficialOdds(t *testing.T) {
	a := newAdapter()
	assert.True(t, a.CanRun(interfaces.DispatchHints{SetName: "2024 Bowman Chrome"}))
	assert.False(t, a.CanRun(interfaces.DispatchHints{SetName: "2024 Bowman Chrome", DatasetType: model.DatasetPlayerWorksheet}))

	payload, err := json.Marshal([]map[string]interface{}{
		{"parallel": "Gold Refractor /50", "Hobby": "1:24", "Jumbo": "1:8"},
	})
	require.NoError(t, err)
	out := a.Build(&model.AdapterInput{
		SetID:       "2024 Topps Chrome",
		DatasetType: model.DatasetOdds,
		RawPayload:  payload,
		SourceURL:   "https://www.topps.com/odds",
	})
	assert.Equal(t, model.SourceOfficialOdds, out.SourceKind)
	assert.Equal(t, model.ArtifactOdds, out.ArtifactType)
	require.Len(t, out.OddsRows, 2)
	assert.Equal(t, "hobby", out.OddsRows[0].FormatKey)
	assert.Equal(t, "jumbo", out.OddsRows[1].FormatKey)
	require.NotEmpty(t, out.Parallels)
	assert.Equal(t, "refractor", out.Parallels[0].FinishFamily)
}
