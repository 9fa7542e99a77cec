package rowset

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRowsShapes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int
	}{
		{"array", `[{"program":"Base","cardNumber":"1"},{"program":"Base","cardNumber":"2"}]`, 2},
		{"rows wrapper", `{"rows":[{"cardNumber":"1"}]}`, 1},
		{"data wrapper", `{"data":[{"cardNumber":"1"},{"cardNumber":"2"},{"cardNumber":"3"}]}`, 3},
		{"items wrapper", `{"items":[{"cardNumber":"1"}]}`, 1},
		{"single object", `{"program":"Base","cardNumber":"1"}`, 1},
		{"empty object", `{}`, 0},
		{"scalar", `42`, 0},
		{"garbage", `{not json`, 0},
		{"empty", ``, 0},
		{"non-object items skipped", `[1, "x", {"cardNumber":"9"}]`, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Len(t, ExtractRows(json.RawMessage(tc.raw)), tc.want)
		})
	}
}

func TestLookupFirstNonEmptyAlias(t *testing.T) {
	rows := ExtractRows(json.RawMessage(`{"program":"  ","Card_Type":"Future Stars","insertSet":"Other","card_number":12}`))
	require.Len(t, rows, 1)
	r := rows[0]

	assert.Equal(t, "Future Stars", r.Lookup(DefaultAliases[FieldProgram]))
	assert.Equal(t, "12", r.Lookup(DefaultAliases[FieldCardNumber]))
	assert.Equal(t, "", r.Lookup(DefaultAliases[FieldParallel]))
}

func TestIsNoise(t *testing.T) {
	noisy := []string{
		"1.7.4",
		"v2.0.1",
		"Helvetica-Bold",
		"Adobe PDF Library 15.0",
		"AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
	}
	for _, s := range noisy {
		assert.True(t, IsNoise(s), s)
	}
	clean := []string{"", "Base", "Gold Refractor /50", "1989 Topps Tribute", "Rookie Autographs"}
	for _, s := range clean {
		assert.False(t, IsNoise(s), s)
	}
}

func TestSerialDenominator(t *testing.T) {
	n := SerialDenominator("", "Gold /99")
	require.NotNil(t, n)
	assert.Equal(t, 99, *n)

	assert.Nil(t, SerialDenominator("Gold Refractor"))
	assert.Nil(t, SerialDenominator("/12345"))

	d := ParseDenominator("/250")
	require.NotNil(t, d)
	assert.Equal(t, 250, *d)
	assert.Nil(t, ParseDenominator("abc"))
}

func TestInferProgramClass(t *testing.T) {
	assert.Equal(t, "autograph", InferProgramClass("Rookie Autographs"))
	assert.Equal(t, "autograph", InferProgramClass("Signature Series"))
	assert.Equal(t, "relic", InferProgramClass("Game-Used Jersey"))
	assert.Equal(t, "relic", InferProgramClass("Patch Cards"))
	assert.Equal(t, "base", InferProgramClass("Base"))
	assert.Equal(t, "insert", InferProgramClass("Future Stars"))
}
