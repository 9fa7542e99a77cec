package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	assert.Equal(t, "Gold & Silver", Text("  Gold &amp;   Silver "))
	assert.Equal(t, "Base Set", Text("Base \tSet"))
	assert.Equal(t, "", Text("   "))
}

func TestKey(t *testing.T) {
	cases := map[string]string{
		"Gold /99":            "gold-99",
		"  Base ":             "base",
		"Café Refractor":      "cafe-refractor",
		"Rookie&nbsp;Auto":    "rookie-auto",
		"---":                 "",
		"Red Wave Prizm /149": "red-wave-prizm-149",
	}
	for in, want := range cases {
		assert.Equal(t, want, Key(in), "input %q", in)
	}
}

func TestEqualIgnoresCaseAndWhitespace(t *testing.T) {
	assert.True(t, Equal("A.  Example", "a. example"))
	assert.False(t, Equal("A. Example", "B. Other"))
	assert.True(t, Equal("Gold /99", "Gold/99"))
	assert.True(t, Equal("Gold\u00a0/ 99", "gold /99"))
	assert.False(t, Equal("Gold /99", "Gold /90"))
}

func TestProgramIDFallsBackToBase(t *testing.T) {
	assert.Equal(t, "base", ProgramID(""))
	assert.Equal(t, "base", ProgramID("Base"))
	assert.Equal(t, "future-stars", ProgramID("Future Stars"))
}

func TestCardNumber(t *testing.T) {
	assert.Equal(t, "12A", CardNumber("# 12a"))
	assert.Equal(t, "RC-5", CardNumber("rc-5"))
}

func TestCanonicalKeyIsStable(t *testing.T) {
	a := CanonicalKey("2024 Topps Chrome", "Base", "#5", "", "Gold /99")
	b := CanonicalKey("2024  topps chrome", "base", "5", "none", "gold-99")
	assert.Equal(t, "2024-topps-chrome::base::5::none::gold-99", a)
	assert.Equal(t, a, b)
}

func TestScopeAndOddsKeys(t *testing.T) {
	assert.Equal(t, "base::gold-99::none::any::any", ScopeKey("base", "Gold /99", "", "", ""))
	assert.Equal(t, "base::gold::sp::hobby::any", ScopeKey("base", "gold", "SP", "Hobby", ""))
	assert.Equal(t, "none::none::any::any", OddsKey("", "", "", ""))
	assert.Equal(t, "base::gold-99::hobby::any", OddsKey("base", "gold-99", "Hobby", ""))
}

func TestValidSetID(t *testing.T) {
	assert.True(t, ValidSetID("2024 Topps Chrome"))
	assert.False(t, ValidSetID("   "))
	assert.False(t, ValidSetID("!!!"))
}
