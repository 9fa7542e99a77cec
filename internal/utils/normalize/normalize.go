// Package normalize 文本与规范键工具：所有比较键、规范身份键都从这里生成
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/k3a/html2text"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	keySeparator = "::"

	// 缺省占位
	DefaultProgramID = "base"
	NoneKey          = "none"
	AnyKey           = "any"

	maxSetIDLen = 128
)

var (
	multiSpace  = regexp.MustCompile(`\s+`)
	nonKeyChars = regexp.MustCompile(`[^a-z0-9]+`)
	htmlHint    = regexp.MustCompile(`&[#a-zA-Z0-9]+;|<[a-zA-Z/!]`)
)

// Text 清洗自由文本：HTML 实体/标签、Unicode 兼容形式、空白折叠
func Text(s string) string {
	if s == "" {
		return ""
	}
	if htmlHint.MatchString(s) {
		s = html2text.HTML2Text(s)
	}
	s = norm.NFKC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Fold 大小写/空白不敏感的比较形式
func Fold(s string) string {
	return strings.ToLower(Text(s))
}

// Equal 忽略大小写和空白差异的比较："Gold /99" 与 "gold/99" 相等
func Equal(a, b string) bool {
	return compact(Fold(a)) == compact(Fold(b))
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// Key 生成比较键：去音标、小写、非字母数字折叠为 "-"
// "Gold /99" → "gold-99"
func Key(s string) string {
	s = Fold(s)
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(t, s); err == nil {
		s = stripped
	}
	s = nonKeyChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// KeyOr 规范键为空时使用兜底值
func KeyOr(s, fallback string) string {
	if k := Key(s); k != "" {
		return k
	}
	return fallback
}

// ProgramID 卡种标签 → program_id，空标签归入 base
func ProgramID(label string) string {
	return KeyOr(label, DefaultProgramID)
}

// CardNumber 卡号规范化："# 12a" → "12A"
func CardNumber(s string) string {
	s = Text(s)
	s = strings.TrimLeft(s, "#")
	s = strings.ReplaceAll(s, " ", "")
	return strings.ToUpper(s)
}

// SetID 套系标识规范化（保留大小写，只清洗空白）
func SetID(s string) string {
	return Text(s)
}

// ValidSetID 套系标识非空且长度在列宽之内
func ValidSetID(s string) bool {
	s = SetID(s)
	return s != "" && len(s) <= maxSetIDLen && Key(s) != ""
}

// CanonicalKey 规范身份键 setId::programId::cardNumber::variationId::parallelId
// 输入先各自规范化，因此同一逻辑身份与入库顺序无关
func CanonicalKey(setID, programID, cardNumber, variationID, parallelID string) string {
	return strings.Join([]string{
		Key(setID),
		KeyOr(programID, DefaultProgramID),
		Key(CardNumber(cardNumber)),
		KeyOr(variationID, NoneKey),
		KeyOr(parallelID, DefaultProgramID),
	}, keySeparator)
}

// ScopeKey programId::parallelId::(variationId|none)::(formatKey|any)::(channelKey|any)
func ScopeKey(programID, parallelID, variationID, formatKey, channelKey string) string {
	return strings.Join([]string{
		KeyOr(programID, DefaultProgramID),
		Key(parallelID),
		KeyOr(variationID, NoneKey),
		KeyOr(formatKey, AnyKey),
		KeyOr(channelKey, AnyKey),
	}, keySeparator)
}

// OddsKey programId::parallelId::formatKey::channelKey，缺省分别为 none/none/any/any
func OddsKey(programID, parallelID, formatKey, channelKey string) string {
	return strings.Join([]string{
		KeyOr(programID, NoneKey),
		KeyOr(parallelID, NoneKey),
		KeyOr(formatKey, AnyKey),
		KeyOr(channelKey, AnyKey),
	}, keySeparator)
}

// LegacyKey 旧版变体的比较键 setId::cardNumber::parallel
func LegacyKey(setID, cardNumber, parallelLabel string) string {
	return strings.Join([]string{
		Key(setID),
		Key(CardNumber(cardNumber)),
		KeyOr(parallelLabel, DefaultProgramID),
	}, keySeparator)
}

// Join 用规范分隔符拼接（冲突实体键、待定键等）
func Join(parts ...string) string {
	return strings.Join(parts, keySeparator)
}

// StrPtr 空串返回 nil
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref nil 返回空串
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
