// Package rowset 厂商无关的原始行解析：取行、别名取值、噪声过滤、信号识别
package rowset

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"TaxonomySync/internal/utils/normalize"
)

// Row 一条原始行，键已折叠为小写字母数字（card_number / cardNumber → cardnumber）
type Row map[string]interface{}

// Field 行内可抽取的字段
type Field string

const (
	FieldProgram           Field = "program"
	FieldCardNumber        Field = "cardNumber"
	FieldParallel          Field = "parallel"
	FieldVariation         Field = "variation"
	FieldPlayerName        Field = "playerName"
	FieldOddsText          Field = "oddsText"
	FieldSerialText        Field = "serialText"
	FieldSerialDenominator Field = "serialDenominator"
	FieldFormatKey         Field = "formatKey"
	FieldChannelKey        Field = "channelKey"
	FieldCodePrefix        Field = "codePrefix"
	FieldScopeNote         Field = "scopeNote"
	FieldFinishFamily      Field = "finishFamily"
)

// DefaultAliases 按顺序取第一个非空值
var DefaultAliases = map[Field][]string{
	FieldProgram:           {"program", "programId", "programName", "programLabel", "cardType", "insertSet", "insert", "subset", "section"},
	FieldCardNumber:        {"cardNumber", "cardNo", "number", "card_num", "no", "card"},
	FieldParallel:          {"parallel", "parallelLabel", "parallelName", "parallelId", "parallelType", "colorway"},
	FieldVariation:         {"variation", "variationLabel", "variationName", "variationId", "variant"},
	FieldPlayerName:        {"playerName", "player", "athlete", "subject", "name"},
	FieldOddsText:          {"odds", "oddsText", "packOdds", "insertionRate", "ratio"},
	FieldSerialText:        {"serial", "serialText", "serialNumber", "numbered", "printRun"},
	FieldSerialDenominator: {"serialDenominator", "denominator", "numberedTo", "printRunSize"},
	FieldFormatKey:         {"format", "formatKey", "boxType", "packType", "configuration"},
	FieldChannelKey:        {"channel", "channelKey", "retailChannel", "distribution"},
	FieldCodePrefix:        {"codePrefix", "prefix", "cardPrefix"},
	FieldScopeNote:         {"scopeNote", "note", "notes"},
	FieldFinishFamily:      {"finishFamily", "finish", "finishType"},
}

var wrapperKeys = []string{"rows", "data", "items"}

// ExtractRows 接受数组、{rows|data|items:[...]} 包装对象或单个对象；无法解析时返回空
func ExtractRows(raw json.RawMessage) []Row {
	if len(raw) == 0 {
		return nil
	}
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil
	}
	return rowsFrom(decoded, true)
}

func rowsFrom(v interface{}, unwrap bool) []Row {
	switch t := v.(type) {
	case []interface{}:
		out := make([]Row, 0, len(t))
		for _, item := range t {
			if obj, ok := item.(map[string]interface{}); ok {
				out = append(out, foldRow(obj))
			}
		}
		return out
	case map[string]interface{}:
		if unwrap {
			for _, key := range wrapperKeys {
				if inner, ok := t[key]; ok {
					if list, ok := inner.([]interface{}); ok {
						return rowsFrom(list, false)
					}
				}
			}
		}
		if len(t) == 0 {
			return nil
		}
		return []Row{foldRow(t)}
	default:
		return nil
	}
}

func foldRow(obj map[string]interface{}) Row {
	row := make(Row, len(obj))
	for k, v := range obj {
		fk := foldKey(k)
		if _, exists := row[fk]; exists {
			continue
		}
		row[fk] = v
	}
	return row
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

func foldKey(k string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(k), "")
}

// Lookup 按别名顺序取第一个非空值
func (r Row) Lookup(aliases []string) string {
	for _, alias := range aliases {
		v, ok := r[foldKey(alias)]
		if !ok || v == nil {
			continue
		}
		if s := normalize.Text(stringify(v)); s != "" {
			return s
		}
	}
	return ""
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

// Clone 浅拷贝
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Set 以折叠后的键写入
func (r Row) Set(key string, value interface{}) {
	r[foldKey(key)] = value
}

// Raw 按折叠后的键取原值
func (r Row) Raw(key string) (interface{}, bool) {
	v, ok := r[foldKey(key)]
	return v, ok
}

// Delete 按折叠后的键删除
func (r Row) Delete(key string) {
	delete(r, foldKey(key))
}
