package rowset

import (
	"regexp"
	"strconv"
	"strings"

	"TaxonomySync/internal/model"
)

var (
	// 解析工具残留：纯版本号、字体/排版工具名
	versionNoise = regexp.MustCompile(`(?i)^v?\d+(\.\d+){1,3}[a-z0-9-]*$`)
	toolNoise    = []string{
		"helvetica", "arial", "times new roman", "calibri", "garamond", "futura",
		"adobe", "acrobat", "ghostscript", "pdfium", "itext", "microsoft word",
		"font-family", "fontfamily", "truetype", "opentype", "xmp.did", "uuid:",
	}
	maxTokenLen = 40

	serialPattern = regexp.MustCompile(`/\s*(\d{1,4})\b`)

	autographClass = regexp.MustCompile(`(?i)autograph|signature`)
	relicClass     = regexp.MustCompile(`(?i)relic|memorabilia|patch|jersey`)
	baseClass      = regexp.MustCompile(`(?i)\bbase\b`)

	finishFamilies = []string{"refractor", "prizm", "foil", "holo", "shimmer", "wave", "mojo", "cracked ice"}
)

// IsNoise 解析噪声判断：版本号、无空白的超长串、已知字体/工具串
func IsNoise(label string) bool {
	if label == "" {
		return false
	}
	if versionNoise.MatchString(label) {
		return true
	}
	if len(label) > maxTokenLen && !strings.ContainsAny(label, " \t") {
		return true
	}
	lower := strings.ToLower(label)
	for _, token := range toolNoise {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

// SerialDenominator 从 "/99" 形式中取分母
func SerialDenominator(texts ...string) *int {
	for _, s := range texts {
		if s == "" {
			continue
		}
		if m := serialPattern.FindStringSubmatch(s); len(m) == 2 {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				return &n
			}
		}
	}
	return nil
}

// ParseDenominator 显式的分母字段（"99" 或 "/99"）
func ParseDenominator(s string) *int {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "/"))
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > 9999 {
		return nil
	}
	return &n
}

// HasSerialPattern 文本中含 /N 编号
func HasSerialPattern(s string) bool {
	return serialPattern.MatchString(s)
}

// InferProgramClass 按标签推断卡种类别
func InferProgramClass(label string) string {
	switch {
	case autographClass.MatchString(label):
		return "autograph"
	case relicClass.MatchString(label):
		return "relic"
	case baseClass.MatchString(label):
		return "base"
	default:
		return "insert"
	}
}

// InferFinishFamily 按平行版标签推断工艺家族，无法判断时为空
func InferFinishFamily(label string) string {
	lower := strings.ToLower(label)
	for _, f := range finishFamilies {
		if strings.Contains(lower, f) {
			return f
		}
	}
	return ""
}

// InferArtifactType 数据集类型提示优先，否则按观察到的清单/赔率信号推断
func InferArtifactType(dataset model.DatasetType, checklistSeen, oddsSeen bool) model.ArtifactType {
	switch dataset {
	case model.DatasetParallelDB:
		return model.ArtifactOdds
	case model.DatasetPlayerWorksheet:
		return model.ArtifactChecklist
	case model.DatasetManualPatch:
		return model.ArtifactManualPatch
	}
	switch {
	case checklistSeen && oddsSeen:
		return model.ArtifactCombined
	case oddsSeen:
		return model.ArtifactOdds
	default:
		return model.ArtifactChecklist
	}
}
