package rowset

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"TaxonomySync/internal/config"
	"TaxonomySync/internal/model"
	"TaxonomySync/internal/utils/normalize"
)

const (
	officialConfidence  = 0.9
	secondaryConfidence = 0.68

	baseProgramLabel = "Base"
)

// Profile 厂商画像：匹配词、官方来源、额外别名
type Profile struct {
	Kind              model.AdapterKind
	Manufacturer      string
	SetTokens         []string // 套系名匹配词
	DomainTokens      []string // 来源 URL 主机名匹配词
	ProviderTokens    []string // provider 匹配词
	OfficialDomains   []string // 官方域名（主机名等于或以其结尾）
	OfficialProviders []string // 官方 provider
	ExtraAliases      map[Field][]string
	Expand            func(Row) []Row // 厂商特有的行展开（一行多平行版、按盒型分列的赔率等），可为空
}

// ApplyConfig 合并配置文件中的补充匹配词与官方来源
func (p *Profile) ApplyConfig(cfg *config.AdapterConfig) {
	if cfg == nil {
		return
	}
	p.SetTokens = append(p.SetTokens, cfg.SetTokens...)
	p.OfficialDomains = append(p.OfficialDomains, cfg.OfficialDomains...)
	p.OfficialProviders = append(p.OfficialProviders, cfg.OfficialProviders...)
}

// Rows 取行并应用厂商展开
func (p *Profile) Rows(raw json.RawMessage) []Row {
	rows := ExtractRows(raw)
	if p.Expand == nil {
		return rows
	}
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, p.Expand(r)...)
	}
	return out
}

// Matches 任一维度命中即可（套系名 / URL 域名 / provider）
func (p *Profile) Matches(setName, sourceURL, provider string) bool {
	if containsAny(normalize.Fold(setName), p.SetTokens) {
		return true
	}
	if host := hostOf(sourceURL); host != "" && containsAny(host, p.DomainTokens) {
		return true
	}
	return containsAny(normalize.Fold(provider), p.ProviderTokens)
}

// IsOfficial 来源 URL 或 provider 属于厂商官方
func (p *Profile) IsOfficial(sourceURL, provider string) bool {
	if host := hostOf(sourceURL); host != "" {
		for _, d := range p.OfficialDomains {
			d = strings.ToLower(strings.TrimSpace(d))
			if d != "" && (host == d || strings.HasSuffix(host, "."+d)) {
				return true
			}
		}
	}
	fp := normalize.Fold(provider)
	if fp == "" {
		return false
	}
	for _, op := range p.OfficialProviders {
		if fp == normalize.Fold(op) {
			return true
		}
	}
	return false
}

func (p *Profile) aliases(f Field) []string {
	extra := p.ExtraAliases[f]
	if len(extra) == 0 {
		return DefaultAliases[f]
	}
	out := make([]string, 0, len(extra)+len(DefaultAliases[f]))
	out = append(out, DefaultAliases[f]...)
	return append(out, extra...)
}

// Provider 从解析摘要中取 provider
func Provider(summary map[string]interface{}) string {
	return summaryString(summary, "provider", "sourceProvider", "source")
}

// SetName 解析摘要中的套系名，缺省用 setId
func SetName(setID string, summary map[string]interface{}) string {
	if s := summaryString(summary, "setName", "set", "title"); s != "" {
		return s
	}
	return setID
}

func summaryString(summary map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := summary[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func containsAny(haystack string, tokens []string) bool {
	if haystack == "" {
		return false
	}
	for _, t := range tokens {
		t = normalize.Fold(t)
		if t != "" && strings.Contains(haystack, t) {
			return true
		}
	}
	return false
}

func hostOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// parsedRow 按别名抽取后的行
type parsedRow struct {
	program, cardNumber, parallel, variation, playerName string
	oddsText, serialText, formatKey, channelKey         string
	codePrefix, scopeNote, finishFamily                 string
	serialDenominator                                   *int
	explicitAttrs                                       bool   // 编号/表面工艺列显式给出
	programNoise, parallelNoise                         string // 被丢弃的噪声原文
}

func (p *Profile) parse(r Row) parsedRow {
	pr := parsedRow{
		program:      r.Lookup(p.aliases(FieldProgram)),
		cardNumber:   normalize.CardNumber(r.Lookup(p.aliases(FieldCardNumber))),
		parallel:     r.Lookup(p.aliases(FieldParallel)),
		variation:    r.Lookup(p.aliases(FieldVariation)),
		playerName:   r.Lookup(p.aliases(FieldPlayerName)),
		oddsText:     r.Lookup(p.aliases(FieldOddsText)),
		serialText:   r.Lookup(p.aliases(FieldSerialText)),
		formatKey:    normalize.Key(r.Lookup(p.aliases(FieldFormatKey))),
		channelKey:   normalize.Key(r.Lookup(p.aliases(FieldChannelKey))),
		codePrefix:   r.Lookup(p.aliases(FieldCodePrefix)),
		scopeNote:    r.Lookup(p.aliases(FieldScopeNote)),
		finishFamily: r.Lookup(p.aliases(FieldFinishFamily)),
	}
	if IsNoise(pr.program) {
		pr.programNoise, pr.program = pr.program, ""
	}
	if IsNoise(pr.parallel) {
		pr.parallelNoise, pr.parallel = pr.parallel, ""
	}
	pr.serialDenominator = ParseDenominator(r.Lookup(p.aliases(FieldSerialDenominator)))
	pr.explicitAttrs = pr.serialDenominator != nil || pr.serialText != "" || pr.finishFamily != ""
	if pr.serialDenominator == nil {
		pr.serialDenominator = SerialDenominator(pr.serialText, pr.parallel)
	}
	return pr
}

// hasOddsSignal 赔率文本、/N 编号或编号分母任一存在
func (pr *parsedRow) hasOddsSignal() bool {
	return pr.oddsText != "" ||
		HasSerialPattern(pr.parallel) ||
		HasSerialPattern(pr.serialText) ||
		pr.serialDenominator != nil
}

// definesParallel 行是否定义平行版本身：赔率类数据集、人工补丁、带卡号的清单行、
// 带赔率或显式编号/工艺列的行。其余只写平行版名的行仅引用已有平行版，引用不到时入待定队列
func (pr *parsedRow) definesParallel(dataset model.DatasetType) bool {
	if pr.parallel == "" {
		return false
	}
	return dataset.IsOdds() ||
		dataset == model.DatasetManualPatch ||
		pr.cardNumber != "" ||
		pr.oddsText != "" ||
		pr.explicitAttrs
}

// Build 通用构建：原始行 → AdapterOutput，附带推断的来源等级与提交物类型
func (p *Profile) Build(input *model.AdapterInput) *model.AdapterOutput {
	out := &model.AdapterOutput{}
	rows := p.Rows(input.RawPayload)

	var checklistSeen, oddsSeen bool
	skipped, noise := 0, 0
	baseEmitted := false
	emitBase := func() {
		if !baseEmitted {
			out.Programs = append(out.Programs, model.ProgramDraft{Label: baseProgramLabel, ProgramClass: "base"})
			baseEmitted = true
		}
	}

	for i, r := range rows {
		pr := p.parse(r)
		if pr.programNoise != "" || pr.parallelNoise != "" {
			noise++
		}
		oddsSignal := pr.hasOddsSignal()
		if input.DatasetType.IsOdds() && !oddsSignal {
			skipped++
			continue
		}
		if pr.cardNumber != "" {
			checklistSeen = true
		}
		if oddsSignal {
			oddsSeen = true
		}

		// 卡种标签是噪声：不挂到 base，整行进入待定队列（平行版本身与卡种无关，仍然输出）
		if pr.programNoise != "" {
			out.Ambiguities = append(out.Ambiguities, rowAmbiguity(input.SetID, i, &pr, "program label discarded as parser noise"))
			if pr.definesParallel(input.DatasetType) {
				out.Parallels = append(out.Parallels, p.parallelDraft(&pr))
			}
			continue
		}

		programLabel := pr.program
		if programLabel != "" {
			out.Programs = append(out.Programs, model.ProgramDraft{
				Label:        programLabel,
				CodePrefix:   pr.codePrefix,
				ProgramClass: InferProgramClass(programLabel),
			})
		}
		scopedProgram := programLabel
		needsProgram := pr.cardNumber != "" || pr.variation != "" || pr.parallel != ""
		if scopedProgram == "" && needsProgram {
			scopedProgram = baseProgramLabel
			emitBase()
		}

		if pr.cardNumber != "" {
			out.Cards = append(out.Cards, model.CardDraft{
				ProgramLabel: scopedProgram,
				CardNumber:   pr.cardNumber,
				PlayerName:   pr.playerName,
			})
		}
		if pr.variation != "" {
			out.Variations = append(out.Variations, model.VariationDraft{
				ProgramLabel: scopedProgram,
				Label:        pr.variation,
				ScopeNote:    pr.scopeNote,
			})
		}
		if pr.parallel != "" {
			if pr.definesParallel(input.DatasetType) {
				out.Parallels = append(out.Parallels, p.parallelDraft(&pr))
			}
			out.Scopes = append(out.Scopes, model.ScopeDraft{
				ProgramLabel:   scopedProgram,
				ParallelLabel:  pr.parallel,
				VariationLabel: pr.variation,
				FormatKey:      pr.formatKey,
				ChannelKey:     pr.channelKey,
			})
		} else if pr.parallelNoise != "" {
			out.Ambiguities = append(out.Ambiguities, rowAmbiguity(input.SetID, i, &pr, "parallel label discarded as parser noise"))
		}
		if pr.oddsText != "" {
			out.OddsRows = append(out.OddsRows, model.OddsDraft{
				ProgramLabel:  programLabel,
				ParallelLabel: pr.parallel,
				FormatKey:     pr.formatKey,
				ChannelKey:    pr.channelKey,
				OddsText:      pr.oddsText,
			})
		}
	}

	provider := Provider(input.ParseSummary)
	official := p.IsOfficial(input.SourceURL, provider)
	out.ArtifactType = InferArtifactType(input.DatasetType, checklistSeen, oddsSeen)
	out.SourceKind, out.ParserConfidence = inferSourceKind(official, out.ArtifactType)
	out.SourceLabel = p.sourceLabel(out.ArtifactType, input.SourceURL)
	out.Metadata = map[string]interface{}{
		"adapter":        string(p.Kind),
		"manufacturer":   p.Manufacturer,
		"datasetType":    string(input.DatasetType),
		"provider":       provider,
		"officialSource": official,
		"rowCount":       len(rows),
		"skippedRows":    skipped,
		"noiseDiscarded": noise,
	}
	if input.ParseSummary != nil {
		out.Metadata["parseSummary"] = input.ParseSummary
	}
	return out
}

func (p *Profile) parallelDraft(pr *parsedRow) model.ParallelDraft {
	finish := pr.finishFamily
	if finish == "" {
		finish = InferFinishFamily(pr.parallel)
	}
	serialText := pr.serialText
	if serialText == "" && pr.serialDenominator != nil {
		serialText = fmt.Sprintf("/%d", *pr.serialDenominator)
	}
	return model.ParallelDraft{
		Label:             pr.parallel,
		SerialDenominator: pr.serialDenominator,
		SerialText:        serialText,
		FinishFamily:      finish,
	}
}

// inferSourceKind 官方来源按提交物类型映射；手工补丁固定为 MANUAL_PATCH；其余为可信二手来源
func inferSourceKind(official bool, artifact model.ArtifactType) (model.SourceKind, float64) {
	if artifact == model.ArtifactManualPatch {
		return model.SourceManualPatch, officialConfidence
	}
	if official {
		if artifact == model.ArtifactOdds {
			return model.SourceOfficialOdds, officialConfidence
		}
		return model.SourceOfficialChecklist, officialConfidence
	}
	return model.SourceTrustedSecondary, secondaryConfidence
}

func (p *Profile) sourceLabel(artifact model.ArtifactType, sourceURL string) string {
	label := fmt.Sprintf("%s %s", p.Manufacturer, strings.ToLower(string(artifact)))
	if host := hostOf(sourceURL); host != "" {
		label += " (" + host + ")"
	}
	return label
}

func rowAmbiguity(setID string, index int, pr *parsedRow, reason string) model.AmbiguityDraft {
	entity := model.EntityCard
	if pr.cardNumber == "" {
		switch {
		case pr.parallel != "" || pr.parallelNoise != "":
			entity = model.EntityParallelScope
		case pr.oddsText != "":
			entity = model.EntityOddsRow
		case pr.variation != "":
			entity = model.EntityVariation
		}
	}
	raw := pr.programNoise
	if raw == "" {
		raw = pr.parallelNoise
	}
	rawKey := normalize.KeyOr(raw, "empty")
	if len(rawKey) > maxTokenLen {
		rawKey = rawKey[:maxTokenLen]
	}
	return model.AmbiguityDraft{
		EntityType:   entity,
		AmbiguityKey: normalize.Join(string(entity), "noise", rawKey, normalize.KeyOr(pr.cardNumber, fmt.Sprintf("row-%d", index))),
		Payload: map[string]interface{}{
			"reason":     reason,
			"setId":      setID,
			"row":        index,
			"rawLabel":   raw,
			"cardNumber": pr.cardNumber,
			"parallel":   pr.parallel,
			"variation":  pr.variation,
			"playerName": pr.playerName,
			"oddsText":   pr.oddsText,
		},
	}
}
