package model

import "encoding/json"

// AdapterInput 一次入库调用交给适配器的原始输入
type AdapterInput struct {
	SetID         string
	DatasetType   DatasetType
	RawPayload    json.RawMessage // 数组 / {rows|data|items:[...]} / 单个对象
	SourceURL     string
	ParserVersion string
	ParseSummary  map[string]interface{} // 上游解析摘要（provider、setName 等）
}

// ProgramDraft 适配器输出的卡种（以标签引用，入库时再规范化）
type ProgramDraft struct {
	Label        string `json:"label,omitempty"`
	CodePrefix   string `json:"codePrefix,omitempty"`
	ProgramClass string `json:"programClass,omitempty"`
}

// CardDraft 适配器输出的卡片
type CardDraft struct {
	ProgramLabel string `json:"programLabel,omitempty"`
	CardNumber   string `json:"cardNumber,omitempty"`
	PlayerName   string `json:"playerName,omitempty"`
}

// VariationDraft 适配器输出的变体
type VariationDraft struct {
	ProgramLabel string `json:"programLabel,omitempty"`
	Label        string `json:"label,omitempty"`
	ScopeNote    string `json:"scopeNote,omitempty"`
}

// ParallelDraft 适配器输出的平行版
type ParallelDraft struct {
	Label             string `json:"label,omitempty"`
	SerialDenominator *int   `json:"serialDenominator,omitempty"`
	SerialText        string `json:"serialText,omitempty"`
	FinishFamily      string `json:"finishFamily,omitempty"`
}

// ScopeDraft 平行版合法范围
type ScopeDraft struct {
	ProgramLabel   string `json:"programLabel,omitempty"`
	ParallelLabel  string `json:"parallelLabel,omitempty"`
	VariationLabel string `json:"variationLabel,omitempty"`
	FormatKey      string `json:"formatKey,omitempty"`
	ChannelKey     string `json:"channelKey,omitempty"`
}

// OddsDraft 开包概率行，program/parallel 均可缺省
type OddsDraft struct {
	ProgramLabel  string `json:"programLabel,omitempty"`
	ParallelLabel string `json:"parallelLabel,omitempty"`
	FormatKey     string `json:"formatKey,omitempty"`
	ChannelKey    string `json:"channelKey,omitempty"`
	OddsText      string `json:"oddsText,omitempty"`
}

// AmbiguityDraft 适配器阶段即无法解析的行
type AmbiguityDraft struct {
	EntityType   EntityType
	AmbiguityKey string
	Payload      map[string]interface{}
}

// AdapterOutput 适配器规范化后的统一输出（抹平各厂商差异）
type AdapterOutput struct {
	Programs    []ProgramDraft
	Cards       []CardDraft
	Variations  []VariationDraft
	Parallels   []ParallelDraft
	Scopes      []ScopeDraft
	OddsRows    []OddsDraft
	Ambiguities []AmbiguityDraft

	SourceKind       SourceKind
	ArtifactType     ArtifactType
	SourceLabel      string
	ParserConfidence float64
	Metadata         map[string]interface{}
}

// AdapterKind 适配器类型枚举（每个厂商一个），顺序即分发时的匹配顺序
type AdapterKind string

const (
	AdapterTopps     AdapterKind = "topps"
	AdapterPanini    AdapterKind = "panini"
	AdapterUpperDeck AdapterKind = "upper_deck"
)

// AdapterKinds 全部适配器类型，按分发优先级排列
var AdapterKinds = []AdapterKind{AdapterTopps, AdapterPanini, AdapterUpperDeck}
