package model

import (
	"time"

	"gorm.io/datatypes"
)

// SourceKind 来源信任等级，决定冲突时的优先级
type SourceKind string

const (
	SourceOfficialChecklist SourceKind = "OFFICIAL_CHECKLIST"
	SourceOfficialOdds      SourceKind = "OFFICIAL_ODDS"
	SourceTrustedSecondary  SourceKind = "TRUSTED_SECONDARY"
	SourceManualPatch       SourceKind = "MANUAL_PATCH"
)

// sourcePrecedence 优先级权重：数值越大越优先
var sourcePrecedence = map[SourceKind]int{
	SourceOfficialChecklist: 400,
	SourceOfficialOdds:      300,
	SourceTrustedSecondary:  200,
	SourceManualPatch:       100,
}

// Precedence 返回来源等级的权重，未知等级为0
func (k SourceKind) Precedence() int {
	return sourcePrecedence[k]
}

// Valid 是否为已知来源等级
func (k SourceKind) Valid() bool {
	_, ok := sourcePrecedence[k]
	return ok
}

// ArtifactType 提交物类型
type ArtifactType string

const (
	ArtifactChecklist   ArtifactType = "CHECKLIST"
	ArtifactOdds        ArtifactType = "ODDS"
	ArtifactCombined    ArtifactType = "COMBINED"
	ArtifactManualPatch ArtifactType = "MANUAL_PATCH"
)

// DatasetType 上游声明的数据集类型（适配器选择与提交物推断的提示）
type DatasetType string

const (
	DatasetChecklist       DatasetType = "CHECKLIST"
	DatasetOdds            DatasetType = "ODDS"
	DatasetParallelDB      DatasetType = "PARALLEL_DB"
	DatasetPlayerWorksheet DatasetType = "PLAYER_WORKSHEET"
	DatasetManualPatch     DatasetType = "MANUAL_PATCH"
)

// IsOdds 赔率类数据集：无赔率信号的行会被整体跳过
func (d DatasetType) IsOdds() bool {
	return d == DatasetOdds || d == DatasetParallelDB
}

// Source 每次入库调用生成一条来源记录（创建后不可变）
type Source struct {
	ID             string         `gorm:"column:id;primaryKey;type:varchar(64)"`
	SetID          string         `gorm:"column:set_id;type:varchar(128);index;not null"`
	IngestionJobID string         `gorm:"column:ingestion_job_id;type:varchar(64);index"` // 外部入库任务ID
	SourceKind     SourceKind     `gorm:"column:source_kind;type:varchar(32);not null"`
	ArtifactType   ArtifactType   `gorm:"column:artifact_type;type:varchar(32);not null"`
	Label          string         `gorm:"column:label;type:varchar(256)"`
	URL            string         `gorm:"column:url;type:varchar(1024)"`
	ParserVersion  string         `gorm:"column:parser_version;type:varchar(64)"`
	Confidence     float64        `gorm:"column:confidence;type:numeric(4,3);not null"`
	Metadata       datatypes.JSON `gorm:"column:metadata"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (Source) TableName() string { return "taxonomy_sources" }
