package model

import (
	"time"

	"gorm.io/datatypes"
)

// EntityType 冲突/待定记录所指向的实体类型
type EntityType string

const (
	EntityProgram       EntityType = "PROGRAM"
	EntityCard          EntityType = "CARD"
	EntityVariation     EntityType = "VARIATION"
	EntityParallel      EntityType = "PARALLEL"
	EntityParallelScope EntityType = "PARALLEL_SCOPE"
	EntityOddsRow       EntityType = "ODDS_ROW"
	EntityIngestion     EntityType = "INGESTION"
)

// ReviewStatus 人工审核状态
type ReviewStatus string

const (
	ReviewOpen      ReviewStatus = "OPEN"
	ReviewResolved  ReviewStatus = "RESOLVED"
	ReviewDismissed ReviewStatus = "DISMISSED"
)

// Ambiguity 引用无法解析的行，等待人工处理；(set_id, ambiguity_key) 唯一，重复入库只刷新 payload/status
type Ambiguity struct {
	ID             uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	SetID          string         `gorm:"column:set_id;type:varchar(128);not null;uniqueIndex:uq_ambiguity"`
	EntityType     EntityType     `gorm:"column:entity_type;type:varchar(32);not null"`
	AmbiguityKey   string         `gorm:"column:ambiguity_key;type:varchar(512);not null;uniqueIndex:uq_ambiguity"`
	Payload        datatypes.JSON `gorm:"column:payload"`
	SourceID       string         `gorm:"column:source_id;type:varchar(64);not null"`
	Status         ReviewStatus   `gorm:"column:status;type:varchar(16);not null;index"`
	ResolutionNote string         `gorm:"column:resolution_note;type:text"` // 审核备注，重新打开时保留
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Ambiguity) TableName() string { return "taxonomy_ambiguities" }

// Conflict 已有值与新值在同一字段上的分歧；不会自动应用优先来源的值
type Conflict struct {
	ID               uint64       `gorm:"column:id;primaryKey;autoIncrement"`
	SetID            string       `gorm:"column:set_id;type:varchar(128);not null;index:idx_conflict_lookup"`
	EntityType       EntityType   `gorm:"column:entity_type;type:varchar(32);not null;index:idx_conflict_lookup"`
	EntityKey        string       `gorm:"column:entity_key;type:varchar(512);not null;index:idx_conflict_lookup"`
	ConflictField    string       `gorm:"column:conflict_field;type:varchar(64);not null"`
	ExistingSourceID *string      `gorm:"column:existing_source_id;type:varchar(64)"`
	IncomingSourceID string       `gorm:"column:incoming_source_id;type:varchar(64);not null"`
	ExistingValue    string       `gorm:"column:existing_value;type:text"`
	IncomingValue    string       `gorm:"column:incoming_value;type:text"`
	Status           ReviewStatus `gorm:"column:status;type:varchar(16);not null;index"`
	ResolutionNote   string       `gorm:"column:resolution_note;type:text"`
	CreatedAt        time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

func (Conflict) TableName() string { return "taxonomy_conflicts" }
