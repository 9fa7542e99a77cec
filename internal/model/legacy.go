package model

import "time"

// CardVariant 旧版扁平变体目录（setId + cardNumber + 平行版标签，无层级），由外部维护，此处只读
type CardVariant struct {
	ID         string    `gorm:"column:id;primaryKey;type:varchar(64)"`
	SetID      string    `gorm:"column:set_id;type:varchar(128);not null;index"`
	CardNumber string    `gorm:"column:card_number;type:varchar(64);not null"`
	ParallelID string    `gorm:"column:parallel_id;type:varchar(256);not null"` // 旧版平行版标签，如 "Gold /99"
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (CardVariant) TableName() string { return "card_variants" }

// CanonicalMap 旧版变体 → 规范键 的一对一映射
type CanonicalMap struct {
	ID            uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	CardVariantID string    `gorm:"column:card_variant_id;type:varchar(64);uniqueIndex;not null"`
	SetID         string    `gorm:"column:set_id;type:varchar(128);not null;index"`
	ProgramID     string    `gorm:"column:program_id;type:varchar(128);not null"`
	CardNumber    string    `gorm:"column:card_number;type:varchar(64);not null"`
	VariationID   *string   `gorm:"column:variation_id;type:varchar(128)"`
	ParallelID    string    `gorm:"column:parallel_id;type:varchar(128);not null"`
	CanonicalKey  string    `gorm:"column:canonical_key;type:varchar(512);not null;index"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (CanonicalMap) TableName() string { return "taxonomy_canonical_maps" }
