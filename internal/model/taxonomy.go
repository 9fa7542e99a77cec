package model

import "time"

// Program 卡种/插卡系列，唯一键 (set_id, program_id)
type Program struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	SetID        string    `gorm:"column:set_id;type:varchar(128);not null;uniqueIndex:uq_program"`
	ProgramID    string    `gorm:"column:program_id;type:varchar(128);not null;uniqueIndex:uq_program"` // label 的规范化键，缺省 base
	Label        string    `gorm:"column:label;type:varchar(256);not null"`
	CodePrefix   *string   `gorm:"column:code_prefix;type:varchar(32)"`
	ProgramClass *string   `gorm:"column:program_class;type:varchar(32)"` // base/insert/autograph/relic
	SourceID     *string   `gorm:"column:source_id;type:varchar(64)"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Program) TableName() string { return "taxonomy_programs" }

// Card 卡片，唯一键 (set_id, program_id, card_number)
type Card struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	SetID      string    `gorm:"column:set_id;type:varchar(128);not null;uniqueIndex:uq_card"`
	ProgramID  string    `gorm:"column:program_id;type:varchar(128);not null;uniqueIndex:uq_card"`
	CardNumber string    `gorm:"column:card_number;type:varchar(64);not null;uniqueIndex:uq_card"`
	PlayerName *string   `gorm:"column:player_name;type:varchar(256)"`
	SourceID   *string   `gorm:"column:source_id;type:varchar(64)"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Card) TableName() string { return "taxonomy_cards" }

// Variation 卡种内的变体（错版、换图等），唯一键 (set_id, program_id, variation_id)
type Variation struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	SetID       string    `gorm:"column:set_id;type:varchar(128);not null;uniqueIndex:uq_variation"`
	ProgramID   string    `gorm:"column:program_id;type:varchar(128);not null;uniqueIndex:uq_variation"`
	VariationID string    `gorm:"column:variation_id;type:varchar(128);not null;uniqueIndex:uq_variation"`
	Label       string    `gorm:"column:label;type:varchar(256);not null"`
	ScopeNote   *string   `gorm:"column:scope_note;type:text"`
	SourceID    *string   `gorm:"column:source_id;type:varchar(64)"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Variation) TableName() string { return "taxonomy_variations" }

// Parallel 平行版（颜色/工艺），唯一键 (set_id, parallel_id)
type Parallel struct {
	ID                uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	SetID             string    `gorm:"column:set_id;type:varchar(128);not null;uniqueIndex:uq_parallel"`
	ParallelID        string    `gorm:"column:parallel_id;type:varchar(128);not null;uniqueIndex:uq_parallel"`
	Label             string    `gorm:"column:label;type:varchar(256);not null"`
	SerialDenominator *int      `gorm:"column:serial_denominator"` // 限量编号分母，如 /99 → 99
	SerialText        *string   `gorm:"column:serial_text;type:varchar(64)"`
	FinishFamily      *string   `gorm:"column:finish_family;type:varchar(64)"`
	SourceID          *string   `gorm:"column:source_id;type:varchar(64)"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Parallel) TableName() string { return "taxonomy_parallels" }

// ParallelScope 平行版的合法范围：program × parallel × (variation/format/channel)
type ParallelScope struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	SetID       string    `gorm:"column:set_id;type:varchar(128);not null;uniqueIndex:uq_scope"`
	ScopeKey    string    `gorm:"column:scope_key;type:varchar(512);not null;uniqueIndex:uq_scope"`
	ProgramID   string    `gorm:"column:program_id;type:varchar(128);not null;index"`
	ParallelID  string    `gorm:"column:parallel_id;type:varchar(128);not null;index"`
	VariationID *string   `gorm:"column:variation_id;type:varchar(128)"`
	FormatKey   *string   `gorm:"column:format_key;type:varchar(64)"`
	ChannelKey  *string   `gorm:"column:channel_key;type:varchar(64)"`
	SourceID    *string   `gorm:"column:source_id;type:varchar(64)"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ParallelScope) TableName() string { return "taxonomy_parallel_scopes" }

// OddsRow 开包概率，唯一键 (set_id, odds_key)
type OddsRow struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	SetID      string    `gorm:"column:set_id;type:varchar(128);not null;uniqueIndex:uq_odds"`
	OddsKey    string    `gorm:"column:odds_key;type:varchar(512);not null;uniqueIndex:uq_odds"`
	ProgramID  *string   `gorm:"column:program_id;type:varchar(128)"`
	ParallelID *string   `gorm:"column:parallel_id;type:varchar(128)"`
	FormatKey  *string   `gorm:"column:format_key;type:varchar(64)"`
	ChannelKey *string   `gorm:"column:channel_key;type:varchar(64)"`
	OddsText   string    `gorm:"column:odds_text;type:varchar(128);not null"`
	SourceID   *string   `gorm:"column:source_id;type:varchar(64)"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (OddsRow) TableName() string { return "taxonomy_odds_rows" }
