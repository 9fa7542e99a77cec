package service

import "errors"

var (
	ErrInvalidSetID      = errors.New("无效的套系ID")
	ErrIngestionDisabled = errors.New("套系未开启新版入库")
	ErrUnauthorized      = errors.New("无权触发入库")
	ErrNotFound          = errors.New("记录不存在")
	ErrNotOpen           = errors.New("记录已不是待处理状态")
)

// 跳过原因
const (
	SkipInvalidSetID      = "invalid_set_id"
	SkipIngestionDisabled = "ingestion_disabled"
	SkipNoEligibleAdapter = "no_eligible_adapter"
	SkipTransactionFailed = "transaction_failed"
	SkipNoLegacyVariants  = "no_legacy_variants"
	SkipTaxonomyExists    = "taxonomy_exists"
	SkipLegacyFallbackOff = "legacy_fallback_disabled"
)
