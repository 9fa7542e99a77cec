package interfaces

import (
	"context"
	"time"
)

// Principal 已认证的调用方
type Principal struct {
	Subject string
	Role    string
}

// Authorizer 鉴权服务（外部协作者）：谁可以触发入库
type Authorizer interface {
	Authenticate(ctx context.Context, token string) (*Principal, error)
	CanIngest(ctx context.Context, p *Principal) bool
}

// FeatureFlags 功能开关服务（外部协作者）
type FeatureFlags interface {
	IngestionV2Enabled(ctx context.Context, setID string) bool
	MatchingV2Enabled(ctx context.Context, setID string) bool
	LegacyFallbackAllowed(ctx context.Context, setID string) bool
}

// AuditEntry 审计记录：谁以什么结果触发了哪次入库
type AuditEntry struct {
	Actor          string
	Action         string
	SetID          string
	IngestionJobID string
	Outcome        string
	Detail         map[string]interface{}
	At             time.Time
}

// AuditSink 只追加的审计日志（外部协作者）
type AuditSink interface {
	Record(ctx context.Context, entry AuditEntry) error
}
