package service

import (
	"context"
	"strings"

	"TaxonomySync/internal/config"
	"TaxonomySync/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// StaticAuthorizer 配置文件中的 token → 角色
type StaticAuthorizer struct {
	tokens      map[string]string
	ingestRoles map[string]struct{}
}

func NewStaticAuthorizer(cfg config.AuthConfig) *StaticAuthorizer {
	a := &StaticAuthorizer{tokens: make(map[string]string, len(cfg.Tokens)), ingestRoles: make(map[string]struct{})}
	for token, role := range cfg.Tokens {
		a.tokens[token] = strings.ToLower(strings.TrimSpace(role))
	}
	for _, role := range cfg.IngestRoles {
		a.ingestRoles[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}
	return a
}

func (a *StaticAuthorizer) Authenticate(_ context.Context, token string) (*interfaces.Principal, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	role, ok := a.tokens[token]
	if token == "" || !ok {
		return nil, ErrUnauthorized
	}
	subject := token
	if len(subject) > 6 {
		subject = subject[:6] + "…"
	}
	return &interfaces.Principal{Subject: subject, Role: role}, nil
}

func (a *StaticAuthorizer) CanIngest(_ context.Context, p *interfaces.Principal) bool {
	if p == nil {
		return false
	}
	_, ok := a.ingestRoles[p.Role]
	return ok
}

// StaticFeatureFlags 配置文件中的全局开关，对所有套系一致
type StaticFeatureFlags struct {
	cfg config.FeatureConfig
}

func NewStaticFeatureFlags(cfg config.FeatureConfig) *StaticFeatureFlags {
	return &StaticFeatureFlags{cfg: cfg}
}

func (f *StaticFeatureFlags) IngestionV2Enabled(context.Context, string) bool { return f.cfg.IngestionV2 }

func (f *StaticFeatureFlags) MatchingV2Enabled(context.Context, string) bool { return f.cfg.MatchingV2 }

func (f *StaticFeatureFlags) LegacyFallbackAllowed(context.Context, string) bool {
	return f.cfg.LegacyFallback
}

// LogAuditSink 审计记录写入 logrus
type LogAuditSink struct {
	logger *logrus.Logger
}

func NewLogAuditSink(logger *logrus.Logger) *LogAuditSink {
	return &LogAuditSink{logger: logger}
}

func (s *LogAuditSink) Record(_ context.Context, entry interfaces.AuditEntry) error {
	fields := logrus.Fields{
		"audit":            true,
		"actor":            entry.Actor,
		"action":           entry.Action,
		"set_id":           entry.SetID,
		"ingestion_job_id": entry.IngestionJobID,
		"outcome":          entry.Outcome,
		"at":               entry.At,
	}
	for k, v := range entry.Detail {
		fields["detail_"+k] = v
	}
	s.logger.WithFields(fields).Info("审计")
	return nil
}
