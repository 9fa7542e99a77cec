package interfaces

import (
	"TaxonomySync/internal/config"
	"TaxonomySync/internal/model"

	"github.com/sirupsen/logrus"
)

// DispatchHints 选择适配器时可用的来源信息
type DispatchHints struct {
	DatasetType model.DatasetType
	SourceURL   string
	Provider    string // 上游 provider 标识
	SetName     string
}

// SetAdapter 所有厂商适配器必须实现的核心接口
type SetAdapter interface {
	Kind() model.AdapterKind                              // 适配器类型
	GetName() string                                      // 厂商名称
	CanRun(hints DispatchHints) bool                      // 是否能处理该来源
	Build(input *model.AdapterInput) *model.AdapterOutput // 原始行 → 规范化输出，无法解析时输出为空而不是报错
}

// Factory 适配器工厂函数签名
// 入参：适配器配置（可为nil）、日志实例
type Factory func(cfg *config.AdapterConfig, logger *logrus.Logger) SetAdapter

// AdapterDispatcher 按来源信息选择第一个可运行的适配器
type AdapterDispatcher interface {
	Select(hints DispatchHints) (SetAdapter, bool)
}
