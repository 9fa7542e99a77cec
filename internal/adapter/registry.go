package adapter

import (
	"fmt"

	"TaxonomySync/internal/adapter/rowset"
	"TaxonomySync/internal/config"
	"TaxonomySync/internal/interfaces"
	"TaxonomySync/internal/model"

	"github.com/sirupsen/logrus"
)

// Dispatcher 有序的适配器列表，按 model.AdapterKinds 顺序取第一个可运行的
type Dispatcher struct {
	logger   *logrus.Logger
	adapters []interfaces.SetAdapter
}

func NewDispatcher(cfg *config.Config, logger *logrus.Logger) (*Dispatcher, error) {
	if missing := MissingFactories(); len(missing) > 0 {
		return nil, fmt.Errorf("适配器类型缺少工厂函数: %v", missing)
	}
	d := &Dispatcher{logger: logger}
	for _, kind := range model.AdapterKinds {
		var adapterCfg *config.AdapterConfig
		if cfg != nil {
			if c, ok := cfg.Adapters[string(kind)]; ok {
				adapterCfg = &c
			}
		}
		if !adapterCfg.IsEnabled() {
			logger.WithField("adapter", kind).Info("适配器已在配置中禁用")
			continue
		}

		factory, _ := GetFactory(kind)
		adapterIns := factory(adapterCfg, logger)
		if adapterIns == nil {
			return nil, fmt.Errorf("适配器%s的工厂函数返回nil", kind)
		}
		// 验证实例类型是否匹配
		if adapterIns.Kind() != kind {
			return nil, fmt.Errorf("适配器类型不匹配: 注册为%s，实例为%s", kind, adapterIns.Kind())
		}
		d.adapters = append(d.adapters, adapterIns)
	}
	logger.WithField("adapters", d.Names()).Info("适配器分发器初始化完成")
	return d, nil
}

// Hints 从入库输入中提取分发信息
func Hints(input *model.AdapterInput) interfaces.DispatchHints {
	return interfaces.DispatchHints{
		DatasetType: input.DatasetType,
		SourceURL:   input.SourceURL,
		Provider:    rowset.Provider(input.ParseSummary),
		SetName:     rowset.SetName(input.SetID, input.ParseSummary),
	}
}

// Select 第一个命中的适配器；没有则返回 false
func (d *Dispatcher) Select(hints interfaces.DispatchHints) (interfaces.SetAdapter, bool) {
	for _, a := range d.adapters {
		if a.CanRun(hints) {
			d.logger.WithFields(logrus.Fields{
				"adapter":      a.GetName(),
				"dataset_type": hints.DatasetType,
				"set_name":     hints.SetName,
			}).Debug("已选择适配器")
			return a, true
		}
	}
	d.logger.WithFields(logrus.Fields{
		"dataset_type": hints.DatasetType,
		"set_name":     hints.SetName,
		"source_url":   hints.SourceURL,
		"provider":     hints.Provider,
	}).Warn("没有可用的适配器")
	return nil, false
}

// Names 已启用的适配器名称（按优先级）
func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.adapters))
	for _, a := range d.adapters {
		names = append(names, a.GetName())
	}
	return names
}
