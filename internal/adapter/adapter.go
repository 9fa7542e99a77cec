package adapter

import (
	"fmt"

	"TaxonomySync/internal/adapter/panini"
	"TaxonomySync/internal/adapter/topps"
	"TaxonomySync/internal/adapter/upperdeck"
	"TaxonomySync/internal/interfaces"
	"TaxonomySync/internal/model"

	"github.com/sirupsen/logrus"
)

// ========== 工厂函数注册表：每个适配器类型恰好一个工厂 ==========
var factoryRegistry = map[model.AdapterKind]interfaces.Factory{
	model.AdapterTopps:     topps.NewToppsAdapter,
	model.AdapterPanini:    panini.NewPaniniAdapter,
	model.AdapterUpperDeck: upperdeck.NewUpperDeckAdapter,
}

// Register 覆盖某个已知适配器类型的工厂（测试或定制部署用）；未知类型直接panic
func Register(kind model.AdapterKind, factory interfaces.Factory) {
	if factory == nil {
		panic(fmt.Sprintf("适配器%s的工厂函数不能为nil", kind))
	}
	if !knownKind(kind) {
		panic(fmt.Sprintf("未知的适配器类型%s，需先加入model.AdapterKinds", kind))
	}
	if _, exists := factoryRegistry[kind]; exists {
		logrus.Warnf("适配器%s已注册，将覆盖原有实现", kind)
	}
	factoryRegistry[kind] = factory
}

// GetFactory 获取指定类型的工厂函数
func GetFactory(kind model.AdapterKind) (interfaces.Factory, bool) {
	factory, ok := factoryRegistry[kind]
	return factory, ok
}

// MissingFactories 列出没有工厂的适配器类型（应始终为空）
func MissingFactories() []model.AdapterKind {
	var missing []model.AdapterKind
	for _, k := range model.AdapterKinds {
		if _, ok := factoryRegistry[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

func knownKind(kind model.AdapterKind) bool {
	for _, k := range model.AdapterKinds {
		if k == kind {
			return true
		}
	}
	return false
}
