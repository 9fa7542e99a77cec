package panini

import (
	"strings"

	"TaxonomySync/internal/adapter/rowset"
	"TaxonomySync/internal/config"
	"TaxonomySync/internal/interfaces"
	"TaxonomySync/internal/model"

	"github.com/sirupsen/logrus"
)

type Adapter struct {
	profile *rowset.Profile
	logger  *logrus.Logger
}

func NewPaniniAdapter(cfg *config.AdapterConfig, logger *logrus.Logger) interfaces.SetAdapter {
	p := &rowset.Profile{
		Kind:              model.AdapterPanini,
		Manufacturer:      "Panini",
		SetTokens:         []string{"panini", "prizm", "donruss", "optic", "select", "mosaic", "national treasures", "contenders"},
		DomainTokens:      []string{"panini"},
		ProviderTokens:    []string{"panini"},
		OfficialDomains:   []string{"paniniamerica.net", "paniniamerica.com"},
		OfficialProviders: []string{"panini", "panini-america"},
		ExtraAliases: map[rowset.Field][]string{
			rowset.FieldParallel:   {"prizm", "parallelColor"},
			rowset.FieldSerialText: {"printRunText"},
		},
		Expand: expandParallelList,
	}
	p.ApplyConfig(cfg)
	return &Adapter{profile: p, logger: logger}
}

// GetName ========== 实现SetAdapter接口 ==========
func (a *Adapter) GetName() string {
	return "Panini"
}

func (a *Adapter) Kind() model.AdapterKind {
	return model.AdapterPanini
}

func (a *Adapter) CanRun(hints interfaces.DispatchHints) bool {
	if hints.DatasetType == model.DatasetPlayerWorksheet {
		return false
	}
	return a.profile.Matches(hints.SetName, hints.SourceURL, hints.Provider)
}

func (a *Adapter) Build(input *model.AdapterInput) *model.AdapterOutput {
	out := a.profile.Build(input)
	a.logger.WithFields(logrus.Fields{
		"adapter":   a.GetName(),
		"set_id":    input.SetID,
		"rows":      out.Metadata["rowCount"],
		"parallels": len(out.Parallels),
		"scopes":    len(out.Scopes),
	}).Debug("Panini原始行解析完成")
	return out
}

// expandParallelList Panini 清单常把一张卡的全部平行版写在同一格："Silver, Red /299, Gold /10"
func expandParallelList(r rowset.Row) []rowset.Row {
	v, ok := r.Raw("parallels")
	if !ok {
		return []rowset.Row{r}
	}
	var labels []string
	switch t := v.(type) {
	case string:
		for _, part := range strings.FieldsFunc(t, func(c rune) bool { return c == ',' || c == ';' || c == '|' }) {
			if s := strings.TrimSpace(part); s != "" {
				labels = append(labels, s)
			}
		}
	case []interface{}:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				labels = append(labels, strings.TrimSpace(s))
			}
		}
	}
	if len(labels) == 0 {
		return []rowset.Row{r}
	}
	out := make([]rowset.Row, 0, len(labels)+1)
	base := r.Clone()
	base.Delete("parallels")
	out = append(out, base)
	for _, label := range labels {
		row := base.Clone()
		row.Set("parallel", label)
		out = append(out, row)
	}
	return out
}
