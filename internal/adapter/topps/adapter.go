package topps

import (
	"regexp"

	"TaxonomySync/internal/adapter/rowset"
	"TaxonomySync/internal/config"
	"TaxonomySync/internal/interfaces"
	"TaxonomySync/internal/model"

	"github.com/sirupsen/logrus"
)

// Topps 赔率表按盒型分列（Hobby / Jumbo / Retail ...），每列一个概率
var formatColumns = []string{"hobby", "jumbo", "retail", "blaster", "mega", "value", "hanger", "breaker", "lite"}

var oddsValue = regexp.MustCompile(`^\s*1\s*:\s*[\d,]+\s*$`)

type Adapter struct {
	profile *rowset.Profile
	logger  *logrus.Logger
}

func NewToppsAdapter(cfg *config.AdapterConfig, logger *logrus.Logger) interfaces.SetAdapter {
	p := &rowset.Profile{
		Kind:              model.AdapterTopps,
		Manufacturer:      "Topps",
		SetTokens:         []string{"topps", "bowman", "stadium club", "allen & ginter", "finest"},
		DomainTokens:      []string{"topps"},
		ProviderTokens:    []string{"topps"},
		OfficialDomains:   []string{"topps.com"},
		OfficialProviders: []string{"topps", "topps-official", "topps checklist"},
		ExtraAliases: map[rowset.Field][]string{
			rowset.FieldParallel: {"refractor"},
		},
		Expand: expandFormatColumns,
	}
	p.ApplyConfig(cfg)
	return &Adapter{profile: p, logger: logger}
}

// GetName ========== 实现SetAdapter接口 ==========
func (a *Adapter) GetName() string {
	return "Topps"
}

func (a *Adapter) Kind() model.AdapterKind {
	return model.AdapterTopps
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
		"adapter":  a.GetName(),
		"set_id":   input.SetID,
		"rows":     out.Metadata["rowCount"],
		"programs": len(out.Programs),
		"cards":    len(out.Cards),
		"odds":     len(out.OddsRows),
	}).Debug("Topps原始行解析完成")
	return out
}

// expandFormatColumns 行内没有统一的 odds 字段但有按盒型分列的概率时，拆成每个盒型一行
func expandFormatColumns(r rowset.Row) []rowset.Row {
	if r.Lookup(rowset.DefaultAliases[rowset.FieldOddsText]) != "" {
		return []rowset.Row{r}
	}
	var out []rowset.Row
	for _, col := range formatColumns {
		v, ok := r.Raw(col)
		if !ok {
			continue
		}
		s, _ := v.(string)
		if !oddsValue.MatchString(s) {
			continue
		}
		row := r.Clone()
		for _, c := range formatColumns {
			row.Delete(c)
		}
		row.Set("odds", s)
		row.Set("format", col)
		out = append(out, row)
	}
	if len(out) == 0 {
		return []rowset.Row{r}
	}
	return out
}
