package upperdeck

import (
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

func NewUpperDeckAdapter(cfg *config.AdapterConfig, logger *logrus.Logger) interfaces.SetAdapter {
	p := &rowset.Profile{
		Kind:              model.AdapterUpperDeck,
		Manufacturer:      "Upper Deck",
		SetTokens:         []string{"upper deck", "upperdeck", "sp authentic", "the cup", "o-pee-chee", "young guns"},
		DomainTokens:      []string{"upperdeck"},
		ProviderTokens:    []string{"upper deck", "upperdeck"},
		OfficialDomains:   []string{"upperdeck.com"},
		OfficialProviders: []string{"upperdeck", "upper deck", "upper-deck-official"},
		ExtraAliases: map[rowset.Field][]string{
			rowset.FieldProgram:    {"tier", "subsetName"},
			rowset.FieldCardNumber: {"cardId"},
		},
	}
	p.ApplyConfig(cfg)
	return &Adapter{profile: p, logger: logger}
}

// GetName ========== 实现SetAdapter接口 ==========
func (a *Adapter) GetName() string {
	return "Upper Deck"
}

func (a *Adapter) Kind() model.AdapterKind {
	return model.AdapterUpperDeck
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
		"adapter": a.GetName(),
		"set_id":  input.SetID,
		"rows":    out.Metadata["rowCount"],
		"cards":   len(out.Cards),
	}).Debug("Upper Deck原始行解析完成")
	return out
}
