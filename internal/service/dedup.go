package service

import (
	"TaxonomySync/internal/model"
	"TaxonomySync/internal/utils/normalize"
)

// DedupOutput 按自然键折叠适配器输出：保留首次出现的顺序，后出现的同键行只补空字段
func DedupOutput(out *model.AdapterOutput) *model.AdapterOutput {
	if out == nil {
		return nil
	}
	deduped := *out
	deduped.Programs = dedupBy(out.Programs, func(d model.ProgramDraft) string {
		return normalize.ProgramID(d.Label)
	}, func(dst *model.ProgramDraft, src model.ProgramDraft) {
		fillString(&dst.CodePrefix, src.CodePrefix)
		fillString(&dst.ProgramClass, src.ProgramClass)
	})
	deduped.Cards = dedupBy(out.Cards, func(d model.CardDraft) string {
		return normalize.Join(normalize.ProgramID(d.ProgramLabel), normalize.CardNumber(d.CardNumber))
	}, func(dst *model.CardDraft, src model.CardDraft) {
		fillString(&dst.PlayerName, src.PlayerName)
	})
	deduped.Variations = dedupBy(out.Variations, func(d model.VariationDraft) string {
		return normalize.Join(normalize.ProgramID(d.ProgramLabel), normalize.Key(d.Label))
	}, func(dst *model.VariationDraft, src model.VariationDraft) {
		fillString(&dst.ScopeNote, src.ScopeNote)
	})
	deduped.Parallels = dedupBy(out.Parallels, func(d model.ParallelDraft) string {
		return normalize.Key(d.Label)
	}, func(dst *model.ParallelDraft, src model.ParallelDraft) {
		if dst.SerialDenominator == nil {
			dst.SerialDenominator = src.SerialDenominator
		}
		fillString(&dst.SerialText, src.SerialText)
		fillString(&dst.FinishFamily, src.FinishFamily)
	})
	deduped.Scopes = dedupBy(out.Scopes, func(d model.ScopeDraft) string {
		return normalize.ScopeKey(normalize.ProgramID(d.ProgramLabel), normalize.Key(d.ParallelLabel), normalize.Key(d.VariationLabel), d.FormatKey, d.ChannelKey)
	}, nil)
	deduped.OddsRows = dedupBy(out.OddsRows, func(d model.OddsDraft) string {
		return normalize.OddsKey(normalize.Key(d.ProgramLabel), normalize.Key(d.ParallelLabel), d.FormatKey, d.ChannelKey)
	}, nil)
	deduped.Ambiguities = dedupBy(out.Ambiguities, func(d model.AmbiguityDraft) string {
		return d.AmbiguityKey
	}, nil)
	return &deduped
}

func dedupBy[T any](items []T, key func(T) string, merge func(dst *T, src T)) []T {
	if len(items) == 0 {
		return nil
	}
	index := make(map[string]int, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if i, ok := index[k]; ok {
			if merge != nil {
				merge(&out[i], item)
			}
			continue
		}
		index[k] = len(out)
		out = append(out, item)
	}
	return out
}

func fillString(dst *string, src string) {
	if *dst == "" {
		*dst = src
	}
}
