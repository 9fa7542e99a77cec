package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"TaxonomySync/internal/metrics"
	"TaxonomySync/internal/model"
	"TaxonomySync/internal/repository"
	"TaxonomySync/internal/utils/normalize"

	"github.com/sirupsen/logrus"
)

// EntityCounts 各实体处理数量
type EntityCounts struct {
	Programs    int `json:"programs"`
	Cards       int `json:"cards"`
	Variations  int `json:"variations"`
	Parallels   int `json:"parallels"`
	Scopes      int `json:"scopes"`
	OddsRows    int `json:"oddsRows"`
	Conflicts   int `json:"conflicts"`
	Ambiguities int `json:"ambiguities"`
	Bridges     int `json:"bridges"`
}

func (c *EntityCounts) inc(entity model.EntityType) {
	switch entity {
	case model.EntityProgram:
		c.Programs++
	case model.EntityCard:
		c.Cards++
	case model.EntityVariation:
		c.Variations++
	case model.EntityParallel:
		c.Parallels++
	case model.EntityParallelScope:
		c.Scopes++
	case model.EntityOddsRow:
		c.OddsRows++
	}
}

// field 对账时比较的一个字段；authoritative 字段不一致即冲突，其余字段只补空
type field struct {
	name          string
	column        string
	existing      string
	incoming      string
	value         interface{}
	authoritative bool
}

// reconciler 单次入库（一个事务、一个来源）的对账状态
// 处理顺序固定为 Program → Variation → Parallel → Card → Scope → OddsRow，后面的实体依赖前面建立的索引
type reconciler struct {
	ctx      context.Context
	repos    *repository.Repositories
	setID    string
	source   *model.Source
	resolver *ConflictResolver
	queue    *AmbiguityQueue
	logger   *logrus.Entry

	counts  EntityCounts
	created EntityCounts
	actions map[model.EntityType]map[string]int

	programs   map[string]*model.Program
	parallels  map[string]*model.Parallel
	variations map[string]*model.Variation // programId::variationId
}

func newReconciler(ctx context.Context, repos *repository.Repositories, setID string, source *model.Source, logger *logrus.Logger) *reconciler {
	return &reconciler{
		ctx:        ctx,
		repos:      repos,
		setID:      setID,
		source:     source,
		resolver:   NewConflictResolver(repos, logger),
		queue:      NewAmbiguityQueue(),
		logger:     logger.WithFields(logrus.Fields{"set_id": setID, "source_id": source.ID}),
		actions:    make(map[model.EntityType]map[string]int),
		programs:   make(map[string]*model.Program),
		parallels:  make(map[string]*model.Parallel),
		variations: make(map[string]*model.Variation),
	}
}

// apply 按依赖顺序写入全部实体，最后写入待定队列
func (r *reconciler) apply(out *model.AdapterOutput) error {
	for _, d := range out.Programs {
		if err := r.upsertProgram(d); err != nil {
			return err
		}
	}
	for _, d := range out.Variations {
		if err := r.upsertVariation(d); err != nil {
			return err
		}
	}
	for _, d := range out.Parallels {
		if err := r.upsertParallel(d); err != nil {
			return err
		}
	}
	for _, d := range out.Cards {
		if err := r.upsertCard(d); err != nil {
			return err
		}
	}
	for _, d := range out.Scopes {
		if err := r.upsertScope(d); err != nil {
			return err
		}
	}
	for _, d := range out.OddsRows {
		if err := r.upsertOdds(d); err != nil {
			return err
		}
	}
	for _, d := range out.Ambiguities {
		r.queue.Add(d)
	}
	return r.flushAmbiguities()
}

func (r *reconciler) flushAmbiguities() error {
	created, err := r.queue.Flush(r.ctx, r.repos.Ambiguities, r.setID, r.source.ID)
	if err != nil {
		return err
	}
	r.counts.Ambiguities = r.queue.Len()
	r.created.Ambiguities = created
	return nil
}

func (r *reconciler) track(entity model.EntityType, action string) {
	m, ok := r.actions[entity]
	if !ok {
		m = make(map[string]int)
		r.actions[entity] = m
	}
	m[action]++
}

func (r *reconciler) recordCreated(entity model.EntityType) {
	r.counts.inc(entity)
	r.created.inc(entity)
	r.track(entity, metrics.ActionCreated)
}

// settle 对已存在的行执行冲突判断与补空，返回错误时整个事务回滚
func (r *reconciler) settle(entity model.EntityType, entityKey string, existingSourceID *string, fields []field, update func(map[string]interface{}) error) error {
	conflicted := false
	for _, f := range fields {
		if !f.authoritative || f.existing == "" || f.incoming == "" || normalize.Equal(f.existing, f.incoming) {
			continue
		}
		conflicted = true
		created, err := r.resolver.Record(r.ctx, ConflictInput{
			SetID:            r.setID,
			EntityType:       entity,
			EntityKey:        entityKey,
			Field:            f.name,
			ExistingSourceID: existingSourceID,
			ExistingValue:    f.existing,
			IncomingValue:    f.incoming,
			Incoming:         r.source,
		})
		if err != nil {
			return err
		}
		r.counts.Conflicts++
		if created {
			r.created.Conflicts++
		}
	}
	r.counts.inc(entity)
	if conflicted {
		r.track(entity, metrics.ActionConflict)
		return nil
	}

	updates := make(map[string]interface{})
	for _, f := range fields {
		if f.existing == "" && f.incoming != "" {
			updates[f.column] = f.value
		}
	}
	if len(updates) == 0 {
		r.track(entity, metrics.ActionMatched)
		return nil
	}
	if existingSourceID == nil {
		updates["source_id"] = r.source.ID
	}
	if err := update(updates); err != nil {
		return fmt.Errorf("补全%s %s失败: %w", entity, entityKey, err)
	}
	r.track(entity, metrics.ActionMatched)
	r.logger.WithFields(logrus.Fields{"entity_type": entity, "entity_key": entityKey, "fields": len(updates)}).Debug("已补全缺失字段")
	return nil
}

// deflect 引用无法解析：不写实体，转入待定队列
func (r *reconciler) deflect(entity model.EntityType, missing, ref, rowKey string, payload map[string]interface{}) {
	payload["reason"] = fmt.Sprintf("%s %q not found in set", missing, ref)
	payload["missingReference"] = missing
	r.queue.Add(model.AmbiguityDraft{
		EntityType:   entity,
		AmbiguityKey: normalize.Join(string(entity), "missing-"+missing, normalize.KeyOr(ref, normalize.NoneKey), rowKey),
		Payload:      payload,
	})
	r.track(entity, metrics.ActionDeflected)
	r.logger.WithFields(logrus.Fields{"entity_type": entity, "missing": missing, "ref": ref}).Warn("引用无法解析，已转入待定队列")
}

func (r *reconciler) create(entity model.EntityType, key string, fn func() error) error {
	if err := fn(); err != nil {
		return fmt.Errorf("创建%s %s失败: %w", entity, key, err)
	}
	r.recordCreated(entity)
	return nil
}

// ========== 引用解析：本批次优先，其次是已持久化的行 ==========

func (r *reconciler) program(programID string) (*model.Program, error) {
	if p, ok := r.programs[programID]; ok {
		return p, nil
	}
	p, err := r.repos.Programs.FindByKey(r.ctx, r.setID, programID)
	if err != nil {
		return nil, fmt.Errorf("查询卡种%s失败: %w", programID, err)
	}
	if p != nil {
		r.programs[programID] = p
	}
	return p, nil
}

func (r *reconciler) parallel(parallelID string) (*model.Parallel, error) {
	if p, ok := r.parallels[parallelID]; ok {
		return p, nil
	}
	p, err := r.repos.Parallels.FindByKey(r.ctx, r.setID, parallelID)
	if err != nil {
		return nil, fmt.Errorf("查询平行版%s失败: %w", parallelID, err)
	}
	if p != nil {
		r.parallels[parallelID] = p
	}
	return p, nil
}

func (r *reconciler) variation(programID, variationID string) (*model.Variation, error) {
	key := normalize.Join(programID, variationID)
	if v, ok := r.variations[key]; ok {
		return v, nil
	}
	v, err := r.repos.Variations.FindByKey(r.ctx, r.setID, programID, variationID)
	if err != nil {
		return nil, fmt.Errorf("查询变体%s失败: %w", key, err)
	}
	if v != nil {
		r.variations[key] = v
	}
	return v, nil
}

// ========== 各实体写入 ==========

func (r *reconciler) upsertProgram(d model.ProgramDraft) error {
	programID := normalize.ProgramID(d.Label)
	label := normalize.Text(d.Label)
	if label == "" {
		label = programID
	}
	codePrefix := normalize.Text(d.CodePrefix)
	programClass := normalize.Key(d.ProgramClass)

	existing, err := r.repos.Programs.FindByKey(r.ctx, r.setID, programID)
	if err != nil {
		return fmt.Errorf("查询卡种%s失败: %w", programID, err)
	}
	if existing == nil {
		p := &model.Program{
			SetID:        r.setID,
			ProgramID:    programID,
			Label:        label,
			CodePrefix:   normalize.StrPtr(codePrefix),
			ProgramClass: normalize.StrPtr(programClass),
			SourceID:     &r.source.ID,
		}
		r.programs[programID] = p
		return r.create(model.EntityProgram, programID, func() error { return r.repos.Programs.Create(r.ctx, p) })
	}
	r.programs[programID] = existing
	return r.settle(model.EntityProgram, programID, existing.SourceID, []field{
		{name: "label", column: "label", existing: existing.Label, incoming: label, value: label, authoritative: true},
		{name: "codePrefix", column: "code_prefix", existing: normalize.Deref(existing.CodePrefix), incoming: codePrefix, value: codePrefix},
		{name: "programClass", column: "program_class", existing: normalize.Deref(existing.ProgramClass), incoming: programClass, value: programClass},
	}, func(u map[string]interface{}) error { return r.repos.Programs.UpdateFields(r.ctx, existing, u) })
}

func (r *reconciler) upsertVariation(d model.VariationDraft) error {
	programID := normalize.ProgramID(d.ProgramLabel)
	variationID := normalize.Key(d.Label)
	if variationID == "" {
		return nil
	}
	entityKey := normalize.Join(programID, variationID)
	program, err := r.program(programID)
	if err != nil {
		return err
	}
	if program == nil {
		r.deflect(model.EntityVariation, "program", programID, entityKey, map[string]interface{}{
			"programLabel": d.ProgramLabel, "variationLabel": d.Label,
		})
		return nil
	}

	label := normalize.Text(d.Label)
	scopeNote := normalize.Text(d.ScopeNote)
	existing, err := r.repos.Variations.FindByKey(r.ctx, r.setID, programID, variationID)
	if err != nil {
		return fmt.Errorf("查询变体%s失败: %w", entityKey, err)
	}
	if existing == nil {
		v := &model.Variation{
			SetID:       r.setID,
			ProgramID:   programID,
			VariationID: variationID,
			Label:       label,
			ScopeNote:   normalize.StrPtr(scopeNote),
			SourceID:    &r.source.ID,
		}
		r.variations[entityKey] = v
		return r.create(model.EntityVariation, entityKey, func() error { return r.repos.Variations.Create(r.ctx, v) })
	}
	r.variations[entityKey] = existing
	return r.settle(model.EntityVariation, entityKey, existing.SourceID, []field{
		{name: "label", column: "label", existing: existing.Label, incoming: label, value: label, authoritative: true},
		{name: "scopeNote", column: "scope_note", existing: normalize.Deref(existing.ScopeNote), incoming: scopeNote, value: scopeNote},
	}, func(u map[string]interface{}) error { return r.repos.Variations.UpdateFields(r.ctx, existing, u) })
}

func (r *reconciler) upsertParallel(d model.ParallelDraft) error {
	parallelID := normalize.Key(d.Label)
	if parallelID == "" {
		return nil
	}
	label := normalize.Text(d.Label)
	serialText := normalize.Text(d.SerialText)
	finish := normalize.Text(d.FinishFamily)

	existing, err := r.repos.Parallels.FindByKey(r.ctx, r.setID, parallelID)
	if err != nil {
		return fmt.Errorf("查询平行版%s失败: %w", parallelID, err)
	}
	if existing == nil {
		p := &model.Parallel{
			SetID:             r.setID,
			ParallelID:        parallelID,
			Label:             label,
			SerialDenominator: d.SerialDenominator,
			SerialText:        normalize.StrPtr(serialText),
			FinishFamily:      normalize.StrPtr(finish),
			SourceID:          &r.source.ID,
		}
		r.parallels[parallelID] = p
		return r.create(model.EntityParallel, parallelID, func() error { return r.repos.Parallels.Create(r.ctx, p) })
	}
	r.parallels[parallelID] = existing
	var denominator interface{}
	if d.SerialDenominator != nil {
		denominator = *d.SerialDenominator
	}
	return r.settle(model.EntityParallel, parallelID, existing.SourceID, []field{
		{name: "label", column: "label", existing: existing.Label, incoming: label, value: label, authoritative: true},
		{name: "serialDenominator", column: "serial_denominator", existing: intString(existing.SerialDenominator), incoming: intString(d.SerialDenominator), value: denominator, authoritative: true},
		{name: "serialText", column: "serial_text", existing: normalize.Deref(existing.SerialText), incoming: serialText, value: serialText},
		{name: "finishFamily", column: "finish_family", existing: normalize.Deref(existing.FinishFamily), incoming: finish, value: finish},
	}, func(u map[string]interface{}) error { return r.repos.Parallels.UpdateFields(r.ctx, existing, u) })
}

func (r *reconciler) upsertCard(d model.CardDraft) error {
	programID := normalize.ProgramID(d.ProgramLabel)
	cardNumber := normalize.CardNumber(d.CardNumber)
	if cardNumber == "" {
		return nil
	}
	entityKey := normalize.Join(programID, cardNumber)
	program, err := r.program(programID)
	if err != nil {
		return err
	}
	if program == nil {
		r.deflect(model.EntityCard, "program", programID, entityKey, map[string]interface{}{
			"programLabel": d.ProgramLabel, "cardNumber": cardNumber, "playerName": d.PlayerName,
		})
		return nil
	}

	playerName := normalize.Text(d.PlayerName)
	existing, err := r.repos.Cards.FindByKey(r.ctx, r.setID, programID, cardNumber)
	if err != nil {
		return fmt.Errorf("查询卡片%s失败: %w", entityKey, err)
	}
	if existing == nil {
		c := &model.Card{
			SetID:      r.setID,
			ProgramID:  programID,
			CardNumber: cardNumber,
			PlayerName: normalize.StrPtr(playerName),
			SourceID:   &r.source.ID,
		}
		return r.create(model.EntityCard, entityKey, func() error { return r.repos.Cards.Create(r.ctx, c) })
	}
	return r.settle(model.EntityCard, entityKey, existing.SourceID, []field{
		{name: "playerName", column: "player_name", existing: normalize.Deref(existing.PlayerName), incoming: playerName, value: playerName, authoritative: true},
	}, func(u map[string]interface{}) error { return r.repos.Cards.UpdateFields(r.ctx, existing, u) })
}

func (r *reconciler) upsertScope(d model.ScopeDraft) error {
	programID := normalize.ProgramID(d.ProgramLabel)
	parallelID := normalize.Key(d.ParallelLabel)
	variationID := normalize.Key(d.VariationLabel)
	formatKey := normalize.Key(d.FormatKey)
	channelKey := normalize.Key(d.ChannelKey)
	scopeKey := normalize.ScopeKey(programID, parallelID, variationID, formatKey, channelKey)
	payload := func() map[string]interface{} {
		return map[string]interface{}{
			"programLabel": d.ProgramLabel, "parallelLabel": d.ParallelLabel, "variationLabel": d.VariationLabel,
			"formatKey": formatKey, "channelKey": channelKey, "scopeKey": scopeKey,
		}
	}

	program, err := r.program(programID)
	if err != nil {
		return err
	}
	if program == nil {
		r.deflect(model.EntityParallelScope, "program", programID, scopeKey, payload())
		return nil
	}
	if parallelID == "" {
		r.deflect(model.EntityParallelScope, "parallel", d.ParallelLabel, scopeKey, payload())
		return nil
	}
	parallel, err := r.parallel(parallelID)
	if err != nil {
		return err
	}
	if parallel == nil {
		r.deflect(model.EntityParallelScope, "parallel", parallelID, scopeKey, payload())
		return nil
	}
	if variationID != "" {
		v, err := r.variation(programID, variationID)
		if err != nil {
			return err
		}
		if v == nil {
			r.deflect(model.EntityParallelScope, "variation", variationID, scopeKey, payload())
			return nil
		}
	}

	existing, err := r.repos.Scopes.FindByKey(r.ctx, r.setID, scopeKey)
	if err != nil {
		return fmt.Errorf("查询平行版范围%s失败: %w", scopeKey, err)
	}
	if existing == nil {
		s := &model.ParallelScope{
			SetID:       r.setID,
			ScopeKey:    scopeKey,
			ProgramID:   programID,
			ParallelID:  parallelID,
			VariationID: normalize.StrPtr(variationID),
			FormatKey:   normalize.StrPtr(formatKey),
			ChannelKey:  normalize.StrPtr(channelKey),
			SourceID:    &r.source.ID,
		}
		return r.create(model.EntityParallelScope, scopeKey, func() error { return r.repos.Scopes.Create(r.ctx, s) })
	}
	// 范围由键本身决定，没有可冲突的字段
	return r.settle(model.EntityParallelScope, scopeKey, existing.SourceID, nil,
		func(u map[string]interface{}) error { return r.repos.Scopes.UpdateFields(r.ctx, existing, u) })
}

func (r *reconciler) upsertOdds(d model.OddsDraft) error {
	oddsText := normalize.Text(d.OddsText)
	if oddsText == "" {
		return nil
	}
	formatKey := normalize.Key(d.FormatKey)
	channelKey := normalize.Key(d.ChannelKey)

	var programID, parallelID string
	if strings.TrimSpace(d.ProgramLabel) != "" {
		programID = normalize.ProgramID(d.ProgramLabel)
	}
	if strings.TrimSpace(d.ParallelLabel) != "" {
		parallelID = normalize.Key(d.ParallelLabel)
	}
	oddsKey := normalize.OddsKey(programID, parallelID, formatKey, channelKey)
	payload := func() map[string]interface{} {
		return map[string]interface{}{
			"programLabel": d.ProgramLabel, "parallelLabel": d.ParallelLabel,
			"formatKey": formatKey, "channelKey": channelKey, "oddsText": oddsText, "oddsKey": oddsKey,
		}
	}

	if programID != "" {
		p, err := r.program(programID)
		if err != nil {
			return err
		}
		if p == nil {
			r.deflect(model.EntityOddsRow, "program", programID, oddsKey, payload())
			return nil
		}
	}
	if parallelID != "" {
		p, err := r.parallel(parallelID)
		if err != nil {
			return err
		}
		if p == nil {
			r.deflect(model.EntityOddsRow, "parallel", parallelID, oddsKey, payload())
			return nil
		}
	}

	existing, err := r.repos.Odds.FindByKey(r.ctx, r.setID, oddsKey)
	if err != nil {
		return fmt.Errorf("查询赔率%s失败: %w", oddsKey, err)
	}
	if existing == nil {
		o := &model.OddsRow{
			SetID:      r.setID,
			OddsKey:    oddsKey,
			ProgramID:  normalize.StrPtr(programID),
			ParallelID: normalize.StrPtr(parallelID),
			FormatKey:  normalize.StrPtr(formatKey),
			ChannelKey: normalize.StrPtr(channelKey),
			OddsText:   oddsText,
			SourceID:   &r.source.ID,
		}
		return r.create(model.EntityOddsRow, oddsKey, func() error { return r.repos.Odds.Create(r.ctx, o) })
	}
	return r.settle(model.EntityOddsRow, oddsKey, existing.SourceID, []field{
		{name: "oddsText", column: "odds_text", existing: existing.OddsText, incoming: oddsText, value: oddsText, authoritative: true},
	}, func(u map[string]interface{}) error { return r.repos.Odds.UpdateFields(r.ctx, existing, u) })
}

func intString(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

// recordMetrics 把本次对账的动作计数写入指标
func (r *reconciler) recordMetrics(m *metrics.Metrics) {
	for entity, byAction := range r.actions {
		for action, n := range byAction {
			m.RecordEntities(strings.ToLower(string(entity)), action, n)
		}
	}
}
