package service

import (
	"context"
	"encoding/json"
	"fmt"

	"TaxonomySync/internal/model"
	"TaxonomySync/internal/repository"

	"gorm.io/datatypes"
)

// AmbiguityQueue 单次入库内收集待定行，事务末尾按 (setId, ambiguityKey) 幂等写入
type AmbiguityQueue struct {
	pending []model.AmbiguityDraft
	index   map[string]int
}

func NewAmbiguityQueue() *AmbiguityQueue {
	return &AmbiguityQueue{index: make(map[string]int)}
}

// Add 同键后到者覆盖 payload
func (q *AmbiguityQueue) Add(d model.AmbiguityDraft) {
	if i, ok := q.index[d.AmbiguityKey]; ok {
		q.pending[i] = d
		return
	}
	q.index[d.AmbiguityKey] = len(q.pending)
	q.pending = append(q.pending, d)
}

func (q *AmbiguityQueue) Len() int {
	return len(q.pending)
}

// Flush 写入全部待定行；已存在的记录刷新 payload/来源并重新置为 OPEN
func (q *AmbiguityQueue) Flush(ctx context.Context, repo repository.AmbiguityRepository, setID, sourceID string) (created int, err error) {
	for _, d := range q.pending {
		payload, err := json.Marshal(d.Payload)
		if err != nil {
			return created, fmt.Errorf("序列化待定记录%s失败: %w", d.AmbiguityKey, err)
		}
		existing, err := repo.FindByKey(ctx, setID, d.AmbiguityKey)
		if err != nil {
			return created, fmt.Errorf("查询待定记录失败: %w", err)
		}
		if existing == nil {
			if err := repo.Create(ctx, &model.Ambiguity{
				SetID:        setID,
				EntityType:   d.EntityType,
				AmbiguityKey: d.AmbiguityKey,
				Payload:      datatypes.JSON(payload),
				SourceID:     sourceID,
				Status:       model.ReviewOpen,
			}); err != nil {
				return created, fmt.Errorf("写入待定记录失败: %w", err)
			}
			created++
			continue
		}
		if err := repo.UpdateFields(ctx, existing, map[string]interface{}{
			"entity_type": d.EntityType,
			"payload":     datatypes.JSON(payload),
			"source_id":   sourceID,
			"status":      model.ReviewOpen,
		}); err != nil {
			return created, fmt.Errorf("刷新待定记录失败: %w", err)
		}
	}
	return created, nil
}
