package service

import (
	"context"
	"time"

	"TaxonomySync/internal/repository"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const variantSetCacheKey = "variant_set_ids"

// Clock 可注入的时钟
type Clock func() time.Time

type variantSetEntry struct {
	ids       map[string]struct{}
	fetchedAt time.Time
}

// VariantSetCache 含旧版变体的套系ID集合，短时缓存；入库提交后调用 Invalidate
type VariantSetCache struct {
	db     *gorm.DB
	store  *cache.Cache
	ttl    time.Duration
	clock  Clock
	group  singleflight.Group
	logger *logrus.Logger
}

func NewVariantSetCache(db *gorm.DB, ttl time.Duration, clock Clock, logger *logrus.Logger) *VariantSetCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	if clock == nil {
		clock = time.Now
	}
	return &VariantSetCache{
		db:     db,
		store:  cache.New(ttl, 2*ttl),
		ttl:    ttl,
		clock:  clock,
		logger: logger,
	}
}

// SetIDs 返回集合；过期或失效时重新加载（并发加载合并为一次查询）
func (c *VariantSetCache) SetIDs(ctx context.Context) (map[string]struct{}, error) {
	if v, ok := c.store.Get(variantSetCacheKey); ok {
		entry := v.(*variantSetEntry)
		if c.clock().Sub(entry.fetchedAt) < c.ttl {
			return entry.ids, nil
		}
	}
	v, err, _ := c.group.Do(variantSetCacheKey, func() (interface{}, error) {
		ids, err := repository.NewCardVariantRepository(c.db).ListSetIDs(ctx)
		if err != nil {
			return nil, err
		}
		entry := &variantSetEntry{ids: make(map[string]struct{}, len(ids)), fetchedAt: c.clock()}
		for _, id := range ids {
			entry.ids[id] = struct{}{}
		}
		c.store.Set(variantSetCacheKey, entry, cache.DefaultExpiration)
		c.logger.WithField("sets", len(ids)).Debug("已刷新含旧版变体的套系缓存")
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*variantSetEntry).ids, nil
}

// Has 套系是否含旧版变体
func (c *VariantSetCache) Has(ctx context.Context, setID string) (bool, error) {
	ids, err := c.SetIDs(ctx)
	if err != nil {
		return false, err
	}
	_, ok := ids[setID]
	return ok, nil
}

// Invalidate 丢弃缓存，下一次读取重新加载
func (c *VariantSetCache) Invalidate() {
	if c == nil {
		return
	}
	c.store.Delete(variantSetCacheKey)
}
