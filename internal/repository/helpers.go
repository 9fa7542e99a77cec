package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// findOne 查询单条记录，未找到返回 nil, nil
func findOne[T any](ctx context.Context, db *gorm.DB, query string, args ...interface{}) (*T, error) {
	var out T
	err := db.WithContext(ctx).Where(query, args...).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func listBySet[T any](ctx context.Context, db *gorm.DB, setID string) ([]*T, error) {
	var list []*T
	if err := db.WithContext(ctx).Where("set_id = ?", setID).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func listBySets[T any](ctx context.Context, db *gorm.DB, setIDs []string) ([]*T, error) {
	var list []*T
	if len(setIDs) == 0 {
		return list, nil
	}
	if err := db.WithContext(ctx).Where("set_id IN ?", setIDs).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func updateFields[T any](ctx context.Context, db *gorm.DB, row *T, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return db.WithContext(ctx).Model(row).Updates(fields).Error
}
