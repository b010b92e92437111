// Package repo 提供各数据模型的仓储
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"zimrewrite/pkg/domain"
)

// base 仓储公共部分，封装数据库句柄与常见查询
type base[T any] struct {
	db *gorm.DB
}

func (b *base[T]) create(ctx context.Context, record *T) error {
	return b.db.WithContext(ctx).Create(record).Error
}

func (b *base[T]) save(ctx context.Context, record *T) error {
	return b.db.WithContext(ctx).Save(record).Error
}

func (b *base[T]) firstWhere(ctx context.Context, query string, args ...any) (*T, error) {
	var record T
	err := b.db.WithContext(ctx).Where(query, args...).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (b *base[T]) deleteWhere(ctx context.Context, query string, args ...any) error {
	var record T
	return b.db.WithContext(ctx).Where(query, args...).Delete(&record).Error
}
