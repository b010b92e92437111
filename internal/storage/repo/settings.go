package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"zimrewrite/internal/storage/model"
	"zimrewrite/pkg/domain"
)

// Settings 键值设置仓储
type Settings struct {
	base[model.Setting]
}

// NewSettings 创建设置仓储
func NewSettings(db *gorm.DB) *Settings {
	return &Settings{base[model.Setting]{db: db}}
}

// Get 读取设置项，不存在返回 defaultValue
func (s *Settings) Get(ctx context.Context, key, defaultValue string) (string, error) {
	record, err := s.firstWhere(ctx, "key = ?", key)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return defaultValue, nil
	}
	if err != nil {
		return "", err
	}
	return record.Value, nil
}

// Set 写入设置项，存在则覆盖
func (s *Settings) Set(ctx context.Context, key, value string) error {
	record := model.Setting{Key: key, Value: value}
	return s.db.WithContext(ctx).Save(&record).Error
}
