package repo

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"zimrewrite/internal/storage/model"
	"zimrewrite/pkg/domain"
	"zimrewrite/pkg/fuzzyspec"
)

// Ruleset 规则集仓储
type Ruleset struct {
	base[model.RulesetRecord]
}

// NewRuleset 创建规则集仓储
func NewRuleset(db *gorm.DB) *Ruleset {
	return &Ruleset{base[model.RulesetRecord]{db: db}}
}

// Save 保存规则配置，已存在则整体覆盖
func (r *Ruleset) Save(ctx context.Context, cfg *fuzzyspec.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	content, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	record := model.RulesetRecord{
		ID:          cfg.ID,
		Name:        cfg.Name,
		Version:     cfg.Version,
		Description: cfg.Description,
		Content:     string(content),
	}
	return r.save(ctx, &record)
}

// GetByID 按 ID 加载规则配置
func (r *Ruleset) GetByID(ctx context.Context, id string) (*fuzzyspec.Config, error) {
	record, err := r.firstWhere(ctx, "id = ?", id)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, domain.ErrRulesetNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeRuleset(record)
}

// GetActive 加载当前启用的规则配置
func (r *Ruleset) GetActive(ctx context.Context) (*fuzzyspec.Config, error) {
	record, err := r.firstWhere(ctx, "active = ?", true)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, domain.ErrNoActiveRuleset
	}
	if err != nil {
		return nil, err
	}
	return decodeRuleset(record)
}

// SetActive 启用指定规则集并停用其余，事务内完成
func (r *Ruleset) SetActive(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record model.RulesetRecord
		if err := tx.Where("id = ?", id).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrRulesetNotFound
			}
			return err
		}
		if err := tx.Model(&model.RulesetRecord{}).
			Where("active = ?", true).
			Update("active", false).Error; err != nil {
			return err
		}
		return tx.Model(&record).Update("active", true).Error
	})
}

// List 返回全部规则集记录，不含规则内容反序列化
func (r *Ruleset) List(ctx context.Context) ([]model.RulesetRecord, error) {
	var records []model.RulesetRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}

// Delete 删除规则集
func (r *Ruleset) Delete(ctx context.Context, id string) error {
	return r.deleteWhere(ctx, "id = ?", id)
}

// decodeRuleset 反序列化并重新校验存储的规则内容
// 存储不可信，历史数据可能由旧版本写入
func decodeRuleset(record *model.RulesetRecord) (*fuzzyspec.Config, error) {
	var cfg fuzzyspec.Config
	if err := json.Unmarshal([]byte(record.Content), &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
