package service

import (
	"context"

	"zimrewrite/internal/bundle"
	"zimrewrite/internal/fuzzy"
	"zimrewrite/internal/storage/model"
	"zimrewrite/pkg/fuzzyspec"
)

// SaveRuleset 保存一份规则配置
// 入库前先试编译，编译不过的规则集不允许存在于存储中
func (s *Service) SaveRuleset(ctx context.Context, cfg *fuzzyspec.Config) error {
	if _, err := fuzzy.Compile(cfg); err != nil {
		return err
	}
	if err := s.rulesets.Save(ctx, cfg); err != nil {
		return err
	}
	s.log.Info("[服务] 规则集已保存", "id", cfg.ID, "name", cfg.Name)
	return nil
}

// ImportRuleset 从 JSON 导入并保存规则配置
func (s *Service) ImportRuleset(ctx context.Context, data []byte) (*fuzzyspec.Config, error) {
	cfg, err := fuzzyspec.LoadJSON(data)
	if err != nil {
		return nil, err
	}
	if err := s.SaveRuleset(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ActivateRuleset 启用指定规则集
// 生效的引擎在服务创建时编译锁定，切换在下一次运行生效
func (s *Service) ActivateRuleset(ctx context.Context, id string) error {
	if err := fuzzyspec.ValidateConfigID(id); err != nil {
		return err
	}
	if err := s.rulesets.SetActive(ctx, id); err != nil {
		return err
	}
	s.log.Info("[服务] 规则集已启用", "id", id)
	return nil
}

// ListRulesets 列出全部规则集记录
func (s *Service) ListRulesets(ctx context.Context) ([]model.RulesetRecord, error) {
	return s.rulesets.List(ctx)
}

// DeleteRuleset 删除规则集
func (s *Service) DeleteRuleset(ctx context.Context, id string) error {
	return s.rulesets.Delete(ctx, id)
}

// ExportCorpus 导出生效规则集的一致性断言语料
func (s *Service) ExportCorpus() (string, error) {
	return bundle.ConformanceCorpus(s.rules)
}
