package fuzzyspec

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"zimrewrite/pkg/errx"
)

// LoadJSON 从 JSON 规则源解析配置
// 先用 gjson 做结构探测以给出可定位的错误，再反序列化并整体校验
func LoadJSON(data []byte) (*Config, error) {
	if !gjson.ValidBytes(data) {
		return nil, errx.New(errx.CodeRuleCompile, "规则源不是合法 JSON")
	}

	root := gjson.ParseBytes(data)
	rules := root.Get("rules")
	if !rules.Exists() || !rules.IsArray() {
		return nil, errx.New(errx.CodeRuleCompile, "规则源缺少 rules 数组")
	}

	var idx int
	var bad error
	rules.ForEach(func(_, rule gjson.Result) bool {
		if !rule.Get("pattern").Exists() || !rule.Get("replace").Exists() {
			bad = errx.Newf(errx.CodeRuleCompile, "第 %d 条规则缺少 pattern/replace 字段", idx)
			return false
		}
		idx++
		return true
	})
	if bad != nil {
		return nil, bad
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errx.Wrap(errx.CodeRuleCompile, err, "规则源反序列化失败")
	}
	if cfg.Version == "" {
		cfg.Version = DefaultConfigVersion
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ToJSON 把配置序列化回规则源文本
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
