// Package fuzzyspec 定义模糊改写规则源的类型规范
//
// 规则源是唯一事实来源：同一份声明式规则被编译为两种执行形态，
// 一种用于归档构建期的静态改写，一种序列化进浏览器端运行时。
// 两种形态对相同输入必须产出相同输出（见 internal/fuzzy 的一致性测试）。
package fuzzyspec

import (
	"github.com/google/uuid"

	"zimrewrite/pkg/errx"
)

// 配置版本常量
const (
	DefaultConfigVersion = "1.0" // 默认配置格式版本
)

// Config 规则配置根结构
type Config struct {
	ID          string `json:"id"`                    // 配置唯一标识符
	Name        string `json:"name"`                  // 配置名称
	Version     string `json:"version"`               // 配置格式规范版本
	Description string `json:"description,omitempty"` // 配置描述
	Rules       []Rule `json:"rules"`                 // 规则列表，声明顺序即匹配顺序
}

// NewConfig 创建一个新的空配置（带 UUID）
func NewConfig(name string) *Config {
	return &Config{
		ID:      uuid.New().String(),
		Name:    name,
		Version: DefaultConfigVersion,
		Rules:   []Rule{},
	}
}

// Scope 规则作用域
type Scope string

const (
	// ScopePath 写入期规范化：作用于 "主机前缀路径(?查询)" 形态的归档路径
	ScopePath Scope = "path"
	// ScopeURL 读取期改写：作用于完整 URL 文本
	ScopeURL Scope = "url"
)

// Rule 单条模糊规则
// 模式支持命名捕获组 (?P<name>...)，模板以 $1 / ${name} 引用捕获内容
type Rule struct {
	Name    string     `json:"name"`            // 规则名称，配置内唯一
	Pattern string     `json:"pattern"`         // 匹配模式，从主体起始位置锚定
	Replace string     `json:"replace"`         // 替换模板
	Scope   Scope      `json:"scope,omitempty"` // 作用域，缺省为 path
	Tests   []RuleTest `json:"tests"`           // 规则自带的测试用例，不允许为空
}

// RuleTest 规则测试用例，同时充当两种执行形态的一致性语料
type RuleTest struct {
	Input    string `json:"input"`    // 输入主体
	Expected string `json:"expected"` // 期望输出
}

// GetScope 获取规则作用域，缺省为 path
func (r *Rule) GetScope() Scope {
	if r.Scope == "" {
		return ScopePath
	}
	return r.Scope
}

// Validate 校验整个配置的结构合法性
// 模式本身能否编译由 internal/fuzzy 在编译期检查
func (c *Config) Validate() error {
	if err := ValidateConfigID(c.ID); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(c.Rules))
	for i := range c.Rules {
		r := &c.Rules[i]
		if r.Name == "" {
			return errx.Newf(errx.CodeRuleCompile, "第 %d 条规则缺少名称", i)
		}
		if _, dup := seen[r.Name]; dup {
			return errx.Newf(errx.CodeRuleCompile, "规则名称重复: %s", r.Name)
		}
		seen[r.Name] = struct{}{}
		if r.Pattern == "" {
			return errx.Newf(errx.CodeRuleCompile, "规则 %s 缺少匹配模式", r.Name)
		}
		if len(r.Tests) == 0 {
			return errx.Newf(errx.CodeRuleCompile, "规则 %s 缺少测试用例", r.Name)
		}
		switch r.GetScope() {
		case ScopePath, ScopeURL:
		default:
			return errx.Newf(errx.CodeRuleCompile, "规则 %s 作用域非法: %s", r.Name, r.Scope)
		}
	}
	return nil
}

// ValidateConfigID 校验配置 ID 是否为合法 UUID
func ValidateConfigID(id string) error {
	if id == "" {
		return errx.New(errx.CodeRuleCompile, "配置 ID 为空")
	}
	if err := uuid.Validate(id); err != nil {
		return errx.Wrap(errx.CodeRuleCompile, err, "配置 ID 不是合法 UUID")
	}
	return nil
}
