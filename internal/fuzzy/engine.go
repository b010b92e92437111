// Package fuzzy 实现模糊规则引擎
//
// 同一份声明式规则源（pkg/fuzzyspec）存在两种执行形态：
// Engine 是归档构建期使用的预编译形态；Interpret 是与之独立实现的
// 逐条解释形态，其序列化产物会嵌入浏览器端运行时。两种形态对相同
// 输入必须产出相同输出，由一致性测试基于规则自带语料保证。
package fuzzy

import (
	"fmt"
	"regexp"
	"strings"

	"zimrewrite/pkg/errx"
	"zimrewrite/pkg/fuzzyspec"
)

// compiledRule 预编译后的单条规则
type compiledRule struct {
	name    string
	re      *regexp.Regexp
	replace string
	scope   fuzzyspec.Scope
}

// Engine 预编译形态的规则引擎
// 编译完成后完全只读，可被任意多个协程并发调用
type Engine struct {
	cfg   *fuzzyspec.Config
	rules []compiledRule
}

// Compile 把规则配置编译为引擎
// 任何一条规则的模式或模板非法都会整体失败（RULE_COMPILE），
// 调用方必须在开始任何改写之前完成编译
func Compile(cfg *fuzzyspec.Config) (*Engine, error) {
	if cfg == nil {
		cfg = fuzzyspec.NewConfig("empty")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rules := make([]compiledRule, 0, len(cfg.Rules))
	for i := range cfg.Rules {
		r := &cfg.Rules[i]
		re, err := regexp.Compile(anchor(r.Pattern))
		if err != nil {
			return nil, errx.Wrap(errx.CodeRuleCompile, err, "规则 "+r.Name+" 模式编译失败")
		}
		if err := checkTemplate(re, r.Replace); err != nil {
			return nil, errx.Wrap(errx.CodeRuleCompile, err, "规则 "+r.Name+" 模板非法")
		}
		rules = append(rules, compiledRule{
			name:    r.Name,
			re:      re,
			replace: r.Replace,
			scope:   r.GetScope(),
		})
	}
	return &Engine{cfg: cfg, rules: rules}, nil
}

// Config 返回引擎编译自的规则配置
func (e *Engine) Config() *fuzzyspec.Config { return e.cfg }

// Apply 按声明顺序评估指定作用域的规则
// 第一条命中的规则的模板展开即为结果，后续规则不再评估；
// 无规则命中时原样返回主体
func (e *Engine) Apply(subject string, scope fuzzyspec.Scope) string {
	for i := range e.rules {
		r := &e.rules[i]
		if r.scope != scope {
			continue
		}
		m := r.re.FindStringSubmatchIndex(subject)
		if m == nil {
			continue
		}
		return string(r.re.ExpandString(nil, r.replace, subject, m))
	}
	return subject
}

// ApplyPath 评估写入期路径规范化规则
func (e *Engine) ApplyPath(subject string) string { return e.Apply(subject, fuzzyspec.ScopePath) }

// ApplyURL 评估读取期 URL 改写规则
func (e *Engine) ApplyURL(subject string) string { return e.Apply(subject, fuzzyspec.ScopeURL) }

// anchor 将模式锚定到主体起始位置
// 与解释形态及浏览器端形态保持同一匹配语义：只认从头开始的命中
func anchor(pattern string) string {
	return `\A(?:` + pattern + `)`
}

// checkTemplate 校验模板引用的捕获组在模式中全部存在
func checkTemplate(re *regexp.Regexp, template string) error {
	refs, err := templateRefs(template)
	if err != nil {
		return err
	}
	names := re.SubexpNames()
	for _, ref := range refs {
		if ref.index >= 0 {
			if ref.index > re.NumSubexp() {
				return fmt.Errorf("引用了不存在的捕获组 $%d（模式共 %d 组）", ref.index, re.NumSubexp())
			}
			continue
		}
		found := false
		for _, n := range names {
			if n == ref.name {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("引用了不存在的命名捕获组 ${%s}", ref.name)
		}
	}
	return nil
}

// templateRef 模板中的一次捕获组引用，index 为 -1 时表示命名引用
type templateRef struct {
	index int
	name  string
}

// templateRefs 扫描模板中的 $1 与 ${name} 形式引用
func templateRefs(template string) ([]templateRef, error) {
	var refs []templateRef
	for i := 0; i < len(template); i++ {
		if template[i] != '$' {
			continue
		}
		if i+1 >= len(template) {
			return nil, fmt.Errorf("模板以孤立的 $ 结尾")
		}
		next := template[i+1]
		switch {
		case next == '$':
			i++ // $$ 为字面量 $
		case next == '{':
			end := strings.IndexByte(template[i+2:], '}')
			if end < 0 {
				return nil, fmt.Errorf("模板 ${ 未闭合")
			}
			body := template[i+2 : i+2+end]
			if n, ok := parseIndex(body); ok {
				refs = append(refs, templateRef{index: n})
			} else {
				refs = append(refs, templateRef{index: -1, name: body})
			}
			i += 2 + end
		case next >= '0' && next <= '9':
			j := i + 1
			for j < len(template) && template[j] >= '0' && template[j] <= '9' {
				j++
			}
			if j < len(template) && isWordByte(template[j]) {
				// 裸 $1a 在不同展开实现下语义不一致
				return nil, fmt.Errorf("数字引用后紧跟字母，请使用 ${%s} 形式消除歧义", template[i+1:j])
			}
			n, _ := parseIndex(template[i+1 : j])
			refs = append(refs, templateRef{index: n})
			i = j - 1
		default:
			// Go 的 Expand 语义下裸 $name 也是合法引用，这里统一要求花括号形式
			return nil, fmt.Errorf("模板中 $ 后存在非法字符 %q，命名引用请使用 ${name}", next)
		}
	}
	return refs, nil
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func parseIndex(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, true
}
