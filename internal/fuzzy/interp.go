package fuzzy

import (
	"strings"

	"zimrewrite/internal/regexutil"
	"zimrewrite/pkg/errx"
	"zimrewrite/pkg/fuzzyspec"
)

// Interpreter 逐条解释形态的规则引擎
//
// 与 Engine 刻意保持实现独立：规则在每次求值时经缓存按需编译，
// 模板展开由下方手写的替换器完成而非标准库 Expand。
// 浏览器端运行时消费的就是这一形态对应的序列化规则（见 internal/bundle），
// 因此本实现同时充当其行为参考
type Interpreter struct {
	cfg   *fuzzyspec.Config
	cache *regexutil.Cache
}

// NewInterpreter 创建解释器
func NewInterpreter(cfg *fuzzyspec.Config) *Interpreter {
	if cfg == nil {
		cfg = fuzzyspec.NewConfig("empty")
	}
	return &Interpreter{cfg: cfg, cache: regexutil.New()}
}

// Apply 按声明顺序解释执行指定作用域的规则，语义与 Engine.Apply 一致
func (it *Interpreter) Apply(subject string, scope fuzzyspec.Scope) (string, error) {
	for i := range it.cfg.Rules {
		r := &it.cfg.Rules[i]
		if r.GetScope() != scope {
			continue
		}
		re, err := it.cache.Get(anchor(r.Pattern))
		if err != nil {
			return "", errx.Wrap(errx.CodeRuleCompile, err, "规则 "+r.Name+" 模式编译失败")
		}
		groups := re.FindStringSubmatch(subject)
		if groups == nil {
			continue
		}
		return expand(r.Replace, groups, re.SubexpNames()), nil
	}
	return subject, nil
}

// expand 手写的模板替换器：按 $1 / ${name} / $$ 展开捕获内容
// 不存在的引用展开为空串，与预编译形态保持一致
func expand(template string, groups []string, names []string) string {
	var b strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '$' || i+1 >= len(template) {
			b.WriteByte(c)
			continue
		}
		next := template[i+1]
		switch {
		case next == '$':
			b.WriteByte('$')
			i++
		case next == '{':
			end := strings.IndexByte(template[i+2:], '}')
			if end < 0 {
				b.WriteByte(c)
				continue
			}
			body := template[i+2 : i+2+end]
			b.WriteString(lookup(body, groups, names))
			i += 2 + end
		case next >= '0' && next <= '9':
			j := i + 1
			for j < len(template) && template[j] >= '0' && template[j] <= '9' {
				j++
			}
			b.WriteString(lookup(template[i+1:j], groups, names))
			i = j - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// lookup 解析一次引用：纯数字按序号取组，否则按命名组取
func lookup(ref string, groups []string, names []string) string {
	if n, ok := parseIndex(ref); ok {
		if n < len(groups) {
			return groups[n]
		}
		return ""
	}
	for i, name := range names {
		if name == ref && i < len(groups) {
			return groups[i]
		}
	}
	return ""
}
