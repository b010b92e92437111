// Package bundle 生成供浏览器端运行时使用的规则包
//
// 改写引擎在构建期静态处理文档，动态构造的 URL 则需要页面内
// 运行时按同一套规则兜底。规则包把规则表与文档上下文编成一段
// JSON，注入归档页面由前端脚本消费
package bundle

import (
	"regexp"
	"strings"

	"github.com/tidwall/sjson"

	"zimrewrite/pkg/errx"
	"zimrewrite/pkg/fuzzyspec"
)

// jsTemplateRefRe 匹配 Go 模板形态的命名组引用 ${name}
var jsTemplateRefRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// BootstrapContext 注入页面的文档上下文
type BootstrapContext struct {
	OriginalScheme string // 原始 URL 的 scheme
	OriginalURL    string // 文档的原始绝对 URL
	DocumentPath   string // 文档的归档路径
}

// Build 构建单篇文档的规则包 JSON
//
// 替换模板中的 ${name} 转换为 JS String.replace 识别的 $<name>，
// 数字引用 $1 两种语法一致无需转换
func Build(cfg *fuzzyspec.Config, ctx BootstrapContext) (string, error) {
	if cfg == nil {
		return "", errx.New(errx.CodeRuleCompile, "规则配置为空")
	}
	out := "{}"
	var err error
	set := func(path string, value any) {
		if err != nil {
			return
		}
		out, err = sjson.Set(out, path, value)
	}

	set("version", cfg.Version)
	set("context.originalScheme", ctx.OriginalScheme)
	set("context.originalUrl", ctx.OriginalURL)
	set("context.documentPath", ctx.DocumentPath)
	for i, rule := range cfg.Rules {
		set("rules."+itoa(i)+".name", rule.Name)
		set("rules."+itoa(i)+".match", rule.Pattern)
		set("rules."+itoa(i)+".replace", toJSTemplate(rule.Replace))
		set("rules."+itoa(i)+".scope", string(rule.GetScope()))
	}
	if err != nil {
		return "", errx.Wrap(errx.CodeRuleCompile, err, "规则包序列化失败")
	}
	return out, nil
}

// ConformanceCorpus 导出规则自带的断言语料
// 其他实现（如前端运行时）加载同一份语料即可做跨实现一致性校验
func ConformanceCorpus(cfg *fuzzyspec.Config) (string, error) {
	if cfg == nil {
		return "", errx.New(errx.CodeRuleCompile, "规则配置为空")
	}
	out := "{}"
	var err error
	set := func(path string, value any) {
		if err != nil {
			return
		}
		out, err = sjson.Set(out, path, value)
	}

	set("version", cfg.Version)
	n := 0
	for _, rule := range cfg.Rules {
		for _, tc := range rule.Tests {
			prefix := "cases." + itoa(n) + "."
			set(prefix+"rule", rule.Name)
			set(prefix+"scope", string(rule.GetScope()))
			set(prefix+"input", tc.Input)
			set(prefix+"expected", tc.Expected)
			n++
		}
	}
	if err != nil {
		return "", errx.Wrap(errx.CodeRuleCompile, err, "语料序列化失败")
	}
	return out, nil
}

// toJSTemplate 把替换模板转成 JS 语法
func toJSTemplate(replace string) string {
	return jsTemplateRefRe.ReplaceAllString(replace, "$$<$1>")
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b [8]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	return string(b[i:])
}

// ScriptTag 把规则包包装成可注入 <head> 的脚本标签
func ScriptTag(bundleJSON string) string {
	var b strings.Builder
	b.WriteString(`<script type="application/json" id="zim-rewrite-bundle">`)
	// JSON 作为脚本内容时防止提前闭合
	b.WriteString(strings.ReplaceAll(bundleJSON, "</", `<\/`))
	b.WriteString("</script>")
	return b.String()
}
