package rewriter

import (
	"regexp"
	"strings"
)

// cssURLRe 匹配 url(...) 的三种写法：双引号、单引号、裸值
var cssURLRe = regexp.MustCompile(`(?i)url\(\s*(?:"([^"]*)"|'([^']*)'|([^"'()\s][^)]*))\s*\)`)

// cssImportRe 匹配不带 url() 的 @import "..." 与 @import '...'
var cssImportRe = regexp.MustCompile(`(?i)(@import\s+)(?:"([^"]*)"|'([^']*)')`)

// CSSRewriter 样式表内 URL 引用的改写器
// 按词法匹配 url() 与 @import，不解析完整 CSS 语法，
// 注释内的伪引用也会被改写，对归档产物无害
type CSSRewriter struct {
	urls *URLRewriter
}

// NewCSSRewriter 创建 CSS 改写器
func NewCSSRewriter(urls *URLRewriter) *CSSRewriter {
	return &CSSRewriter{urls: urls}
}

// Rewrite 改写样式表文本并返回结果与改写计数
func (c *CSSRewriter) Rewrite(css string) (string, int) {
	count := 0
	out := cssURLRe.ReplaceAllStringFunc(css, func(m string) string {
		sub := cssURLRe.FindStringSubmatch(m)
		raw := firstNonEmptyGroup(sub[1:])
		target := strings.TrimSpace(raw)
		if target == "" || strings.HasPrefix(target, "data:") {
			return m
		}
		res := c.urls.Rewrite(target)
		if res.RewrittenURL == target {
			return m
		}
		count++
		return `url("` + escapeCSSString(res.RewrittenURL) + `")`
	})
	out = cssImportRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := cssImportRe.FindStringSubmatch(m)
		target := firstNonEmptyGroup(sub[2:])
		if target == "" {
			return m
		}
		res := c.urls.Rewrite(target)
		if res.RewrittenURL == target {
			return m
		}
		count++
		return sub[1] + `"` + escapeCSSString(res.RewrittenURL) + `"`
	})
	return out, count
}

// firstNonEmptyGroup 取首个非空捕获组
// url() 的三个分支互斥，至多一个分支有值
func firstNonEmptyGroup(groups []string) string {
	for _, g := range groups {
		if g != "" {
			return g
		}
	}
	return ""
}

func escapeCSSString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
