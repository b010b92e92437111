package rewriter_test

import (
	"strings"
	"testing"

	"zimrewrite/internal/rewriter"
)

// TestCSS_Rewrite 测试样式表内 url() 与 @import 的改写
func TestCSS_Rewrite(t *testing.T) {
	known := []string{
		"https://kiwix.org/assets/bg.png",
		"https://kiwix.org/assets/font.woff2",
		"https://kiwix.org/assets/base.css",
	}
	urls := newTestRewriter(t, "https://kiwix.org/assets/main.css", known, rewriter.Options{})
	c := rewriter.NewCSSRewriter(urls)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"双引号", `body { background: url("https://kiwix.org/assets/bg.png"); }`, `body { background: url("bg.png"); }`},
		{"单引号", `body { background: url('https://kiwix.org/assets/bg.png'); }`, `body { background: url("bg.png"); }`},
		{"裸值", `body { background: url(https://kiwix.org/assets/bg.png); }`, `body { background: url("bg.png"); }`},
		{"带空白", `body { background: url(  https://kiwix.org/assets/bg.png  ); }`, `body { background: url("bg.png"); }`},
		{"大写函数名", `body { background: URL("https://kiwix.org/assets/bg.png"); }`, `body { background: url("bg.png"); }`},
		{"import 带 url 函数", `@import url("https://kiwix.org/assets/base.css");`, `@import url("base.css");`},
		{"import 裸字符串", `@import "https://kiwix.org/assets/base.css";`, `@import "base.css";`},
		{"data URI 不动", `a { background: url(data:image/png;base64,AAAA); }`, `a { background: url(data:image/png;base64,AAAA); }`},
		{"相对引用不变时原样", `a { background: url("bg.png"); }`, `a { background: url("bg.png"); }`},
		{"多个引用", `@font-face { src: url("font.woff2"); } b { background: url("https://kiwix.org/assets/bg.png"); }`,
			`@font-face { src: url("font.woff2"); } b { background: url("bg.png"); }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := c.Rewrite(tt.in)
			if got != tt.want {
				t.Errorf("期望 %q 实际 %q", tt.want, got)
			}
		})
	}
}

// TestCSS_RewriteCount 测试改写计数
func TestCSS_RewriteCount(t *testing.T) {
	urls := newTestRewriter(t, "https://kiwix.org/main.css",
		[]string{"https://kiwix.org/a.png", "https://kiwix.org/b.png"}, rewriter.Options{})
	c := rewriter.NewCSSRewriter(urls)

	_, n := c.Rewrite(`x { background: url("https://kiwix.org/a.png") } y { background: url("https://kiwix.org/b.png") }`)
	if n != 2 {
		t.Errorf("改写计数期望 2 实际 %d", n)
	}
}

// TestCSS_MalformedLeavesInput 测试不完整语法不破坏输入
func TestCSS_MalformedLeavesInput(t *testing.T) {
	urls := newTestRewriter(t, "https://kiwix.org/main.css", nil, rewriter.Options{})
	c := rewriter.NewCSSRewriter(urls)

	in := `a { background: url( }`
	got, _ := c.Rewrite(in)
	if !strings.Contains(got, "url(") {
		t.Errorf("不完整的 url() 应保留原文: %q", got)
	}
}
