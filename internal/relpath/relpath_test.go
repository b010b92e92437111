package relpath_test

import (
	"strings"
	"testing"

	"zimrewrite/internal/relpath"
	"zimrewrite/internal/urlx"
	"zimrewrite/internal/zimpath"
	"zimrewrite/pkg/domain"
)

// TestRelativize 测试归档路径之间的相对引用计算
func TestRelativize(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want string
	}{
		{"同目录", "kiwix.org/a/article/document.html", "kiwix.org/a/article/foo.html", "foo.html"},
		{"子目录", "kiwix.org/a/article/document.html", "kiwix.org/a/article/sub/foo.html", "sub/foo.html"},
		{"上级目录", "kiwix.org/a/article/document.html", "kiwix.org/a/foo.html", "../foo.html"},
		{"跨主机", "kiwix.org/a/article/document.html", "other.org/x/y.png", "../../../other.org/x/y.png"},
		{"目标即所在目录", "kiwix.org/a/article/document.html", "kiwix.org/a/article/", "./"},
		{"保留末尾斜杠", "kiwix.org/x.html", "kiwix.org/a/b/", "a/b/"},
		{"首段含冒号加前缀", "en.wikipedia.org/wiki/Kiwix", "en.wikipedia.org/wiki/File:Kiwix_logo_v3.svg", "./File:Kiwix_logo_v3.svg"},
		{"深层文档引用浅层", "en.wikipedia.org/wiki/something/deep/Kiwix", "en.wikipedia.org/wiki/File:Kiwix_logo_v3.svg", "../../File:Kiwix_logo_v3.svg"},
		{"折叠进路径的查询被编码", "kiwix.org/a/article/document.html", "kiwix.org/a/article/foo.html?foo=bar", "foo.html%3Ffoo%3Dbar"},
		{"空格与加号被编码", "kiwix.org/a/article/document.html", "kiwix.org/fo+o.html", "../../fo%2Bo.html"},
		{"波浪号保持字面", "kiwix.org/a/article/document.html", "kiwix.org/a/article/fo~o.html", "fo~o.html"},
		{"非 ASCII 按 UTF-8 编码", "kiwix.org/a/article/document.html", "exémple.com/a/resource/image.png?foo=bar", "../../../ex%C3%A9mple.com/a/resource/image.png%3Ffoo%3Dbar"},
		{"查询内空格被编码", "kiwix.org/a/article/document.html", "kiwix.org/a/article/res?foo=ba r", "res%3Ffoo%3Dba%20r"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := relpath.Relativize(domain.MustZimPath(tt.from), domain.MustZimPath(tt.to))
			if got != tt.want {
				t.Errorf("Relativize(%q, %q) 期望 %q 实际 %q", tt.from, tt.to, tt.want, got)
			}
		})
	}
}

// TestRelativize_RoundTrip 测试相对引用对文档路径解析后还原目标路径
//
// 约定：把 Relativize 的输出按 RFC 3986 对文档自身路径解析，
// 再做百分号解码，必须逐字节还原目标归档路径
func TestRelativize_RoundTrip(t *testing.T) {
	pairs := []struct {
		name string
		from string
		to   string
	}{
		{"同目录", "kiwix.org/a/article/document.html", "kiwix.org/a/article/foo.html"},
		{"自引用", "kiwix.org/a/article/document.html", "kiwix.org/a/article/document.html"},
		{"跨主机走级", "kiwix.org/a/article/document.html", "other.org/x/y.png"},
		{"目标即所在目录", "kiwix.org/a/article/document.html", "kiwix.org/a/article/"},
		{"保留末尾斜杠", "kiwix.org/x.html", "kiwix.org/a/b/"},
		{"冒号首段加点前缀", "en.wikipedia.org/wiki/Kiwix", "en.wikipedia.org/wiki/File:Kiwix_logo_v3.svg"},
		{"折叠查询保持字面", "kiwix.org/a/article/document.html", "kiwix.org/a/article/foo.html?foo=bar"},
		{"非 ASCII 目标", "kiwix.org/a/article/document.html", "exémple.com/a/resource/image.png?foo=bar"},
		{"解码后的空格", "kiwix.org/a/article/document.html", "kiwix.org/a/article/a b.html"},
	}

	for _, tt := range pairs {
		t.Run(tt.name, func(t *testing.T) {
			from := domain.MustZimPath(tt.from)
			to := domain.MustZimPath(tt.to)
			rel := relpath.Relativize(from, to)

			// 归档路径编码后挂到任意基准主机下充当文档地址
			base := "https://archive.invalid/" + relpath.Encode(from.Value())
			resolved, err := urlx.ResolveString(base, rel)
			if err != nil {
				t.Fatalf("解析 %q 失败: %v", rel, err)
			}
			if resolved.HasQuery {
				t.Errorf("相对引用 %q 解析后出现真实查询: %q", rel, resolved.Query)
			}
			got := zimpath.PercentDecode(strings.TrimPrefix(resolved.Path, "/"))
			if got != to.Value() {
				t.Errorf("Relativize(%q, %q) = %q 解析回 %q，未还原目标", tt.from, tt.to, rel, got)
			}
		})
	}
}

// TestEncode 测试归档字母表的百分号编码
func TestEncode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abc-._~/:@", "abc-._~/:@"},
		{"a b", "a%20b"},
		{"a+b", "a%2Bb"},
		{"a?b=c&d", "a%3Fb%3Dc%26d"},
		{"été", "%C3%A9t%C3%A9"},
		{"100%", "100%25"},
	}
	for _, tt := range tests {
		if got := relpath.Encode(tt.in); got != tt.want {
			t.Errorf("Encode(%q) 期望 %q 实际 %q", tt.in, tt.want, got)
		}
	}
}
