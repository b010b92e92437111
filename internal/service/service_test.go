package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"zimrewrite/internal/config"
	"zimrewrite/internal/service"
	"zimrewrite/pkg/domain"
	"zimrewrite/pkg/errx"
	"zimrewrite/pkg/fuzzyspec"
)

// newTestService 创建基于内存数据库的改写服务。
func newTestService(t *testing.T, mutate func(cfg *config.Config)) *service.Service {
	cfg := config.NewConfig()
	cfg.Sqlite.Db = ":memory:"
	cfg.Rewrite.Audit = false
	cfg.Rewrite.Bundle = false
	if mutate != nil {
		mutate(cfg)
	}
	s, err := service.New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("创建服务失败: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("关闭服务失败: %v", err)
		}
	})
	return s
}

// TestService_NormalizeURL 测试服务层的路径归一入口。
func TestService_NormalizeURL(t *testing.T) {
	s := newTestService(t, nil)

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"根路径", "https://exemple.com/", "exemple.com/"},
		{"百分号解码", "https://exemple.com/a%20b.html", "exemple.com/a b.html"},
		{"端口丢弃", "https://exemple.com:8080/a.html", "exemple.com/a.html"},
		{"模糊规则", "https://youtube.com/embed/aaa?autoplay=1", "youtube.fuzzy.replayweb.page/embed/aaa"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.NormalizeURL(tt.url)
			if err != nil {
				t.Fatalf("归一失败: %v", err)
			}
			if got.Value() != tt.want {
				t.Errorf("期望 %q 实际 %q", tt.want, got.Value())
			}
		})
	}
}

// TestService_NormalizeURL_Invalid 测试非法 URL 报错。
func TestService_NormalizeURL_Invalid(t *testing.T) {
	s := newTestService(t, nil)

	if _, err := s.NormalizeURL("ftp://exemple.com/a"); err == nil {
		t.Error("期望报错但成功了")
	}
}

// TestService_RewriteHTML 测试 HTML 文档的端到端改写。
func TestService_RewriteHTML(t *testing.T) {
	s := newTestService(t, nil)

	s.AddKnownURLs([]string{
		"https://kiwix.org/a/article1.html",
		"https://kiwix.org/a/img/logo.png",
	})

	doc := service.Document{
		URL:         "https://kiwix.org/a/article1.html",
		ContentType: "text/html; charset=utf-8",
		Content:     `<html><head><title>首页</title></head><body><img src="https://kiwix.org/a/img/logo.png"></body></html>`,
	}
	res, err := s.RewriteDocument(context.Background(), doc)
	if err != nil {
		t.Fatalf("改写失败: %v", err)
	}
	if res.Title != "首页" {
		t.Errorf("标题期望 %q 实际 %q", "首页", res.Title)
	}
	if !strings.Contains(res.Content, `src="img/logo.png"`) {
		t.Errorf("改写结果缺少相对引用: %s", res.Content)
	}
	if res.URLTotal != 1 || res.URLRewritten != 1 {
		t.Errorf("计数期望 1/1 实际 %d/%d", res.URLTotal, res.URLRewritten)
	}
}

// TestService_RewriteHTML_WithBundle 测试运行时脚本注入。
func TestService_RewriteHTML_WithBundle(t *testing.T) {
	s := newTestService(t, func(cfg *config.Config) {
		cfg.Rewrite.Bundle = true
	})

	doc := service.Document{
		URL:         "https://kiwix.org/a/article1.html",
		ContentType: "text/html",
		Content:     `<html><head><title>首页</title></head><body></body></html>`,
	}
	res, err := s.RewriteDocument(context.Background(), doc)
	if err != nil {
		t.Fatalf("改写失败: %v", err)
	}
	if !strings.Contains(res.Content, `id="zim-rewrite-bundle"`) {
		t.Errorf("改写结果缺少注入脚本: %s", res.Content)
	}
	// 注入点在 head 起始处
	headIdx := strings.Index(res.Content, "<head>")
	scriptIdx := strings.Index(res.Content, `id="zim-rewrite-bundle"`)
	titleIdx := strings.Index(res.Content, "<title>")
	if !(headIdx < scriptIdx && scriptIdx < titleIdx) {
		t.Errorf("注入脚本位置不在 head 起始处: %s", res.Content)
	}
}

// TestService_RewriteCSS 测试 CSS 文档的端到端改写。
func TestService_RewriteCSS(t *testing.T) {
	s := newTestService(t, nil)

	s.AddKnownURLs([]string{
		"https://kiwix.org/styles/main.css",
		"https://kiwix.org/styles/bg.png",
	})

	doc := service.Document{
		URL:         "https://kiwix.org/styles/main.css",
		ContentType: "text/css",
		Content:     `body { background: url("https://kiwix.org/styles/bg.png"); }`,
	}
	res, err := s.RewriteDocument(context.Background(), doc)
	if err != nil {
		t.Fatalf("改写失败: %v", err)
	}
	if !strings.Contains(res.Content, `url("bg.png")`) {
		t.Errorf("改写结果缺少相对引用: %s", res.Content)
	}
	if res.URLTotal != 1 {
		t.Errorf("计数期望 1 实际 %d", res.URLTotal)
	}
}

// TestService_RewriteJS_ModulePropagation 测试 HTML 声明传播到 JS 改写。
func TestService_RewriteJS_ModulePropagation(t *testing.T) {
	s := newTestService(t, nil)

	s.AddKnownURLs([]string{
		"https://kiwix.org/a/page.html",
		"https://kiwix.org/a/app.js",
		"https://kiwix.org/a/util.js",
	})

	// HTML 中的 type=module 声明使 app.js 按模块脚本改写
	htmlDoc := service.Document{
		URL:         "https://kiwix.org/a/page.html",
		ContentType: "text/html",
		Content:     `<html><head></head><body><script type="module" src="app.js"></script></body></html>`,
	}
	if _, err := s.RewriteDocument(context.Background(), htmlDoc); err != nil {
		t.Fatalf("HTML 改写失败: %v", err)
	}

	jsDoc := service.Document{
		URL:         "https://kiwix.org/a/app.js",
		ContentType: "application/javascript",
		Content:     `import { x } from "./util.js";`,
	}
	res, err := s.RewriteDocument(context.Background(), jsDoc)
	if err != nil {
		t.Fatalf("JS 改写失败: %v", err)
	}
	if !strings.Contains(res.Content, `from "util.js"`) {
		t.Errorf("模块导入应被改写: %s", res.Content)
	}
	if res.URLTotal != 1 {
		t.Errorf("计数期望 1 实际 %d", res.URLTotal)
	}
}

// TestService_RewriteJS_UndeclaredClassic 测试未声明脚本按经典脚本处理。
func TestService_RewriteJS_UndeclaredClassic(t *testing.T) {
	s := newTestService(t, nil)

	src := `import { x } from "./util.js";`
	doc := service.Document{
		URL:         "https://kiwix.org/a/lone.js",
		ContentType: "text/javascript",
		Content:     src,
	}
	res, err := s.RewriteDocument(context.Background(), doc)
	if err != nil {
		t.Fatalf("JS 改写失败: %v", err)
	}
	// 经典脚本不做任何改写
	if res.Content != src {
		t.Errorf("经典脚本应原样保留, 实际 %s", res.Content)
	}
}

// TestService_ScriptKindConflictFailsDocument 测试矛盾的脚本声明使整篇文档失败。
func TestService_ScriptKindConflictFailsDocument(t *testing.T) {
	s := newTestService(t, nil)

	s.AddKnownURLs([]string{
		"https://kiwix.org/page.html",
		"https://kiwix.org/a.js",
	})

	doc := service.Document{
		URL:         "https://kiwix.org/page.html",
		ContentType: "text/html",
		Content:     `<script src="a.js"></script><script type="module" src="a.js"></script>`,
	}
	_, err := s.RewriteDocument(context.Background(), doc)
	if !errx.Is(err, errx.CodeScriptKindConflict) {
		t.Errorf("期望 SCRIPT_KIND_CONFLICT 实际 %v", err)
	}
}

// TestService_RewriteUnsupportedType 测试不支持的内容类型。
func TestService_RewriteUnsupportedType(t *testing.T) {
	s := newTestService(t, nil)

	doc := service.Document{
		URL:         "https://kiwix.org/a/img.png",
		ContentType: "image/png",
		Content:     "...",
	}
	_, err := s.RewriteDocument(context.Background(), doc)
	if !errors.Is(err, domain.ErrUnsupportedContentType) {
		t.Errorf("期望 ErrUnsupportedContentType 实际 %v", err)
	}
}

// TestService_RewriteCancelled 测试已取消的上下文直接返回。
func TestService_RewriteCancelled(t *testing.T) {
	s := newTestService(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	doc := service.Document{
		URL:         "https://kiwix.org/a.html",
		ContentType: "text/html",
		Content:     "<html></html>",
	}
	if _, err := s.RewriteDocument(ctx, doc); !errors.Is(err, context.Canceled) {
		t.Errorf("期望 context.Canceled 实际 %v", err)
	}
}

// TestService_MissingPaths 测试集合外引用的记录。
func TestService_MissingPaths(t *testing.T) {
	s := newTestService(t, nil)

	s.AddKnownURLs([]string{"https://kiwix.org/a.html"})

	doc := service.Document{
		URL:         "https://kiwix.org/a.html",
		ContentType: "text/html",
		Content:     `<html><body><a href="missing.html">x</a></body></html>`,
	}
	res, err := s.RewriteDocument(context.Background(), doc)
	if err != nil {
		t.Fatalf("改写失败: %v", err)
	}
	// 集合外引用保持绝对 URL 不被改写
	if !strings.Contains(res.Content, `href="https://kiwix.org/missing.html"`) {
		t.Errorf("集合外引用应保持绝对形式: %s", res.Content)
	}
	missing := s.MissingPaths()
	if len(missing) != 1 || missing[0] != "kiwix.org/missing.html" {
		t.Errorf("缺失路径期望 [kiwix.org/missing.html] 实际 %v", missing)
	}
}

// TestService_RewriteBatch 测试批量改写。
func TestService_RewriteBatch(t *testing.T) {
	s := newTestService(t, func(cfg *config.Config) {
		cfg.Rewrite.Workers = 2
	})

	s.AddKnownURLs([]string{
		"https://kiwix.org/a.html",
		"https://kiwix.org/b.css",
	})

	docs := []service.Document{
		{URL: "https://kiwix.org/a.html", ContentType: "text/html", Content: "<html><body></body></html>"},
		{URL: "https://kiwix.org/b.css", ContentType: "text/css", Content: "body{}"},
		{URL: "https://kiwix.org/c.png", ContentType: "image/png", Content: "..."},
	}
	items := s.RewriteBatch(context.Background(), docs)
	if len(items) != 3 {
		t.Fatalf("结果数期望 3 实际 %d", len(items))
	}
	if items[0].Err != nil {
		t.Errorf("HTML 文档不应失败: %v", items[0].Err)
	}
	if items[1].Err != nil {
		t.Errorf("CSS 文档不应失败: %v", items[1].Err)
	}
	if !errors.Is(items[2].Err, domain.ErrUnsupportedContentType) {
		t.Errorf("图片文档期望 ErrUnsupportedContentType 实际 %v", items[2].Err)
	}
}

// TestService_RulesetLifecycle 测试规则集的保存、启用与按启用加载。
func TestService_RulesetLifecycle(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	// 未启用任何规则集时落回内置规则
	if s.Rules().ID != fuzzyspec.DefaultRules().ID {
		t.Errorf("期望内置规则集 实际 %q", s.Rules().ID)
	}

	cfg := fuzzyspec.NewConfig("精简规则")
	cfg.Rules = []fuzzyspec.Rule{{
		Name:    "strip-version",
		Pattern: `(.*)\?v=[0-9]+$`,
		Replace: "$1",
		Tests: []fuzzyspec.RuleTest{
			{Input: "exemple.com/app.js?v=42", Expected: "exemple.com/app.js"},
		},
	}}
	if err := s.SaveRuleset(ctx, cfg); err != nil {
		t.Fatalf("保存规则集失败: %v", err)
	}
	if err := s.ActivateRuleset(ctx, cfg.ID); err != nil {
		t.Fatalf("启用规则集失败: %v", err)
	}

	records, err := s.ListRulesets(ctx)
	if err != nil {
		t.Fatalf("列表失败: %v", err)
	}
	if len(records) != 1 || !records[0].Active {
		t.Errorf("期望一条已启用记录 实际 %+v", records)
	}
}

// TestService_SaveRuleset_RejectsUncompilable 测试编译不过的规则集拒绝入库。
func TestService_SaveRuleset_RejectsUncompilable(t *testing.T) {
	s := newTestService(t, nil)

	cfg := fuzzyspec.NewConfig("坏规则")
	cfg.Rules = []fuzzyspec.Rule{{
		Name:    "broken",
		Pattern: `([a`,
		Replace: "$1",
		Tests:   []fuzzyspec.RuleTest{{Input: "x", Expected: "x"}},
	}}
	if err := s.SaveRuleset(context.Background(), cfg); err == nil {
		t.Error("期望编译失败但保存成功了")
	}
	records, err := s.ListRulesets(context.Background())
	if err != nil {
		t.Fatalf("列表失败: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("坏规则不应入库, 实际 %d 条", len(records))
	}
}

// TestService_ImportRuleset 测试 JSON 导入。
func TestService_ImportRuleset(t *testing.T) {
	s := newTestService(t, nil)

	data := []byte(`{
		"id": "3f1d9a5e-7c2b-4e8f-9d6a-1b2c3d4e5f60",
		"name": "导入规则",
		"rules": [
			{
				"name": "strip-version",
				"pattern": "(.*)\\?v=[0-9]+$",
				"replace": "$1",
				"tests": [{"input": "exemple.com/app.js?v=1", "expected": "exemple.com/app.js"}]
			}
		]
	}`)
	cfg, err := s.ImportRuleset(context.Background(), data)
	if err != nil {
		t.Fatalf("导入失败: %v", err)
	}
	if cfg.ID != "3f1d9a5e-7c2b-4e8f-9d6a-1b2c3d4e5f60" {
		t.Errorf("ID 期望导入值 实际 %q", cfg.ID)
	}

	got, err := s.ListRulesets(context.Background())
	if err != nil {
		t.Fatalf("列表失败: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("记录数期望 1 实际 %d", len(got))
	}
}

// TestService_ExportCorpus 测试一致性语料导出。
func TestService_ExportCorpus(t *testing.T) {
	s := newTestService(t, nil)

	corpus, err := s.ExportCorpus()
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if !strings.Contains(corpus, "cases") {
		t.Errorf("语料缺少 cases 字段: %s", corpus)
	}
}
