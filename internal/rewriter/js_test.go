package rewriter_test

import (
	"strings"
	"testing"

	"zimrewrite/internal/logger"
	"zimrewrite/internal/rewriter"
	"zimrewrite/pkg/domain"
	"zimrewrite/pkg/errx"
)

func newTestJSRewriter(t *testing.T, docURL string, known []string) (*rewriter.JSRewriter, *rewriter.KindRegistry) {
	t.Helper()
	urls := newTestRewriter(t, docURL, known, rewriter.Options{})
	kinds := rewriter.NewKindRegistry(logger.NewNop())
	return rewriter.NewJSRewriter(urls, kinds, logger.NewNop()), kinds
}

// TestJS_RewriteModule 测试 module 脚本的静态导入改写
func TestJS_RewriteModule(t *testing.T) {
	known := []string{
		"https://kiwix.org/js/util.js",
		"https://kiwix.org/js/vendor/lib.js",
	}
	j, _ := newTestJSRewriter(t, "https://kiwix.org/js/app.js", known)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"具名导入", `import { a, b } from "./util.js";`, `import { a, b } from "util.js";`},
		{"默认导入", `import util from '/js/util.js';`, `import util from 'util.js';`},
		{"副作用导入", `import "https://kiwix.org/js/vendor/lib.js";`, `import "vendor/lib.js";`},
		{"再导出", `export { x } from "./vendor/lib.js";`, `export { x } from "vendor/lib.js";`},
		{"裸包名不动", `import lodash from "lodash";`, `import lodash from "lodash";`},
		{"普通语句不动", `const s = "import nothing"; let from = 1;`, `const s = "import nothing"; let from = 1;`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := j.RewriteModule(tt.in)
			if err != nil {
				t.Fatalf("改写失败: %v", err)
			}
			if got != tt.want {
				t.Errorf("期望 %q 实际 %q", tt.want, got)
			}
		})
	}
}

// TestJS_ModulePropagation 测试被导入条目登记为 module
func TestJS_ModulePropagation(t *testing.T) {
	j, kinds := newTestJSRewriter(t, "https://kiwix.org/js/app.js",
		[]string{"https://kiwix.org/js/util.js"})

	if _, _, err := j.RewriteModule(`import { a } from "./util.js";`); err != nil {
		t.Fatalf("改写失败: %v", err)
	}
	if kinds.Kind(domain.MustZimPath("kiwix.org/js/util.js")) != domain.ScriptKindModule {
		t.Error("被导入条目应登记为 module")
	}
}

// TestJS_ModuleImportConflict 测试导入目标与既有 classic 声明冲突时中止
func TestJS_ModuleImportConflict(t *testing.T) {
	j, kinds := newTestJSRewriter(t, "https://kiwix.org/js/app.js",
		[]string{"https://kiwix.org/js/util.js"})

	target := domain.MustZimPath("kiwix.org/js/util.js")
	if err := kinds.Declare(target, domain.ScriptKindClassic); err != nil {
		t.Fatalf("登记 classic 失败: %v", err)
	}

	_, _, err := j.RewriteModule(`import { a } from "./util.js";`)
	if !errx.Is(err, errx.CodeScriptKindConflict) {
		t.Errorf("期望 SCRIPT_KIND_CONFLICT 实际 %v", err)
	}
	// 先到的声明保持锁定
	if kinds.Kind(target) != domain.ScriptKindClassic {
		t.Error("冲突后种类不应被改写方覆盖")
	}
}

// TestJS_RewriteClassic 测试 classic 脚本内容透传
func TestJS_RewriteClassic(t *testing.T) {
	j, _ := newTestJSRewriter(t, "https://kiwix.org/js/app.js",
		[]string{"https://kiwix.org/js/util.js"})

	src := `var url = "https://kiwix.org/js/util.js"; fetch(url);`
	got, n := j.RewriteClassic(src)
	if got != src || n != 0 {
		t.Errorf("classic 脚本应透传，实际 %q (n=%d)", got, n)
	}
}

// TestJS_UnknownImportKeepsOriginal 测试集合外导入保留绝对地址
func TestJS_UnknownImportKeepsOriginal(t *testing.T) {
	j, _ := newTestJSRewriter(t, "https://kiwix.org/js/app.js", nil)

	got, _, err := j.RewriteModule(`import { a } from "https://cdn.example.com/x.js";`)
	if err != nil {
		t.Fatalf("改写失败: %v", err)
	}
	if !strings.Contains(got, `"https://cdn.example.com/x.js"`) {
		t.Errorf("集合外导入应保留绝对地址: %q", got)
	}
}
