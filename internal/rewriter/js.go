package rewriter

import (
	"regexp"

	"zimrewrite/internal/logger"
	"zimrewrite/pkg/domain"
)

// jsFromRe 匹配静态 import/export 的 from "..." 说明符
var jsFromRe = regexp.MustCompile(`\b(import|export)\b([^"'` + "`" + `;]*?\bfrom\s*)("[^"]*"|'[^']*')`)

// jsBareImportRe 匹配仅为副作用的 import "..." 语句
var jsBareImportRe = regexp.MustCompile(`\bimport\s*("[^"]*"|'[^']*')`)

// JSRewriter 脚本内容的改写器
//
// 只处理 module 脚本的静态 import/export 说明符，这是能在
// 构建期静态定位的全部 URL。classic 脚本与动态 import 属于
// 运行时范畴，条目内容原样通过
type JSRewriter struct {
	urls  *URLRewriter
	kinds *KindRegistry
	log   logger.Logger
}

// NewJSRewriter 创建 JS 改写器
func NewJSRewriter(urls *URLRewriter, kinds *KindRegistry, log logger.Logger) *JSRewriter {
	if log == nil {
		log = logger.NewNop()
	}
	return &JSRewriter{urls: urls, kinds: kinds, log: log}
}

// RewriteModule 改写 module 脚本的导入说明符
// 每个被改写的说明符对应的条目同步登记为 module（种类传播）；
// 登记与既有声明冲突即输入损坏，返回 SCRIPT_KIND_CONFLICT 中止本篇
func (j *JSRewriter) RewriteModule(src string) (string, int, error) {
	count := 0
	var declareErr error
	rewrite := func(match, head, mid, quoted string) string {
		spec := quoted[1 : len(quoted)-1]
		if !isURLSpecifier(spec) {
			// 裸说明符（如包名）不是 URL，交还给运行时解析
			return match
		}
		res := j.urls.Rewrite(spec)
		if res.ZimPath != nil && j.kinds != nil {
			if err := j.kinds.Declare(*res.ZimPath, domain.ScriptKindModule); err != nil {
				if declareErr == nil {
					declareErr = err
				}
				return match
			}
		}
		if res.RewrittenURL == spec {
			return match
		}
		count++
		q := string(quoted[0])
		return head + mid + q + res.RewrittenURL + q
	}

	out := jsFromRe.ReplaceAllStringFunc(src, func(m string) string {
		sub := jsFromRe.FindStringSubmatch(m)
		return rewrite(m, sub[1], sub[2], sub[3])
	})
	out = jsBareImportRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := jsBareImportRe.FindStringSubmatch(m)
		head := m[:len(m)-len(sub[1])]
		return rewrite(m, head, "", sub[1])
	})
	if declareErr != nil {
		return "", 0, declareErr
	}
	return out, count, nil
}

// RewriteClassic classic 脚本不做改写
// 其中的 URL 只能在运行时求值，静态改写层无从定位
func (j *JSRewriter) RewriteClassic(src string) (string, int) {
	return src, 0
}

// isURLSpecifier 判断导入说明符是否为 URL 形态
// 相对路径、绝对路径与 http(s) 地址为真，裸包名为假
func isURLSpecifier(spec string) bool {
	switch {
	case spec == "":
		return false
	case spec[0] == '/':
		return true
	case len(spec) >= 2 && spec[:2] == "./":
		return true
	case len(spec) >= 3 && spec[:3] == "../":
		return true
	case len(spec) >= 7 && spec[:7] == "http://":
		return true
	case len(spec) >= 8 && spec[:8] == "https://":
		return true
	}
	return false
}
