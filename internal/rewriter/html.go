package rewriter

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"zimrewrite/internal/logger"
	"zimrewrite/pkg/domain"
)

// baseHrefRe 预扫描文档内首个 <base href>
var baseHrefRe = regexp.MustCompile(`(?i)<base\b[^>]*?\bhref\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s>]+))`)

// metaRefreshRe 拆解 refresh 指令的延时与 url 两段
var metaRefreshRe = regexp.MustCompile(`(?i)^(\s*[\d.]+\s*;\s*url\s*=\s*)(.+?)(\s*)$`)

// metaCharsetRe 替换 content-type 声明内嵌的 charset
var metaCharsetRe = regexp.MustCompile(`(?i)charset\s*=\s*[^;\s]+`)

// textMode 原始文本元素的内容归属
type textMode int

const (
	textNone textMode = iota
	textScriptModule
	textScriptClassic
	textScriptOpaque // JSON、模板等非 JS 内容
	textStyle
	textTitle
)

// HTMLOptions HTML 改写选项
type HTMLOptions struct {
	// PreHeadInsert 紧跟 <head> 之后注入的片段
	PreHeadInsert string
	// PostHeadInsert 紧贴 </head> 之前注入的片段
	PostHeadInsert string
}

// HTMLRewriter HTML 文档的改写器
//
// 基于词法流单遍改写：未触碰的 token 按原始字节透传，改写过的
// 标签重新渲染。解析错误不会中断改写，剩余内容原样落盘
type HTMLRewriter struct {
	urls  *URLRewriter
	css   *CSSRewriter
	js    *JSRewriter
	kinds *KindRegistry
	opts  HTMLOptions
	log   logger.Logger
}

// NewHTMLRewriter 创建 HTML 改写器
func NewHTMLRewriter(urls *URLRewriter, css *CSSRewriter, js *JSRewriter, kinds *KindRegistry, opts HTMLOptions, log logger.Logger) *HTMLRewriter {
	if log == nil {
		log = logger.NewNop()
	}
	return &HTMLRewriter{urls: urls, css: css, js: js, kinds: kinds, opts: opts, log: log}
}

// Rewrite 改写整篇 HTML 文档
func (h *HTMLRewriter) Rewrite(content string) (domain.DocumentResult, error) {
	// base 预扫描：<base> 对整篇文档生效，包括其出现之前的引用
	if m := baseHrefRe.FindStringSubmatch(content); m != nil {
		h.urls.SetBaseHref(firstNonEmptyGroup(m[1:]))
	}

	res := domain.DocumentResult{}
	var out strings.Builder
	out.Grow(len(content) + len(h.opts.PreHeadInsert) + len(h.opts.PostHeadInsert))

	z := html.NewTokenizer(strings.NewReader(content))
	mode := textNone
	titleDone := false
	var titleBuf strings.Builder

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// 词法流到此为止，EOF 之外的错误不再出现于流式解析
			break
		}
		raw := string(z.Raw())

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			rendered, nextMode, err := h.rewriteTag(z, raw, tt == html.SelfClosingTagToken, &res)
			if err != nil {
				return domain.DocumentResult{}, err
			}
			out.WriteString(rendered)
			if tt == html.StartTagToken {
				mode = nextMode
				if tagNameOf(raw) == "head" && h.opts.PreHeadInsert != "" {
					out.WriteString(h.opts.PreHeadInsert)
				}
			}

		case html.EndTagToken:
			name := tagNameOf(raw)
			if name == "head" && h.opts.PostHeadInsert != "" {
				out.WriteString(h.opts.PostHeadInsert)
			}
			if name == "title" {
				titleDone = true
			}
			mode = textNone
			out.WriteString(raw)

		case html.TextToken:
			switch mode {
			case textStyle:
				rewritten, n := h.css.Rewrite(raw)
				res.URLTotal += n
				res.URLRewritten += n
				out.WriteString(rewritten)
			case textScriptModule:
				rewritten, n, err := h.js.RewriteModule(raw)
				if err != nil {
					return domain.DocumentResult{}, err
				}
				res.URLTotal += n
				res.URLRewritten += n
				out.WriteString(rewritten)
			case textScriptClassic:
				rewritten, _ := h.js.RewriteClassic(raw)
				out.WriteString(rewritten)
			case textTitle:
				if !titleDone {
					titleBuf.WriteString(raw)
				}
				out.WriteString(raw)
			default:
				out.WriteString(raw)
			}

		default:
			// 注释、doctype 等原样透传
			out.WriteString(raw)
		}
	}

	res.Title = strings.TrimSpace(html.UnescapeString(titleBuf.String()))
	res.Content = out.String()
	return res, nil
}

// rewriteTag 处理单个开始标签，返回写回的文本与后续文本归属
// script src 的种类登记冲突沿调用链上抛，整篇文档随之中止
func (h *HTMLRewriter) rewriteTag(z *html.Tokenizer, raw string, selfClosing bool, res *domain.DocumentResult) (string, textMode, error) {
	nameBytes, hasAttr := z.TagName()
	name := string(nameBytes)

	var attrs []htmlAttr
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		attrs = append(attrs, htmlAttr{key: string(key), val: string(val)})
	}

	mode := nextTextMode(name, attrs)
	modified := false

	switch name {
	case "base":
		// href 已在预扫描中生效，条目内不保留以免浏览器二次解析
		if filtered, dropped := dropAttr(attrs, "href"); dropped {
			attrs, modified = filtered, true
		}
	case "meta":
		if h.rewriteMeta(attrs, res) {
			modified = true
		}
	}

	for i := range attrs {
		switch lookupAttrKind(name, attrs[i].key) {
		case attrURL:
			res.URLTotal++
			r := h.urls.Rewrite(attrs[i].val)
			if name == "script" {
				if err := h.declareScriptSrc(r, attrs); err != nil {
					return "", textNone, err
				}
			}
			if r.RewrittenURL != attrs[i].val {
				attrs[i].val = r.RewrittenURL
				res.URLRewritten++
				modified = true
			}
		case attrSrcset:
			rewritten, total, changed := h.rewriteSrcset(attrs[i].val)
			res.URLTotal += total
			res.URLRewritten += changed
			if changed > 0 {
				attrs[i].val = rewritten
				modified = true
			}
		case attrCSS:
			rewritten, n := h.css.Rewrite(attrs[i].val)
			res.URLTotal += n
			res.URLRewritten += n
			if n > 0 {
				attrs[i].val = rewritten
				modified = true
			}
		case attrJS:
			rewritten, n := h.js.RewriteClassic(attrs[i].val)
			if n > 0 {
				attrs[i].val = rewritten
				modified = true
			}
		case attrDrop:
			attrs[i].dropped = true
			modified = true
		}
	}

	if !modified {
		return raw, mode, nil
	}
	return renderTag(name, attrs, selfClosing), mode, nil
}

// rewriteMeta 处理 meta 标签的 charset 与 refresh 语义
// 输出统一为 UTF-8 文档，charset 声明必须跟着改
func (h *HTMLRewriter) rewriteMeta(attrs []htmlAttr, res *domain.DocumentResult) bool {
	modified := false
	httpEquiv := ""
	for _, a := range attrs {
		if a.key == "http-equiv" {
			httpEquiv = strings.ToLower(strings.TrimSpace(a.val))
		}
	}
	for i := range attrs {
		switch attrs[i].key {
		case "charset":
			if !strings.EqualFold(attrs[i].val, "UTF-8") {
				attrs[i].val = "UTF-8"
				modified = true
			}
		case "content":
			switch httpEquiv {
			case "content-type":
				next := metaCharsetRe.ReplaceAllString(attrs[i].val, "charset=UTF-8")
				if next != attrs[i].val {
					attrs[i].val = next
					modified = true
				}
			case "refresh":
				m := metaRefreshRe.FindStringSubmatch(attrs[i].val)
				if m == nil {
					continue
				}
				res.URLTotal++
				target := strings.Trim(m[2], `"'`)
				r := h.urls.Rewrite(target)
				if r.RewrittenURL != target {
					attrs[i].val = m[1] + r.RewrittenURL + m[3]
					res.URLRewritten++
					modified = true
				}
			}
		}
	}
	return modified
}

// declareScriptSrc 为 script src 指向的条目登记脚本种类
// 冲突按输入损坏处理，错误交由调用方中止本篇文档
func (h *HTMLRewriter) declareScriptSrc(r domain.RewriteResult, attrs []htmlAttr) error {
	if r.ZimPath == nil || h.kinds == nil {
		return nil
	}
	kind := domain.ScriptKindClassic
	if scriptType(attrs) == "module" {
		kind = domain.ScriptKindModule
	}
	if err := h.kinds.Declare(*r.ZimPath, kind); err != nil {
		h.log.Error("[脚本] src 目标种类声明冲突", "path", r.ZimPath.Value(), "err", err.Error())
		return err
	}
	return nil
}

// rewriteSrcset 逐候选改写 srcset
// 候选以逗号分隔，每个候选为 URL 加可选描述符
func (h *HTMLRewriter) rewriteSrcset(srcset string) (string, int, int) {
	parts := strings.Split(srcset, ",")
	total, changed := 0, 0
	for i, part := range parts {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		total++
		r := h.urls.Rewrite(fields[0])
		if r.RewrittenURL != fields[0] {
			fields[0] = r.RewrittenURL
			changed++
		}
		parts[i] = strings.Join(fields, " ")
	}
	if changed == 0 {
		return srcset, total, 0
	}
	return strings.Join(parts, ", "), total, changed
}

// nextTextMode 判定标签之后文本 token 的归属
func nextTextMode(name string, attrs []htmlAttr) textMode {
	switch name {
	case "style":
		return textStyle
	case "title":
		return textTitle
	case "script":
		switch scriptType(attrs) {
		case "", "text/javascript", "application/javascript":
			return textScriptClassic
		case "module":
			return textScriptModule
		default:
			// JSON、模板等内容不是可改写的 JS
			return textScriptOpaque
		}
	}
	return textNone
}

func scriptType(attrs []htmlAttr) string {
	for _, a := range attrs {
		if a.key == "type" {
			return strings.ToLower(strings.TrimSpace(a.val))
		}
	}
	return ""
}

type htmlAttr struct {
	key     string
	val     string
	dropped bool
}

func dropAttr(attrs []htmlAttr, key string) ([]htmlAttr, bool) {
	dropped := false
	for i := range attrs {
		if attrs[i].key == key {
			attrs[i].dropped = true
			dropped = true
		}
	}
	return attrs, dropped
}

// renderTag 重新渲染被改写的标签
// 属性顺序保持解析顺序，属性值统一双引号并转义
func renderTag(name string, attrs []htmlAttr, selfClosing bool) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(name)
	for _, a := range attrs {
		if a.dropped {
			continue
		}
		fmt.Fprintf(&b, ` %s="%s"`, a.key, html.EscapeString(a.val))
	}
	if selfClosing {
		b.WriteString("/>")
	} else {
		b.WriteByte('>')
	}
	return b.String()
}

// tagNameOf 从原始字节中提取标签名
func tagNameOf(raw string) string {
	raw = strings.TrimPrefix(raw, "<")
	raw = strings.TrimPrefix(raw, "/")
	end := len(raw)
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '>' || c == '/' {
			end = i
			break
		}
	}
	return strings.ToLower(raw[:end])
}
