// Package rewriter 实现文档内 URL 引用的改写
//
// 包内分为两层：URLRewriter 负责单个 URL 字符串的改写决策
// （解析、归一、查集合、相对化），HTML/CSS/JS 改写器负责在各自
// 语法中定位 URL 并调用前者
package rewriter

import (
	"strings"

	"zimrewrite/internal/fuzzy"
	"zimrewrite/internal/logger"
	"zimrewrite/internal/pathset"
	"zimrewrite/internal/relpath"
	"zimrewrite/internal/urlx"
	"zimrewrite/internal/zimpath"
	"zimrewrite/pkg/domain"
)

// URLRewriter 面向单篇文档的 URL 改写器
//
// 一个实例绑定一篇文档（其原始 URL 与归档路径），并发安全性
// 与文档生命周期一致：同一文档的改写串行执行
type URLRewriter struct {
	articleURL  domain.HttpUrl
	articlePath domain.ZimPath
	baseHref    string
	normalizer  *zimpath.Normalizer
	engine      *fuzzy.Engine
	paths       *pathset.Set
	rewriteAll  bool
	log         logger.Logger

	// missingZimPaths 收集本篇文档内指向集合外条目的路径，供诊断
	notifyMissing func(domain.ZimPath)
}

// Options URL 改写器的可选项
type Options struct {
	// RewriteAll 为 true 时不查已知路径集合，所有可归一的 URL 一律相对化
	RewriteAll bool
	// NotifyMissing 目标路径不在集合内时的回调，可为 nil
	NotifyMissing func(domain.ZimPath)
}

// NewURLRewriter 创建绑定到一篇文档的改写器
func NewURLRewriter(
	articleURL domain.HttpUrl,
	articlePath domain.ZimPath,
	normalizer *zimpath.Normalizer,
	engine *fuzzy.Engine,
	paths *pathset.Set,
	log logger.Logger,
	opts Options,
) *URLRewriter {
	if log == nil {
		log = logger.NewNop()
	}
	return &URLRewriter{
		articleURL:    articleURL,
		articlePath:   articlePath,
		normalizer:    normalizer,
		engine:        engine,
		paths:         paths,
		rewriteAll:    opts.RewriteAll,
		log:           log,
		notifyMissing: opts.NotifyMissing,
	}
}

// SetBaseHref 登记文档 <base href> 的值
// 此后所有相对引用先对 base 解析，再对文档 URL 解析
func (r *URLRewriter) SetBaseHref(href string) {
	r.baseHref = strings.TrimSpace(href)
}

// ArticlePath 返回绑定文档的归档路径
func (r *URLRewriter) ArticlePath() domain.ZimPath {
	return r.articlePath
}

// Rewrite 改写一个 URL 引用
//
// 不可改写的输入（纯片段、非 http(s) 协议、畸形 URL、指向集合外
// 的条目）一律原样返回，改写过程永不让文档损坏。
// 空引用按 RFC 3986 解析为文档自身，改写为指向自身的相对引用
func (r *URLRewriter) Rewrite(ref string) domain.RewriteResult {
	keep := domain.RewriteResult{RewrittenURL: ref}

	trimmed := strings.TrimSpace(ref)
	if strings.HasPrefix(trimmed, "#") {
		return keep
	}

	abs, err := r.resolve(trimmed)
	if err != nil {
		r.log.Warn("[改写] URL 解析失败保留原文", "url", ref, "err", err.Error())
		return keep
	}
	// scheme 与主机名大小写不敏感，统一小写后进入归一化
	abs.Scheme = strings.ToLower(abs.Scheme)
	abs.Host = strings.ToLower(abs.Host)
	if !isHTTPScheme(abs.Scheme) {
		// mailto:、data:、javascript: 等协议不属于归档，原样保留
		return keep
	}

	fragment := ""
	if abs.HasFragment {
		fragment = "#" + abs.Fragment
		abs.Fragment = ""
		abs.HasFragment = false
	}

	absStr := abs.String()
	keep.AbsoluteURL = absStr + fragment
	if r.engine != nil {
		// url 作用域的模糊规则在归一化之前应用，可整体替换主机与路径
		absStr = r.engine.ApplyURL(absStr)
	}

	httpURL, err := domain.NewHttpUrl(absStr)
	if err != nil {
		r.log.Warn("[改写] 绝对 URL 非法保留原文", "url", absStr, "err", err.Error())
		return keep
	}
	path, err := r.normalizer.Normalize(httpURL)
	if err != nil {
		r.log.Warn("[改写] 归一化失败保留原文", "url", absStr, "err", err.Error())
		return keep
	}
	keep.ZimPath = &path

	if !r.rewriteAll && r.paths != nil && !r.paths.Contains(path) {
		r.paths.MarkMissing(path)
		if r.notifyMissing != nil {
			r.notifyMissing(path)
		}
		// 条目不在归档内，保留绝对地址以便在线回退
		keep.RewrittenURL = keep.AbsoluteURL
		return keep
	}

	keep.RewrittenURL = relpath.Relativize(r.articlePath, path) + fragment
	return keep
}

// resolve 把引用解析为绝对 URL
// <base href> 自身先对文档 URL 解析，引用再对其结果解析
func (r *URLRewriter) resolve(ref string) (*urlx.URL, error) {
	base := r.articleURL.Value()
	if r.baseHref != "" {
		resolved, err := urlx.ResolveString(base, r.baseHref)
		if err == nil {
			base = resolved.String()
		} else {
			r.log.Warn("[改写] base href 非法已忽略", "href", r.baseHref, "err", err.Error())
		}
	}
	return urlx.ResolveString(base, ref)
}

func isHTTPScheme(scheme string) bool {
	return scheme == "http" || scheme == "https"
}
