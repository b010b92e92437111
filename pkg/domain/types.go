// Package domain 定义改写流程共享的领域类型
package domain

import (
	"strings"

	"zimrewrite/internal/urlx"
	"zimrewrite/pkg/errx"
)

// RunID 改写运行ID
type RunID string

// RuleID 规则ID
type RuleID string

// HttpUrl 经过校验的绝对 http(s) URL
// 校验保证 scheme 为 http/https、主机名存在且已是小写
type HttpUrl struct {
	value string
}

// NewHttpUrl 创建并校验 HttpUrl
func NewHttpUrl(value string) (HttpUrl, error) {
	parts, err := urlx.Parse(value)
	if err != nil {
		return HttpUrl{}, err
	}
	scheme := strings.ToLower(parts.Scheme)
	if scheme != "http" && scheme != "https" {
		return HttpUrl{}, errx.Newf(errx.CodeMalformedURL, "不支持的 URL scheme: %s (%s)", parts.Scheme, value)
	}
	if parts.Hostname() == "" {
		return HttpUrl{}, errx.Newf(errx.CodeMalformedURL, "主机名为空: %s", value)
	}
	if !strings.Contains(value, parts.Hostname()) {
		return HttpUrl{}, errx.Newf(errx.CodeMalformedURL, "主机名包含大写字符: %s", value)
	}
	return HttpUrl{value: value}, nil
}

// Value 返回原始 URL 字符串
func (u HttpUrl) Value() string { return u.value }

func (u HttpUrl) String() string { return "HttpUrl(" + u.value + ")" }

// IsZero 判断是否为零值
func (u HttpUrl) IsZero() bool { return u.value == "" }

// ZimPath 归档内的条目路径
// 已完全解码，不含 scheme、主机段之外的授权信息、端口与片段
// 两个 ZimPath 相等当且仅当解码后的字符串逐字节相等，该相等性即归档去重键
type ZimPath struct {
	value string
}

// NewZimPath 创建并校验 ZimPath
func NewZimPath(value string) (ZimPath, error) {
	parts, err := urlx.Parse(value)
	if err != nil {
		return ZimPath{}, err
	}
	if parts.Scheme != "" {
		return ZimPath{}, errx.Newf(errx.CodeMalformedURL, "ZIM 路径不应含 scheme: %s", value)
	}
	if parts.HasAuthority {
		return ZimPath{}, errx.Newf(errx.CodeMalformedURL, "ZIM 路径不应含授权部分: %s", value)
	}
	return ZimPath{value: value}, nil
}

// MustZimPath 针对字面量的便捷构造，校验失败即 panic
func MustZimPath(value string) ZimPath {
	p, err := NewZimPath(value)
	if err != nil {
		panic(err)
	}
	return p
}

// Value 返回解码后的路径字符串
func (p ZimPath) Value() string { return p.value }

func (p ZimPath) String() string { return "ZimPath(" + p.value + ")" }

// IsZero 判断是否为零值
func (p ZimPath) IsZero() bool { return p.value == "" }

// ScriptKind JS 资源的脚本类型
type ScriptKind string

const (
	ScriptKindUnknown ScriptKind = "unknown-pending" // 尚未被任何引用上下文判定
	ScriptKindClassic ScriptKind = "classic"         // 经典脚本
	ScriptKindModule  ScriptKind = "module"          // 模块脚本
)

// RewriteResult 单个 URL 的改写结果
type RewriteResult struct {
	AbsoluteURL  string   // 解析后的绝对 URL
	RewrittenURL string   // 写回文档的引用文本
	ZimPath      *ZimPath // 对应归档路径；不可归档时为 nil
}

// DocumentResult 单个文档的改写结果
type DocumentResult struct {
	Title        string   // HTML 文档标题（其他类型为空）
	Content      string   // 改写后的文档内容
	URLTotal     int      // 发现的 URL 总数
	URLRewritten int      // 实际被改写的 URL 数
	Warnings     []string // 局部失败的警告（原文已保留）
}

// RewriteEvent 改写审计事件
type RewriteEvent struct {
	Run          RunID    `json:"run"`
	DocPath      string   `json:"docPath"`
	ContentType  string   `json:"contentType"`
	Timestamp    int64    `json:"timestamp"`
	URLTotal     int      `json:"urlTotal"`
	URLRewritten int      `json:"urlRewritten"`
	Warnings     []string `json:"warnings,omitempty"`
}
