// Package urlx 实现 RFC 3986 的词法拆分与相对引用解析
// 只做语法层面的切割，绝不做任何百分号/IDNA 解码
package urlx

import (
	"strings"

	"zimrewrite/pkg/errx"
)

// URL RFC 3986 结构化组成部分
// 各组件保持原文形态，"存在但为空"与"不存在"通过 Has 标记区分
type URL struct {
	Scheme       string
	Userinfo     string
	Host         string
	Port         string
	Path         string
	Query        string
	Fragment     string
	HasAuthority bool
	HasUserinfo  bool
	HasQuery     bool
	HasFragment  bool
}

// Parse 词法拆分一个 URL 引用
// 接受完整 URL、协议相对引用（//host/path）与路径相对引用
func Parse(raw string) (*URL, error) {
	u := &URL{}
	rest := raw

	if i := strings.Index(rest, "#"); i >= 0 {
		u.HasFragment = true
		u.Fragment = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.Index(rest, "?"); i >= 0 {
		u.HasQuery = true
		u.Query = rest[i+1:]
		rest = rest[:i]
	}

	u.Scheme, rest = splitScheme(rest)

	if strings.HasPrefix(rest, "//") {
		u.HasAuthority = true
		rest = rest[2:]
		authority := rest
		if i := strings.Index(rest, "/"); i >= 0 {
			authority = rest[:i]
			u.Path = rest[i:]
		} else {
			u.Path = ""
		}
		if err := u.splitAuthority(authority); err != nil {
			return nil, err
		}
	} else {
		u.Path = rest
	}
	return u, nil
}

// splitScheme 提取 scheme，只有 ':' 出现在首个 '/' 之前且字符合法时才认定
func splitScheme(s string) (string, string) {
	i := strings.Index(s, ":")
	if i <= 0 {
		return "", s
	}
	if j := strings.Index(s, "/"); j >= 0 && j < i {
		return "", s
	}
	candidate := s[:i]
	if !isScheme(candidate) {
		return "", s
	}
	return candidate, s[i+1:]
}

func isScheme(s string) bool {
	if !isAlpha(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !isAlpha(c) && !isDigit(c) && c != '+' && c != '-' && c != '.' {
			return false
		}
	}
	return true
}

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// splitAuthority 拆分 userinfo@host:port
func (u *URL) splitAuthority(authority string) error {
	host := authority
	if i := strings.LastIndex(host, "@"); i >= 0 {
		u.HasUserinfo = true
		u.Userinfo = host[:i]
		host = host[i+1:]
	}

	if strings.HasPrefix(host, "[") {
		// IPv6 字面量
		end := strings.Index(host, "]")
		if end < 0 {
			return errx.Newf(errx.CodeMalformedURL, "IPv6 主机名缺少右括号: %s", authority)
		}
		u.Host = host[:end+1]
		rest := host[end+1:]
		if rest == "" {
			return nil
		}
		if !strings.HasPrefix(rest, ":") {
			return errx.Newf(errx.CodeMalformedURL, "IPv6 主机名后存在非法字符: %s", authority)
		}
		return u.setPort(rest[1:])
	}

	if i := strings.LastIndex(host, ":"); i >= 0 {
		port := host[i+1:]
		u.Host = host[:i]
		return u.setPort(port)
	}
	u.Host = host
	return nil
}

func (u *URL) setPort(port string) error {
	for i := 0; i < len(port); i++ {
		if !isDigit(port[i]) {
			return errx.Newf(errx.CodeMalformedURL, "端口号非法: %q", port)
		}
	}
	u.Port = port
	return nil
}

// Hostname 返回小写主机名，去除 IPv6 括号
func (u *URL) Hostname() string {
	host := u.Host
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		host = host[1 : len(host)-1]
	}
	return strings.ToLower(host)
}

// String 重新拼装为引用原文
func (u *URL) String() string {
	var b strings.Builder
	if u.Scheme != "" {
		b.WriteString(u.Scheme)
		b.WriteString(":")
	}
	if u.HasAuthority {
		b.WriteString("//")
		if u.HasUserinfo {
			b.WriteString(u.Userinfo)
			b.WriteString("@")
		}
		b.WriteString(u.Host)
		if u.Port != "" {
			b.WriteString(":")
			b.WriteString(u.Port)
		}
	}
	b.WriteString(u.Path)
	if u.HasQuery {
		b.WriteString("?")
		b.WriteString(u.Query)
	}
	if u.HasFragment {
		b.WriteString("#")
		b.WriteString(u.Fragment)
	}
	return b.String()
}
