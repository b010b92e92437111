// Package zimpath 实现 URL 到归档路径的规范化
//
// 归档路径约定（逐字节精确）：
//   - 路径为 "{IDNA 解码后的主机}/{百分号解码后的路径}"，查询存在时以
//     "?{百分号解码后的查询}" 追加；不含 scheme、端口、userinfo 与片段
//   - 路径内部永不保留百分号编码，空格即空格、加号即加号，全程 UTF-8
//   - 查询参数中的 "+" 先还原为空格，真实加号以 %2B 形态进入再被解码
//
// Normalize 是纯函数：相同输入永远产出逐字节相同的输出，
// 该确定性是归档去重与可复现构建的前提
package zimpath

import (
	"regexp"
	"strings"

	"golang.org/x/net/idna"

	"zimrewrite/internal/fuzzy"
	"zimrewrite/internal/urlx"
	"zimrewrite/pkg/domain"
	"zimrewrite/pkg/errx"
)

var multiSlash = regexp.MustCompile(`//+`)

// Normalizer 路径规范化器
// 持有只读的规则引擎引用，自身无任何可变状态，可并发使用
type Normalizer struct {
	engine *fuzzy.Engine
}

// New 创建规范化器
func New(engine *fuzzy.Engine) *Normalizer {
	return &Normalizer{engine: engine}
}

// Normalize 把一个绝对 http(s) URL 转换为归档路径
//
// 步骤：丢弃 scheme/端口/userinfo/片段；主机做 IDNA 解码并充当首个
// 路径段；路径与查询做百分号解码；折叠连续斜杠；最后应用 path 作用域
// 的模糊规则完成语义折叠
func (n *Normalizer) Normalize(u domain.HttpUrl) (domain.ZimPath, error) {
	parts, err := urlx.Parse(u.Value())
	if err != nil {
		return domain.ZimPath{}, err
	}

	host := parts.Hostname()
	if host == "" {
		return domain.ZimPath{}, errx.Newf(errx.CodeMalformedURL, "主机名为空: %s", u.Value())
	}
	host, err = decodeHost(host)
	if err != nil {
		return domain.ZimPath{}, err
	}

	path := parts.Path
	if path != "" {
		path = PercentDecode(path)
	} else {
		// 空路径补 "/" 消除歧义：https://example.com 与 https://example.com/
		// 必须落到同一条目（RFC 3986 6.2.3）
		path = "/"
	}

	query := ""
	if parts.HasQuery && parts.Query != "" {
		// 查询中的 "+" 代表空格，必须先还原，否则与 %2B 解码出的真实加号冲突
		query = "?" + PercentDecode(strings.ReplaceAll(parts.Query, "+", " "))
	}

	subject := host + collapseSlashes(path) + collapseSlashes(query)
	if n.engine != nil {
		subject = n.engine.ApplyPath(subject)
	}
	return domain.NewZimPath(subject)
}

// decodeHost 把 punycode 主机名解码为 Unicode 形态
// 解码失败视为 MALFORMED_URL
//
// 必须用 Lookup 严格档：宽松档对无效 ACE 标签（如 xn--a）
// 照样给出解码结果而不报错，坏主机会静默混进归档路径
func decodeHost(host string) (string, error) {
	if !hasACELabel(host) {
		return host, nil
	}
	decoded, err := idna.Lookup.ToUnicode(host)
	if err != nil {
		return "", errx.Wrap(errx.CodeMalformedURL, err, "主机名 IDNA 解码失败: "+host)
	}
	return decoded, nil
}

// hasACELabel 判断主机名是否含有 punycode 标签
func hasACELabel(host string) bool {
	for _, label := range strings.Split(host, ".") {
		if strings.HasPrefix(label, "xn--") {
			return true
		}
	}
	return false
}

// collapseSlashes 折叠连续斜杠，val//ue 与 val///ue 均归一为 val/ue
func collapseSlashes(s string) string {
	return multiSlash.ReplaceAllString(s, "/")
}

// PercentDecode 解码字符串中的合法 %XX 序列
// 非法序列（百分号后不足两位十六进制）原样保留，因此对已解码
// 的输入再次调用是无操作（幂等）
func PercentDecode(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, ok1 := unhex(s[i+1])
			lo, ok2 := unhex(s[i+2])
			if ok1 && ok2 {
				b.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
