// Package relpath 计算归档路径之间的相对引用
package relpath

import (
	"strings"

	"zimrewrite/pkg/domain"
)

// Relativize 计算从文档 from 指向目标 to 的相对引用
//
// 以 "/" 切分两条路径，from 去掉末段得到其目录；与 to 的目录段求最长
// 公共前缀，剩余的 from 目录段各贡献一个 "../"，再接上 to 的剩余段。
// 结果为空时退化为 "./"；首段含 ":" 时加 "./" 前缀，避免被解析器误读
// 为 scheme（RFC 3986 4.2）。最后按归档专用字母表做百分号编码
func Relativize(from, to domain.ZimPath) string {
	fromSegs := strings.Split(from.Value(), "/")
	toSegs := strings.Split(to.Value(), "/")

	// 文档自身的末段不参与比较，留下的是其所在目录
	fromDir := fromSegs[:len(fromSegs)-1]

	// to 的末段是文件名，目录部分才参与公共前缀
	toDir := toSegs[:len(toSegs)-1]
	common := 0
	for common < len(fromDir) && common < len(toDir) && fromDir[common] == toDir[common] {
		common++
	}

	var segs []string
	for i := common; i < len(fromDir); i++ {
		segs = append(segs, "..")
	}
	segs = append(segs, toSegs[common:]...)

	rel := strings.Join(segs, "/")
	if rel == "" {
		return "./"
	}
	if strings.Contains(segs[0], ":") {
		// "File:x.svg" 若不加前缀会被当成 scheme "File"
		rel = "./" + rel
	}
	return Encode(rel)
}

// Encode 按归档字母表做百分号编码
//
// 字母表为 RFC 3986 的 unreserved（字母、数字、-._~）加上分隔用的
// "/"、":" 与 "@"；其余字节一律编码。归档路径中已折叠进路径的查询
// 因此呈现为 %3F 与 %3D，不会被浏览器再次当作查询发起
func Encode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) || c == '/' || c == ':' || c == '@' {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0f])
	}
	return b.String()
}

const upperhex = "0123456789ABCDEF"

func isUnreserved(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '-' || c == '.' || c == '_' || c == '~'
}
