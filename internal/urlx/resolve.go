package urlx

import "strings"

// Resolve 按 RFC 3986 5.2 将相对引用解析到基准 URL 上
func Resolve(base *URL, ref string) (*URL, error) {
	r, err := Parse(ref)
	if err != nil {
		return nil, err
	}

	t := &URL{}
	if r.Scheme != "" {
		t.Scheme = r.Scheme
		t.copyAuthority(r)
		t.Path = removeDotSegments(r.Path)
		t.Query, t.HasQuery = r.Query, r.HasQuery
	} else {
		t.Scheme = base.Scheme
		if r.HasAuthority {
			t.copyAuthority(r)
			t.Path = removeDotSegments(r.Path)
			t.Query, t.HasQuery = r.Query, r.HasQuery
		} else {
			t.copyAuthority(base)
			switch {
			case r.Path == "":
				t.Path = base.Path
				if r.HasQuery {
					t.Query, t.HasQuery = r.Query, true
				} else {
					t.Query, t.HasQuery = base.Query, base.HasQuery
				}
			case strings.HasPrefix(r.Path, "/"):
				t.Path = removeDotSegments(r.Path)
				t.Query, t.HasQuery = r.Query, r.HasQuery
			default:
				t.Path = removeDotSegments(mergePaths(base, r.Path))
				t.Query, t.HasQuery = r.Query, r.HasQuery
			}
		}
	}
	t.Fragment, t.HasFragment = r.Fragment, r.HasFragment
	return t, nil
}

// ResolveString 对字符串基准 URL 的便捷封装，ref 为空时返回基准本身
func ResolveString(base, ref string) (*URL, error) {
	b, err := Parse(base)
	if err != nil {
		return nil, err
	}
	if ref == "" {
		return b, nil
	}
	return Resolve(b, ref)
}

func (u *URL) copyAuthority(src *URL) {
	u.HasAuthority = src.HasAuthority
	u.HasUserinfo = src.HasUserinfo
	u.Userinfo = src.Userinfo
	u.Host = src.Host
	u.Port = src.Port
}

// mergePaths RFC 3986 5.2.3：合并基准路径与相对路径
func mergePaths(base *URL, refPath string) string {
	if base.HasAuthority && base.Path == "" {
		return "/" + refPath
	}
	if i := strings.LastIndex(base.Path, "/"); i >= 0 {
		return base.Path[:i+1] + refPath
	}
	return refPath
}

// removeDotSegments RFC 3986 5.2.4：消去 "." 与 ".." 片段
// 超出根的 ".." 会被钳制丢弃
func removeDotSegments(path string) string {
	var out []string
	in := path
	for in != "" {
		switch {
		case strings.HasPrefix(in, "../"):
			in = in[3:]
		case strings.HasPrefix(in, "./"):
			in = in[2:]
		case strings.HasPrefix(in, "/./"):
			in = "/" + in[3:]
		case in == "/.":
			in = "/"
		case strings.HasPrefix(in, "/../"):
			in = "/" + in[4:]
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		case in == "/..":
			in = "/"
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		case in == "." || in == "..":
			in = ""
		default:
			i := 0
			if strings.HasPrefix(in, "/") {
				i = strings.Index(in[1:], "/")
				if i >= 0 {
					i++
				}
			} else {
				i = strings.Index(in, "/")
			}
			if i < 0 {
				out = append(out, in)
				in = ""
			} else {
				out = append(out, in[:i])
				in = in[i:]
			}
		}
	}
	return strings.Join(out, "")
}
