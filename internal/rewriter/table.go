package rewriter

// attrKind HTML 属性值的改写方式
type attrKind int

const (
	attrNone    attrKind = iota // 不改写
	attrURL                     // 单个 URL
	attrSrcset                  // srcset 候选列表
	attrCSS                     // 内联 CSS（style 属性）
	attrJS                      // 内联 JS（on* 事件处理器）
	attrDrop                    // 整个属性删除（integrity）
)

// urlAttrTable 封闭的 (标签, 属性) → 改写方式表
//
// 只有表内的组合会被改写，表外属性一律原样通过；新增标签或属性
// 必须显式入表，避免误伤携带 URL 形态文本的数据属性
var urlAttrTable = map[[2]string]attrKind{
	{"a", "href"}:          attrURL,
	{"area", "href"}:       attrURL,
	{"link", "href"}:       attrURL,
	{"img", "src"}:         attrURL,
	{"img", "srcset"}:      attrSrcset,
	{"source", "src"}:      attrURL,
	{"source", "srcset"}:   attrSrcset,
	{"script", "src"}:      attrURL,
	{"iframe", "src"}:      attrURL,
	{"embed", "src"}:       attrURL,
	{"frame", "src"}:       attrURL,
	{"audio", "src"}:       attrURL,
	{"video", "src"}:       attrURL,
	{"track", "src"}:       attrURL,
	{"input", "src"}:       attrURL,
	{"form", "action"}:     attrURL,
	{"object", "data"}:     attrURL,
	{"blockquote", "cite"}: attrURL,
	{"q", "cite"}:          attrURL,
	{"del", "cite"}:        attrURL,
	{"ins", "cite"}:        attrURL,
	{"body", "background"}: attrURL,
	{"table", "background"}: attrURL,
}

// lookupAttrKind 查询属性的改写方式
// 任意标签上的 style 属性走 CSS 改写，on 前缀事件属性走 JS 改写，
// integrity 在内容被改写后必然失效故直接删除
func lookupAttrKind(tag, attr string) attrKind {
	if attr == "style" {
		return attrCSS
	}
	if attr == "integrity" {
		return attrDrop
	}
	if len(attr) > 2 && attr[0] == 'o' && attr[1] == 'n' {
		return attrJS
	}
	if kind, ok := urlAttrTable[[2]string{tag, attr}]; ok {
		return kind
	}
	return attrNone
}
