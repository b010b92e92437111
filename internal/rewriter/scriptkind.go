package rewriter

import (
	"sync"

	"zimrewrite/internal/logger"
	"zimrewrite/pkg/domain"
	"zimrewrite/pkg/errx"
)

// KindRegistry 记录脚本条目的种类（classic 或 module）
//
// 种类决定改写时注入的包装形态，一经锁定不可再变。登记顺序要求
// 引用方先于被引用方处理：<script type="module"> 声明其 src 为
// module，import 语句声明被导入者为 module，其余 script 声明为
// classic。同一路径收到相互矛盾的声明视为输入损坏，立即报错而非
// 静默取舍
type KindRegistry struct {
	mu    sync.Mutex
	kinds map[string]domain.ScriptKind
	log   logger.Logger
}

// NewKindRegistry 创建脚本种类登记表
func NewKindRegistry(log logger.Logger) *KindRegistry {
	if log == nil {
		log = logger.NewNop()
	}
	return &KindRegistry{
		kinds: make(map[string]domain.ScriptKind),
		log:   log,
	}
}

// Declare 为路径登记脚本种类
// 与已锁定的种类冲突时返回 SCRIPT_KIND_CONFLICT
func (k *KindRegistry) Declare(path domain.ZimPath, kind domain.ScriptKind) error {
	if kind != domain.ScriptKindClassic && kind != domain.ScriptKindModule {
		return errx.Newf(errx.CodeRuleCompile, "非法的脚本种类: %s", kind)
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	prev, ok := k.kinds[path.Value()]
	if !ok {
		k.kinds[path.Value()] = kind
		return nil
	}
	if prev != kind {
		return errx.Newf(errx.CodeScriptKindConflict,
			"脚本 %s 先被声明为 %s 又被声明为 %s", path.Value(), prev, kind)
	}
	return nil
}

// ResolveForRewrite 改写脚本条目前取出其种类
//
// 路径此前从未被声明说明处理顺序违反了先引用后内容的约定，
// 此时保守按 classic 处理并锁定，同时记一条诊断日志
func (k *KindRegistry) ResolveForRewrite(path domain.ZimPath) domain.ScriptKind {
	k.mu.Lock()
	defer k.mu.Unlock()

	if kind, ok := k.kinds[path.Value()]; ok {
		return kind
	}
	k.log.Warn("[脚本] 内容先于引用到达按 classic 处理", "path", path.Value())
	k.kinds[path.Value()] = domain.ScriptKindClassic
	return domain.ScriptKindClassic
}

// Kind 查询路径已登记的种类，未登记返回 unknown-pending
func (k *KindRegistry) Kind(path domain.ZimPath) domain.ScriptKind {
	k.mu.Lock()
	defer k.mu.Unlock()
	if kind, ok := k.kinds[path.Value()]; ok {
		return kind
	}
	return domain.ScriptKindUnknown
}
