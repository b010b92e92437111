// Package pathset 维护归档已知条目路径的集合
package pathset

import (
	"sort"
	"sync"

	"zimrewrite/internal/logger"
	"zimrewrite/pkg/domain"
)

// Set 已知路径集合
//
// 改写器据此判断引用目标是否在归档内；集合外的目标被记入
// missing 供批处理结束后汇总诊断。并发安全
type Set struct {
	mu      sync.RWMutex
	known   map[string]struct{}
	missing map[string]struct{}
	log     logger.Logger
}

// New 创建路径集合
func New(log logger.Logger) *Set {
	if log == nil {
		log = logger.NewNop()
	}
	return &Set{
		known:   make(map[string]struct{}),
		missing: make(map[string]struct{}),
		log:     log,
	}
}

// Add 登记一条已知路径
func (s *Set) Add(p domain.ZimPath) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.known[p.Value()] = struct{}{}
	// 先前被标记缺失的路径后补进集合时撤销缺失记录
	delete(s.missing, p.Value())
}

// Contains 判断路径是否在集合内
func (s *Set) Contains(p domain.ZimPath) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.known[p.Value()]
	return ok
}

// MarkMissing 标记一条集合外的目标路径
// 同一路径只记一次日志，避免重复引用刷屏
func (s *Set) MarkMissing(p domain.ZimPath) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.missing[p.Value()]; ok {
		return
	}
	s.missing[p.Value()] = struct{}{}
	s.log.Debug("[路径集] 目标不在归档内", "path", p.Value())
}

// Missing 返回全部缺失路径，已排序
func (s *Set) Missing() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.missing))
	for p := range s.missing {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Len 返回已知路径数量
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.known)
}
