package service

import (
	"context"

	"zimrewrite/internal/pool"
	"zimrewrite/pkg/domain"
)

// BatchItem 批量改写中单篇文档的结果
type BatchItem struct {
	Document Document
	Result   domain.DocumentResult
	Err      error
}

// RewriteBatch 并行改写一批文档
//
// 结果切片与输入一一对应，单篇失败不影响其余文档。
// 同一批内不提供任何完成顺序保证，只有相互独立的文档可以同批；
// 存在先引用后内容依赖的文档（HTML 与其声明的 JS 条目）必须
// 拆成先后两次调用，或改用逐篇 RewriteDocument
func (s *Service) RewriteBatch(ctx context.Context, docs []Document) []BatchItem {
	items := make([]BatchItem, len(docs))

	p := pool.New(s.cfg.Rewrite.Workers, s.log)
	p.Start()
	for i := range docs {
		i := i
		items[i].Document = docs[i]
		err := p.Submit(ctx, func() {
			items[i].Result, items[i].Err = s.RewriteDocument(ctx, docs[i])
		})
		if err != nil {
			items[i].Err = err
		}
	}
	p.Close()
	return items
}
