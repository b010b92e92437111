// Package pool 固定大小的工作协程池
package pool

import (
	"context"
	"runtime"
	"sync"

	"zimrewrite/internal/logger"
)

// Pool 工作池
// 文档之间的改写互不依赖，由池并行调度；单篇文档内部始终串行
type Pool struct {
	workers int
	tasks   chan func()
	wg      sync.WaitGroup
	once    sync.Once
	log     logger.Logger
}

// New 创建工作池，workers 不大于零时取 CPU 数
func New(workers int, log logger.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Pool{
		workers: workers,
		tasks:   make(chan func(), workers*2),
		log:     log,
	}
}

// Start 启动全部工作协程
func (p *Pool) Start() {
	p.log.Debug("[工作池] 启动", "workers", p.workers)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Submit 提交一个任务
// 队列满时阻塞形成反压，ctx 取消时放弃提交
func (p *Pool) Submit(ctx context.Context, task func()) error {
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close 关闭任务队列并等待在途任务完成
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.tasks)
	})
	p.wg.Wait()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(id, task)
	}
}

func (p *Pool) run(id int, task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("[工作池] 任务 panic 已恢复", "worker", id, "panic", r)
		}
	}()
	task()
}
