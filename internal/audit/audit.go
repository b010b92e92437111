// Package audit 记录每篇文档的改写审计事件
package audit

import (
	"context"
	"sync"
	"time"

	"zimrewrite/internal/logger"
	"zimrewrite/pkg/domain"
)

// Sink 审计事件的落盘接口
type Sink interface {
	SaveEvent(ctx context.Context, event *domain.RewriteEvent) error
}

// Recorder 审计记录器
//
// 事件经缓冲通道异步落盘，改写热路径不等待存储。通道满时丢弃
// 并计数，审计是旁路诊断，不允许反压改写
type Recorder struct {
	mu      sync.Mutex
	enabled bool
	events  chan domain.RewriteEvent
	dropped int64

	sink Sink
	log  logger.Logger
	wg   sync.WaitGroup
	stop chan struct{}
}

// NewRecorder 创建审计记录器，buffer 为缓冲事件数
func NewRecorder(sink Sink, buffer int, log logger.Logger) *Recorder {
	if buffer <= 0 {
		buffer = 256
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Recorder{
		events: make(chan domain.RewriteEvent, buffer),
		sink:   sink,
		log:    log,
		stop:   make(chan struct{}),
	}
}

// Start 启动落盘协程
func (r *Recorder) Start() {
	r.mu.Lock()
	r.enabled = true
	r.mu.Unlock()

	r.wg.Add(1)
	go r.drain()
}

// Stop 停止记录并等待积压事件落盘
func (r *Recorder) Stop() {
	r.mu.Lock()
	if !r.enabled {
		r.mu.Unlock()
		return
	}
	r.enabled = false
	r.mu.Unlock()

	close(r.stop)
	r.wg.Wait()
	if r.dropped > 0 {
		r.log.Warn("[审计] 有事件因缓冲已满被丢弃", "dropped", r.dropped)
	}
}

// Record 提交一条审计事件，未启动或缓冲已满时直接丢弃
func (r *Recorder) Record(event domain.RewriteEvent) {
	r.mu.Lock()
	enabled := r.enabled
	r.mu.Unlock()
	if !enabled {
		return
	}
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	select {
	case r.events <- event:
	default:
		r.mu.Lock()
		r.dropped++
		r.mu.Unlock()
	}
}

func (r *Recorder) drain() {
	defer r.wg.Done()
	for {
		select {
		case event := <-r.events:
			r.save(event)
		case <-r.stop:
			// 落完积压再退出
			for {
				select {
				case event := <-r.events:
					r.save(event)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) save(event domain.RewriteEvent) {
	if r.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.sink.SaveEvent(ctx, &event); err != nil {
		r.log.Err(err, "[审计] 事件落盘失败", "doc", event.DocPath)
	}
}
