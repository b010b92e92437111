package repo

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"zimrewrite/internal/storage/model"
	"zimrewrite/pkg/domain"
)

// Event 审计事件仓储，实现 audit.Sink
type Event struct {
	base[model.RewriteEventRecord]
}

// NewEvent 创建审计事件仓储
func NewEvent(db *gorm.DB) *Event {
	return &Event{base[model.RewriteEventRecord]{db: db}}
}

// SaveEvent 落盘一条审计事件
func (e *Event) SaveEvent(ctx context.Context, event *domain.RewriteEvent) error {
	warnings := ""
	if len(event.Warnings) > 0 {
		data, err := json.Marshal(event.Warnings)
		if err != nil {
			return err
		}
		warnings = string(data)
	}
	record := model.RewriteEventRecord{
		Run:          string(event.Run),
		DocPath:      event.DocPath,
		ContentType:  event.ContentType,
		Timestamp:    event.Timestamp,
		URLTotal:     event.URLTotal,
		URLRewritten: event.URLRewritten,
		Warnings:     warnings,
	}
	return e.create(ctx, &record)
}

// ListByRun 返回一次运行的全部事件，按时间升序
func (e *Event) ListByRun(ctx context.Context, run domain.RunID) ([]model.RewriteEventRecord, error) {
	var records []model.RewriteEventRecord
	err := e.db.WithContext(ctx).
		Where("run = ?", string(run)).
		Order("timestamp ASC").
		Find(&records).Error
	return records, err
}

// PurgeBefore 清理时间戳早于 ts 的事件，返回删除行数
func (e *Event) PurgeBefore(ctx context.Context, ts int64) (int64, error) {
	result := e.db.WithContext(ctx).
		Where("timestamp < ?", ts).
		Delete(&model.RewriteEventRecord{})
	return result.RowsAffected, result.Error
}

var _ interface {
	SaveEvent(context.Context, *domain.RewriteEvent) error
} = (*Event)(nil)
