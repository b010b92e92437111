package db

import (
	"context"
	"time"

	gormlogger "gorm.io/gorm/logger"

	"zimrewrite/internal/logger"
)

// gormLogger 把 gorm 的日志桥接到统一日志接口
type gormLogger struct {
	log           logger.Logger
	slowThreshold time.Duration
}

// NewGormLogger 创建桥接到统一日志接口的 GORM 日志器
func NewGormLogger(log logger.Logger) gormlogger.Interface {
	if log == nil {
		log = logger.NewNop()
	}
	return &gormLogger{log: log, slowThreshold: 200 * time.Millisecond}
}

func (g *gormLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface { return g }

func (g *gormLogger) Info(_ context.Context, msg string, args ...any) {
	g.log.Info("[数据库] "+msg, "args", args)
}

func (g *gormLogger) Warn(_ context.Context, msg string, args ...any) {
	g.log.Warn("[数据库] "+msg, "args", args)
}

func (g *gormLogger) Error(_ context.Context, msg string, args ...any) {
	g.log.Error("[数据库] "+msg, "args", args)
}

func (g *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	if err != nil {
		sql, rows := fc()
		g.log.Err(err, "[数据库] SQL 执行失败", "sql", sql, "rows", rows)
		return
	}
	if elapsed > g.slowThreshold {
		sql, rows := fc()
		g.log.Warn("[数据库] 慢查询", "sql", sql, "rows", rows, "elapsed", elapsed.String())
	}
}
