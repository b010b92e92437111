// Package logger 统一日志接口与 zerolog 实现
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger 日志接口
// 键值对按 key, value 交替传入，奇数个参数时末尾补空值
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
	Err(err error, msg string, kv ...any)
}

// ZeroLogger 基于 zerolog 的实现
type ZeroLogger struct {
	log zerolog.Logger
}

// Options 日志选项
type Options struct {
	Level   string // debug/info/warn/error，默认 info
	Writer  string // stderr/file/both，默认 stderr
	LogPath string // 日志文件路径，Writer 含 file 时生效，空则取默认路径
}

// New 创建日志器
func New(opts Options) *ZeroLogger {
	level := parseLevel(opts.Level)

	var writers []io.Writer
	switch opts.Writer {
	case "file":
		writers = append(writers, fileWriter(opts.LogPath))
	case "both":
		writers = append(writers, consoleWriter(), fileWriter(opts.LogPath))
	default:
		writers = append(writers, consoleWriter())
	}

	zl := zerolog.New(io.MultiWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()
	return &ZeroLogger{log: zl}
}

func consoleWriter() io.Writer {
	return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
}

func fileWriter(path string) io.Writer {
	if path == "" {
		path = DefaultLogPath()
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    32, // MB
		MaxBackups: 3,
		MaxAge:     14, // 天
		Compress:   true,
	}
}

// DefaultLogPath 返回默认日志文件路径
func DefaultLogPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "zimrewrite", "zimrewrite.log")
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Debug 输出 debug 级日志
func (z *ZeroLogger) Debug(msg string, kv ...any) {
	withFields(z.log.Debug(), kv).Msg(msg)
}

// Info 输出 info 级日志
func (z *ZeroLogger) Info(msg string, kv ...any) {
	withFields(z.log.Info(), kv).Msg(msg)
}

// Warn 输出 warn 级日志
func (z *ZeroLogger) Warn(msg string, kv ...any) {
	withFields(z.log.Warn(), kv).Msg(msg)
}

// Error 输出 error 级日志
func (z *ZeroLogger) Error(msg string, kv ...any) {
	withFields(z.log.Error(), kv).Msg(msg)
}

// Err 输出携带错误的 error 级日志
func (z *ZeroLogger) Err(err error, msg string, kv ...any) {
	withFields(z.log.Error().Err(err), kv).Msg(msg)
}

func withFields(ev *zerolog.Event, kv []any) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		ev = ev.Interface(key, kv[i+1])
	}
	if len(kv)%2 == 1 {
		ev = ev.Interface(fmt.Sprint(kv[len(kv)-1]), "")
	}
	return ev
}
