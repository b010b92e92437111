// Package config 定义程序配置与默认值
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config 程序配置
type Config struct {
	Version string        `yaml:"version"`
	Sqlite  SqliteConfig  `yaml:"sqlite"`
	Log     LogConfig     `yaml:"log"`
	Rewrite RewriteConfig `yaml:"rewrite"`
}

// SqliteConfig 数据库配置
type SqliteConfig struct {
	Db     string `yaml:"db"`     // 数据库文件路径，空取默认路径
	Prefix string `yaml:"prefix"` // 表名前缀，预留
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`  // debug/info/warn/error
	Writer string `yaml:"writer"` // stderr/file/both
	Path   string `yaml:"path"`   // 日志文件路径
}

// RewriteConfig 改写配置
type RewriteConfig struct {
	Workers     int  `yaml:"workers"`     // 并行文档数，0 取 CPU 数
	RewriteAll  bool `yaml:"rewriteAll"`  // 不查已知路径集合，全部相对化
	Audit       bool `yaml:"audit"`       // 记录审计事件
	AuditBuffer int  `yaml:"auditBuffer"` // 审计缓冲事件数
	Bundle      bool `yaml:"bundle"`      // 向 HTML 注入客户端规则包
}

// NewConfig 返回带默认值的配置
func NewConfig() *Config {
	return &Config{
		Version: "1.0",
		Log: LogConfig{
			Level:  "info",
			Writer: "stderr",
		},
		Rewrite: RewriteConfig{
			Audit:       true,
			AuditBuffer: 256,
			Bundle:      true,
		},
	}
}

// Load 从 YAML 文件加载配置，缺失字段保留默认值
func Load(path string) (*Config, error) {
	cfg := NewConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
