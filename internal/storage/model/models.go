// Package model 定义持久化的数据模型
package model

import "time"

// Setting 键值设置项
type Setting struct {
	Key       string    `gorm:"primaryKey;size:128" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (Setting) TableName() string { return "settings" }

// RulesetRecord 规则集记录
// Content 保存规则配置的完整 JSON，加载时反序列化并重新校验
type RulesetRecord struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"size:128;index" json:"name"`
	Version     string    `gorm:"size:32" json:"version"`
	Description string    `gorm:"size:512" json:"description"`
	Content     string    `gorm:"type:text" json:"content"`
	Active      bool      `gorm:"index" json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (RulesetRecord) TableName() string { return "rulesets" }

// RewriteEventRecord 改写审计事件记录
type RewriteEventRecord struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Run          string `gorm:"size:36;index" json:"run"`
	DocPath      string `gorm:"size:1024" json:"docPath"`
	ContentType  string `gorm:"size:128" json:"contentType"`
	Timestamp    int64  `gorm:"index" json:"timestamp"`
	URLTotal     int    `json:"urlTotal"`
	URLRewritten int    `json:"urlRewritten"`
	Warnings     string `gorm:"type:text" json:"warnings"`
}

// TableName 指定表名
func (RewriteEventRecord) TableName() string { return "rewrite_events" }
