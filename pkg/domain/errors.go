package domain

import "errors"

// 规则配置相关错误
var (
	ErrRulesetNotFound = errors.New("ruleset not found")
	ErrNoActiveRuleset = errors.New("no active ruleset")
)

// 数据库相关错误
var (
	ErrDatabaseNotInitialized = errors.New("database not initialized")
	ErrRecordNotFound         = errors.New("record not found")
)

// 文档相关错误
var (
	ErrUnsupportedContentType = errors.New("unsupported content type")
)
