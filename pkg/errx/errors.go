package errx

import (
	"errors"
	"fmt"
)

type Code string

type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func New(code Code, msg string) *Error { return &Error{Code: code, Msg: msg} }

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, msg string) *Error { return &Error{Code: code, Msg: msg, Err: err} }

func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

const (
	// CodeMalformedURL URL 无法解析或主机名 IDNA 解码失败
	// 仅对单个 URL 致命，所在文档整体可继续改写
	CodeMalformedURL Code = "MALFORMED_URL"

	// CodeRuleCompile 模糊规则源编译失败，进程启动阶段即中止
	CodeRuleCompile Code = "RULE_COMPILE"

	// CodeScriptKindConflict 同一 JS 资源被两个引用上下文判定为不同脚本类型
	CodeScriptKindConflict Code = "SCRIPT_KIND_CONFLICT"

	// CodeRulesetNotFound 规则配置不存在
	CodeRulesetNotFound Code = "RULESET_NOT_FOUND"
)
