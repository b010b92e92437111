package logger

// Nop 丢弃全部输出的日志器，用于测试与可选依赖的缺省值
type Nop struct{}

// NewNop 创建空日志器
func NewNop() Logger { return Nop{} }

func (Nop) Debug(string, ...any)      {}
func (Nop) Info(string, ...any)       {}
func (Nop) Warn(string, ...any)       {}
func (Nop) Error(string, ...any)      {}
func (Nop) Err(error, string, ...any) {}
