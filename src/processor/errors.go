package processor

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceNotFound 数据文件不存在或不可读，本次运行终止
	ErrSourceNotFound = errors.New("source not found")
	// ErrLoad 文件结构、编码等整体性加载失败
	ErrLoad = errors.New("load error")
)

// LoadError 携带原始错误的加载失败
type LoadError struct {
	Path  string
	Cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("加载数据文件 %s 失败: %v", e.Path, e.Cause)
}

func (e *LoadError) Unwrap() error { return e.Cause }

// Is 使 errors.Is(err, ErrLoad) 成立
func (e *LoadError) Is(target error) bool { return target == ErrLoad }
