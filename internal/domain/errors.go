package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound 实体不存在（header / item / device）
var ErrNotFound = errors.New("not found")

// ValidationError 用户输入问题（缺 sheet、缺必填列、空文件、重名 device 等）
// HTTP 层映射为 400；不会自动重试
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError 创建 ValidationError
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError 判断 err 链中是否有 ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
