package handler

import (
	"errors"
	"fmt"
)

// ErrJobNotFound 岗位不存在，路由层映射为404
var ErrJobNotFound = errors.New("岗位不存在")

// ValidationError 请求参数校验错误，路由层映射为400
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("参数 %s 无效: %s", e.Field, e.Reason)
}

// NewValidationError 创建参数校验错误
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidationError 判断是否为参数校验错误
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
