package util

import (
	"errors"
	"fmt"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyEarned = errors.New("achievement already earned")
	ErrStore         = errors.New("store error")
	ErrForbidden     = errors.New("permission denied")
)

// Invalidf 构造一个参数校验错误
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf 构造一个资源不存在错误
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// StoreError 包装数据库错误，同时保留原始错误供 errors.Is 判断
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}
