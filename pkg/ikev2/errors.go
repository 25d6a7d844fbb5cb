package ikev2

import (
	"errors"
	"fmt"
)

// 认证失败原因，通过 errors.Is 区分
var (
	ErrNoPSK        = errors.New("没有可用的共享密钥")
	ErrPSKTooShort  = errors.New("PSK 长度低于 FIPS 要求")
	ErrAuthLength   = errors.New("AUTH 长度与 PRF 输出长度不符")
	ErrAuthMismatch = errors.New("AUTH 不匹配")
	ErrPRFInit      = errors.New("PRF 上下文创建失败")
)

// AuthError 可恢复的认证失败，调用方据此拒绝本次交换
type AuthError struct {
	Connection string
	Reason     string
	Err        error
}

func (e *AuthError) Error() string {
	if e.Connection == "" {
		return fmt.Sprintf("认证失败: %s", e.Reason)
	}
	return fmt.Sprintf("连接 %s 认证失败: %s", e.Connection, e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

func authError(conn string, err error, format string, args ...any) *AuthError {
	return &AuthError{Connection: conn, Reason: fmt.Sprintf(format, args...), Err: err}
}
