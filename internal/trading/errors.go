package trading

import (
	"fmt"
)

// AuthErrorKind 认证失败分类
type AuthErrorKind string

const (
	// AuthTransient 网络或超时导致的临时失败，可有界重试
	AuthTransient AuthErrorKind = "Transient"
	// AuthBadKey 交易所拒绝签名私钥本身，重试无意义
	AuthBadKey AuthErrorKind = "BadKey"
	// AuthCredentialRejected 凭证端点返回未授权
	AuthCredentialRejected AuthErrorKind = "CredentialRejected"
	// AuthInvalidSignature 已认证请求被判定签名无效（方案/funder/私钥配对错误）
	AuthInvalidSignature AuthErrorKind = "InvalidSignature"
)

// AuthError 会话建立或签名路径上的认证失败
type AuthError struct {
	Kind AuthErrorKind
	// Hint 指向具体修复动作的提示文案
	Hint string
	Err  error
}

func (e *AuthError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("认证失败 [%s]: %v（%s）", e.Kind, e.Err, e.Hint)
	}
	return fmt.Sprintf("认证失败 [%s]: %v", e.Kind, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Retryable 只有 Transient 类失败允许自动重试
func (e *AuthError) Retryable() bool {
	return e.Kind == AuthTransient
}

// ValidationError 订单参数非法，在任何签名或网络请求之前返回
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("订单参数错误 [%s]: %s", e.Field, e.Reason)
}

// AmbiguousError 提交请求已发出但未收到确定响应
// 必须先查询订单状态做对账，禁止直接重发
type AmbiguousError struct {
	// Ref 本地幂等引用，用于对账时匹配
	Ref string
	Err error
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("订单提交结果不确定 (ref=%s): %v，重试前必须先查询订单状态", e.Ref, e.Err)
}

func (e *AmbiguousError) Unwrap() error {
	return e.Err
}
