package errorx

import (
	"errors"
	"fmt"
)

// CodeError 带业务错误码的自定义错误
// 实现了 error 接口，支持 %w 包装底层错误，且能被 errors.Is/errors.As 识别
// Code 只用于服务端内部分支判断，下发给客户端的 error 帧只携带 Msg
type CodeError struct {
	Code  int    // 业务错误码
	Msg   string // 错误消息
	cause error  // 被包装的底层错误
}

// Error 实现标准 error 接口
// 存在底层错误时返回 "消息: 底层错误"，否则仅返回消息
func (e *CodeError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.cause)
	}
	return e.Msg
}

// Unwrap 支持 errors.Is/errors.As 向下追溯
func (e *CodeError) Unwrap() error {
	return e.cause
}

// New 创建一个新的 CodeError
func New(code int, msg string) *CodeError {
	return &CodeError{
		Code: code,
		Msg:  msg,
	}
}

// Newf 创建一个带格式化消息的 CodeError
func Newf(code int, format string, args ...any) *CodeError {
	return &CodeError{
		Code: code,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// Wrap 包装底层错误，附加业务错误码和消息
func Wrap(err error, code int, msg string) *CodeError {
	return &CodeError{
		Code:  code,
		Msg:   msg,
		cause: err,
	}
}

// Wrapf 包装底层错误，支持格式化消息
func Wrapf(err error, code int, format string, args ...any) *CodeError {
	return &CodeError{
		Code:  code,
		Msg:   fmt.Sprintf(format, args...),
		cause: err,
	}
}

// GetCode 从错误中提取业务错误码，不是 CodeError 则按内部错误处理
func GetCode(err error) int {
	var codeErr *CodeError
	if errors.As(err, &codeErr) {
		return codeErr.Code
	}
	return CodeInternal
}

// 业务状态码常量定义
const (
	CodeSuccess        = 1000 // 成功
	CodeInvalid        = 1001 // 字段格式/形状错误
	CodeAuthRequired   = 1002 // 操作需要已认证的会话
	CodeAuthRejected   = 1003 // 凭证错误或 token 无效/过期
	CodeForbidden      = 1004 // 会话不持有该角色/不是群成员/冒名发言
	CodeNotFound       = 1005 // 目标账号、群、申请或消息不存在
	CodeConflict       = 1006 // 唯一性冲突（用户名、已是好友、账号被他人占用）
	CodeAlreadyClaimed = 1007 // 红包：重复领取
	CodeExhausted      = 1008 // 红包：已领完
	CodeInconsistent   = 1009 // 红包：金额状态不一致
	CodeInternal       = 1010 // 未预期的存储或处理失败
)

// 预定义常用错误实例，可直接返回也可用于 errors.Is 比较
var (
	ErrInvalidParam = New(CodeInvalid, "请求参数错误")
	ErrAuthRequired = New(CodeAuthRequired, "请先登录")
	ErrInternal     = New(CodeInternal, "服务繁忙")
)

// IsNotFound 检查错误是否为"未找到"类型（包括 gorm.ErrRecordNotFound 的包装）
func IsNotFound(err error) bool {
	var codeErr *CodeError
	if errors.As(err, &codeErr) && codeErr.Code == CodeNotFound {
		return true
	}
	return err != nil && err.Error() == "record not found"
}
