package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误类别
// 所有 service 层返回的业务错误都必须归入其中一类，
// api 层根据类别决定 HTTP 状态码
type Kind int

const (
	// Validation 入参校验失败（缺少必填字段等）
	Validation Kind = iota + 1
	// PreconditionFailed 状态机不允许当前转换
	PreconditionFailed
	// NotFound 引用的实体不存在
	NotFound
	// Conflict 乐观锁检测到并发修改
	Conflict
	// Internal 未预期的基础设施错误
	Internal
)

// Error 携带类别的业务错误
type Error struct {
	Kind Kind
	Msg  string
	Err  error // 可选的底层错误
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New 构造业务错误
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap 包装底层错误并归类
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf 提取错误类别，非业务错误一律按 Internal 处理
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is 判断错误是否属于指定类别
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus 类别到 HTTP 状态码的映射
// 409 (Conflict) / 422 (Unprocessable) 的区分见 api 层注释
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Validation:
		return http.StatusBadRequest
	case PreconditionFailed:
		return http.StatusUnprocessableEntity
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
