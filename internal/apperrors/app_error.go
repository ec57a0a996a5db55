package apperrors

import (
	"errors"
	"net/http"
)

// Kind 错误分类，调用方可据此恢复
type Kind string

const (
	KindNotRegistered       Kind = "NotRegistered"
	KindNotVerified         Kind = "NotVerified"
	KindForbidden           Kind = "Forbidden"
	KindNotFound            Kind = "NotFound"
	KindInvalidInput        Kind = "InvalidInput"
	KindCodeAlreadyTaken    Kind = "CodeAlreadyTaken"
	KindAllocationExhausted Kind = "AllocationExhausted"
	KindAlreadyLinked       Kind = "AlreadyLinked"
	KindStorage             Kind = "StorageError"
	KindInvalidCredentials  Kind = "InvalidCredentials"
	KindConflict            Kind = "Conflict"
)

// 错误消息 ID（对应 i18n 目录中的 key）
const (
	MsgNotRegistered       = "error.not_registered"
	MsgNotVerified         = "error.not_verified"
	MsgForbidden           = "error.forbidden"
	MsgNotFound            = "error.not_found"
	MsgBookmarkNotFound    = "error.bookmark_not_found"
	MsgShortLinkNotFound   = "error.shortlink_not_found"
	MsgUserNotFound        = "error.user_not_found"
	MsgInvalidInput        = "error.invalid_input"
	MsgCodeAlreadyTaken    = "error.code_already_taken"
	MsgAllocationExhausted = "error.allocation_exhausted"
	MsgAlreadyLinked       = "error.already_linked"
	MsgStorage             = "error.storage"
	MsgInvalidCredentials  = "error.invalid_credentials"
	MsgEmailTaken          = "error.email_taken"
	MsgDomainNotAllowed    = "error.domain_not_allowed"
	MsgDomainExists        = "error.domain_exists"
	MsgEmailInvalid        = "error.email_invalid"
	MsgPasswordInvalid     = "error.password_invalid"
	MsgVerificationToken   = "error.verification_token_invalid"
)

// AppError 自定义错误类型
type AppError struct {
	Kind    Kind
	Code    int
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Cause.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is 按 Kind 比较，便于 errors.Is(err, apperrors.NotFound()) 这样的写法
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// New 创建指定分类的错误
func New(kind Kind, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    statusOf(kind),
		Message: message,
	}
}

// Wrap 创建带底层原因的错误
func Wrap(kind Kind, message string, cause error) *AppError {
	e := New(kind, message)
	e.Cause = cause
	return e
}

// KindOf 返回错误链中第一个 AppError 的分类
func KindOf(err error) (Kind, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}

// IsKind 判断错误链中是否含有指定分类
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

func statusOf(kind Kind) int {
	switch kind {
	case KindNotRegistered, KindInvalidCredentials:
		return http.StatusUnauthorized
	case KindNotVerified, KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindCodeAlreadyTaken, KindAlreadyLinked, KindConflict:
		return http.StatusConflict
	case KindAllocationExhausted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func NotRegistered() *AppError { return New(KindNotRegistered, MsgNotRegistered) }

func NotVerified() *AppError { return New(KindNotVerified, MsgNotVerified) }

func Forbidden() *AppError { return New(KindForbidden, MsgForbidden) }

// NotFound 资源不存在或对当前用户不可见，两者对外不做区分
func NotFound(message string) *AppError {
	if message == "" {
		message = MsgNotFound
	}
	return New(KindNotFound, message)
}

// InvalidRequestError 封装参数校验错误
func InvalidRequestError(message string) *AppError {
	return New(KindInvalidInput, message)
}

// InvalidRequestErrorDefault 默认参数校验错误
func InvalidRequestErrorDefault() *AppError {
	return New(KindInvalidInput, MsgInvalidInput)
}

func CodeAlreadyTaken() *AppError { return New(KindCodeAlreadyTaken, MsgCodeAlreadyTaken) }

func AllocationExhausted() *AppError {
	return New(KindAllocationExhausted, MsgAllocationExhausted)
}

func AlreadyLinked() *AppError { return New(KindAlreadyLinked, MsgAlreadyLinked) }

func InvalidCredentials() *AppError {
	return New(KindInvalidCredentials, MsgInvalidCredentials)
}

// Conflict 业务冲突（如邮箱已注册）
func Conflict(message string) *AppError { return New(KindConflict, message) }

// SystemError 封装存储层等内部错误，cause 只用于日志，不会返回给客户端
func SystemError(cause error) *AppError {
	return Wrap(KindStorage, MsgStorage, cause)
}

// SystemErrorDefault 默认系统内部错误
func SystemErrorDefault() *AppError {
	return New(KindStorage, MsgStorage)
}
