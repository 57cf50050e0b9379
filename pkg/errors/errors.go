package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios. User-facing messages are Japanese.
var (
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "認証が必要です")
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "メールアドレスまたはパスワードが正しくありません")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "アカウントが無効化されています")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "権限がありません")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "リソースが見つかりません")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "入力内容に誤りがあります")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "競合が発生しました")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "サーバーエラーが発生しました")
)

// Attendance and report domain errors. Business-rule violations surface as 400.
var (
	ErrAlreadyClockedIn   = New("ALREADY_ACTIVE", http.StatusBadRequest, "既に出勤済みです")
	ErrNoActiveSession    = New("NO_ACTIVE_SESSION", http.StatusBadRequest, "アクティブな勤務がありません")
	ErrAlreadyClockedOut  = New("ALREADY_CLOCKED_OUT", http.StatusBadRequest, "すでに退勤済みです")
	ErrNoPlannedTime      = New("NO_PLANNED_TIME", http.StatusBadRequest, "予定退勤時間が設定されていません")
	ErrInvalidPlannedTime = New("INVALID_PLANNED_TIME", http.StatusBadRequest, "予定退勤時間は現在時刻より後である必要があります")
	ErrEmailTaken         = New("EMAIL_TAKEN", http.StatusBadRequest, "このメールアドレスは既に登録されています")
	ErrInvalidStatus      = New("INVALID_STATUS", http.StatusBadRequest, "無効なステータスです")
)

// ErrCacheMiss signals a cache lookup miss. Never surfaced to clients.
var ErrCacheMiss = New("CACHE_MISS", http.StatusInternalServerError, "cache miss")

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
