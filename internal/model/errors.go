package model

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ドメイン層のセンチネルエラー
var (
	// ErrInvalidCredentials はメールアドレス不一致とパスワード不一致の両方で返される。
	// どちらで失敗したかを呼び出し元に区別させない。
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized はセッションが存在しない・無効・期限切れの場合に返される。
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound は指定IDのレコードが存在しない場合に返される。
	ErrNotFound = errors.New("not found")
	// ErrTooManyAttempts はログイン試行回数が上限に達している場合に返される。
	ErrTooManyAttempts = errors.New("too many login attempts")
)

// FieldError はフィールド単位の検証エラーを表す。
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError は入力検証の失敗を表す。
// 画面側でフィールドごとのメッセージを表示できるよう、エラーをリストで保持する。
type ValidationError struct {
	Fields []FieldError
}

// Error はerrorインターフェースを実装する。
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add はフィールドエラーを追加する。
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// HasErrors はフィールドエラーが1件以上あるかを返す。
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// APIError は統一エラーフォーマットを表す。
// Statusはレスポンスに使うHTTPステータスコード。
type APIError struct {
	Status  int
	Code    string
	Message string
	Details []FieldError
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeCSRFFailed         = "CSRF_FAILED"
	ErrCodeEmailFailed        = "EMAIL_FAILED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Status:  http.StatusUnauthorized,
		Code:    ErrCodeUnauthorized,
		Message: "Unauthorized",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Status:  http.StatusUnauthorized,
		Code:    ErrCodeInvalidCredentials,
		Message: "Invalid credentials",
	}
}

// NewInvalidInputError は入力検証エラーを生成する。
// detailsにはフィールドごとのエラーを渡す。
func NewInvalidInputError(details []FieldError) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    ErrCodeInvalidInput,
		Message: "Invalid input",
		Details: details,
	}
}

// NewNotFoundError はレコード未検出エラーを生成する。
func NewNotFoundError() *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    ErrCodeNotFound,
		Message: "Not found",
	}
}

// NewTooManyRequestsError はレート制限・ログイン試行制限のエラーを生成する。
func NewTooManyRequestsError() *APIError {
	return &APIError{
		Status:  http.StatusTooManyRequests,
		Code:    ErrCodeTooManyRequests,
		Message: "Too many requests",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、レスポンスには一般的なメッセージだけを返す。
func NewInternalError() *APIError {
	return &APIError{
		Status:  http.StatusInternalServerError,
		Code:    ErrCodeInternal,
		Message: "Internal server error",
	}
}
