// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// クライアントに返す原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, data, system
	Action   string // クライアント向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeNotAuthenticated = "NOT_AUTHENTICATED"
	ErrCodeInvalidToken     = "INVALID_TOKEN"
	ErrCodeTokenExpired     = "TOKEN_EXPIRED"
	ErrCodeRoleDenied       = "ROLE_DENIED"
	ErrCodeLoginFailed      = "LOGIN_FAILED"
	ErrCodePersonNotFound   = "PERSON_NOT_FOUND"
	ErrCodeSchoolNotFound   = "SCHOOL_NOT_FOUND"
	ErrCodeNotAWrestler     = "NOT_A_WRESTLER"
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeInvalidQuery     = "INVALID_QUERY"
)

// NewNotAuthenticatedError は認証情報が提示されなかった場合のエラーを生成する。
// トークンが提示されたが無効だった場合とはHTTPステータスレベルで区別される。
func NewNotAuthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeNotAuthenticated,
		Message:  "Not authenticated",
		Category: "auth",
		Action:   "Provide an Authorization: Bearer header.",
	}
}

// NewInvalidTokenError は無効なトークンのエラーを生成する。
// 署名不一致・構造不正・必須クレーム欠落はすべてこの汎用メッセージに集約し、
// どの検証が失敗したかをクライアントに漏らさない。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "Invalid token",
		Category: "auth",
		Action:   "Obtain a new token and retry the request.",
	}
}

// NewTokenExpiredError は期限切れトークンのエラーを生成する。
// 再認証フローを促すため、汎用の無効トークンとは区別して返す。
func NewTokenExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenExpired,
		Message:  "Token has expired",
		Category: "auth",
		Action:   "Re-authenticate to obtain a fresh token.",
	}
}

// NewRoleDeniedError はロール不一致による認可失敗エラーを生成する。
// 認証は成功しているため、認証失敗とは区別した403を返す。
func NewRoleDeniedError(requiredRole string) *APIError {
	return &APIError{
		Code:     ErrCodeRoleDenied,
		Message:  fmt.Sprintf("Access denied. Required role: %s", requiredRole),
		Category: "auth",
		Action:   "Contact an administrator if you believe you should have this role.",
	}
}

// NewLoginFailedError はIdPへのログイン委譲が拒否された場合のエラーを生成する。
func NewLoginFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeLoginFailed,
		Message:  "Invalid email or password",
		Category: "auth",
		Action:   "Check your credentials and try again.",
	}
}

// NewPersonNotFoundError は人物が見つからない場合のエラーを生成する。
func NewPersonNotFoundError(slug string) *APIError {
	return &APIError{
		Code:     ErrCodePersonNotFound,
		Message:  fmt.Sprintf("Person with slug '%s' not found", slug),
		Category: "data",
		Action:   "Check the slug and try again.",
	}
}

// NewSchoolNotFoundError は学校が見つからない場合のエラーを生成する。
func NewSchoolNotFoundError(slug string) *APIError {
	return &APIError{
		Code:     ErrCodeSchoolNotFound,
		Message:  fmt.Sprintf("School with slug '%s' not found", slug),
		Category: "data",
		Action:   "Check the slug and try again.",
	}
}

// NewNotAWrestlerError は人物がwrestlerロールを持たない場合のエラーを生成する。
func NewNotAWrestlerError(slug string) *APIError {
	return &APIError{
		Code:     ErrCodeNotAWrestler,
		Message:  fmt.Sprintf("Person with slug '%s' does not have a wrestler role", slug),
		Category: "data",
		Action:   "Wrestler statistics are only available for wrestlers.",
	}
}

// NewInvalidRequestError はリクエストボディが解析できない場合のエラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "Failed to parse request body",
		Category: "validation",
		Action:   "Send a valid JSON request body.",
	}
}

// NewInvalidQueryError は無効なクエリパラメータのエラーを生成する。
func NewInvalidQueryError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidQuery,
		Message:  fmt.Sprintf("Invalid query parameter: %s", reason),
		Category: "validation",
		Action:   "Check the query parameters and try again.",
	}
}
