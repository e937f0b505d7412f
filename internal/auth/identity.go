// Package auth はJWT検証とIdPへのログイン委譲を提供する。
package auth

import "errors"

// Identity は検証済みトークンから構築された呼び出し元の身元を表す。
// リクエストごとに新規構築され、永続化されない。
type Identity struct {
	// UserID はトークンのsubクレーム。外部IdP内で呼び出し元を一意に識別する。
	UserID string
	// Email はemailクレーム。IdPの設定によっては存在しない場合がある。
	Email string
	// RawClaims はデコード済みペイロードの全クレーム。
	// 将来のロールチェック等で参照する。
	RawClaims map[string]any
}

// Role はRawClaimsのroleクレームを返す。未設定の場合は空文字を返す。
func (i *Identity) Role() string {
	role, _ := i.RawClaims["role"].(string)
	return role
}

// 検証失敗の分類。下流でHTTPステータスに対応付けるため区別する。
var (
	// ErrTokenInvalid は構造不正・署名不一致・必須クレーム欠落を表す。
	// どの検証が失敗したかは集約され、クライアントには露出しない。
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired は期限切れを表す。再認証を促すため汎用の無効とは区別する。
	ErrTokenExpired = errors.New("token expired")
	// ErrKeyUnavailable はIdP公開鍵が取得できずフォールバックも無効な場合を表す。
	ErrKeyUnavailable = errors.New("verification key unavailable")
)
