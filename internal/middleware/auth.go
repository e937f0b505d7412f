// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/matiq/matiq-api/internal/auth"
	"github.com/matiq/matiq-api/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストに検証済みIdentityを格納するためのキー。
var identityContextKey = contextKey("identity")

// identityHolderContextKey はロギングミドルウェアが設置するholderを引くためのキー。
var identityHolderContextKey = contextKey("identityHolder")

// identityHolder は認証ガードの検証結果をチェーン外側へ伝えるための入れ物。
// WithContextで差し替えたコンテキストは下流にしか流れないため、
// 外側のロギングミドルウェアが先にholderを設置し、ガードが書き込む。
type identityHolder struct {
	identity *auth.Identity
}

// withIdentityHolder は空のholderをコンテキストに設置して返す。
func withIdentityHolder(ctx context.Context) (context.Context, *identityHolder) {
	holder := &identityHolder{}
	return context.WithValue(ctx, identityHolderContextKey, holder), holder
}

// publishIdentity は同一リクエストに設置済みのholderへ検証済みIdentityを書き込む。
// holderが設置されていない場合は何もしない。
func publishIdentity(ctx context.Context, identity *auth.Identity) {
	if holder, ok := ctx.Value(identityHolderContextKey).(*identityHolder); ok {
		holder.identity = identity
	}
}

// TokenVerifier はトークン検証に必要なインターフェース。
// auth.Verifierの部分集合として定義する。
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Identity, error)
}

// bearerToken はAuthorizationヘッダーからベアラートークンを取り出す。
// ヘッダーが存在しない、またはBearerスキームでない場合はok=falseを返す。
func bearerToken(r *http.Request) (token string, ok bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, rest, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(rest)
	if token == "" {
		return "", false
	}
	return token, true
}

// writeVerifyError は検証エラーを分類してHTTPレスポンスに対応付ける。
// 期限切れは401 TOKEN_EXPIRED、それ以外はすべて401 INVALID_TOKENに集約する。
func writeVerifyError(w http.ResponseWriter, err error) {
	if errors.Is(err, auth.ErrTokenExpired) {
		WriteErrorResponse(w, http.StatusUnauthorized, model.NewTokenExpiredError())
		return
	}
	WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
}

// NewAuthRequiredMiddleware は認証必須のルートガードを返す。
// 認証情報の欠落は403、提示されたが無効なトークンは401を返す。
// 検証済みIdentityをリクエストコンテキストに注入する。
func NewAuthRequiredMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				WriteErrorResponse(w, http.StatusForbidden, model.NewNotAuthenticatedError())
				return
			}

			identity, err := verifier.Verify(r.Context(), token)
			if err != nil {
				slog.Warn("token verification failed",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				writeVerifyError(w, err)
				return
			}

			publishIdentity(r.Context(), identity)
			ctx := ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewAuthOptionalMiddleware は認証任意のルートガードを返す。
// ヘッダーの欠落と検証失敗はどちらも匿名として解決し、
// このガード自身がリクエストを終了させることはない。
// 提示されたトークンの検証失敗はWARNログにのみ残す。
func NewAuthOptionalMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := verifier.Verify(r.Context(), token)
			if err != nil {
				slog.Warn("optional auth token rejected, continuing as anonymous",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			publishIdentity(r.Context(), identity)
			ctx := ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewRoleRequiredMiddleware は指定ロールを要求するルートガードを返す。
// 必須ガードの検証に加え、roleクレームの一致を確認する。
// 認証は成功しているがロールが足りない場合は403 ROLE_DENIEDを返す。
func NewRoleRequiredMiddleware(verifier TokenVerifier, role string) func(next http.Handler) http.Handler {
	required := NewAuthRequiredMiddleware(verifier)
	return func(next http.Handler) http.Handler {
		return required(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := IdentityFromContext(r.Context())
			if err != nil {
				WriteInternalServerError(w)
				return
			}
			if identity.Role() != role {
				slog.Warn("role check failed",
					slog.String("path", r.URL.Path),
					slog.String("user_id", identity.UserID),
					slog.String("required_role", role),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewRoleDeniedError(role))
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// IdentityFromContext はリクエストコンテキストから検証済みIdentityを取得する。
// 認証ガードを通過したリクエストでのみ有効。
func IdentityFromContext(ctx context.Context) (*auth.Identity, error) {
	identity, ok := ctx.Value(identityContextKey).(*auth.Identity)
	if !ok || identity == nil {
		return nil, fmt.Errorf("identity not found in context")
	}
	return identity, nil
}

// ContextWithIdentity はコンテキストにIdentityを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}
