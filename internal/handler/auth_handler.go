package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/matiq/matiq-api/internal/auth"
	"github.com/matiq/matiq-api/internal/middleware"
	"github.com/matiq/matiq-api/internal/model"
)

// LoginService はログイン委譲のインターフェース。
// auth.IdPClientの部分集合として定義する。
type LoginService interface {
	Login(ctx context.Context, email, password string) (*auth.TokenResponse, error)
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	login LoginService
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(login LoginService) *AuthHandler {
	return &AuthHandler{login: login}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse はログイン成功時のレスポンス。
type loginResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// userResponse は認証済みユーザー情報のレスポンス。
type userResponse struct {
	UserID           string         `json:"user_id"`
	Email            string         `json:"email"`
	Authenticated    bool           `json:"authenticated"`
	AdditionalClaims map[string]any `json:"additional_claims"`
}

// tokenInfoResponse はトークンの詳細情報のレスポンス。
type tokenInfoResponse struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	IssuedAt  any    `json:"issued_at"`
	ExpiresAt any    `json:"expires_at"`
	Audience  any    `json:"audience"`
	Issuer    any    `json:"issuer"`
	Role      any    `json:"role"`
}

// publicEndpointResponse は認証任意エンドポイントのレスポンス。
type publicEndpointResponse struct {
	Message       string        `json:"message"`
	PublicData    string        `json:"public_data"`
	Authenticated bool          `json:"authenticated"`
	UserInfo      *userResponse `json:"user_info"`
	PremiumData   string        `json:"premium_data,omitempty"`
}

// Login はIdPへのログイン委譲を処理する。
// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}
	if req.Email == "" || req.Password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	token, err := h.login.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewLoginFailedError())
			return
		}
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, loginResponse{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		ExpiresIn:    token.ExpiresIn,
		RefreshToken: token.RefreshToken,
	})
}

// Me は認証済みユーザーの情報を返す。
// GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewNotAuthenticatedError())
		return
	}

	writeJSONResponse(w, http.StatusOK, toUserResponse(identity))
}

// TokenInfo はトークンの詳細クレームを返す。
// GET /api/v1/auth/token-info
func (h *AuthHandler) TokenInfo(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewNotAuthenticatedError())
		return
	}

	claims := identity.RawClaims
	writeJSONResponse(w, http.StatusOK, tokenInfoResponse{
		UserID:    identity.UserID,
		Email:     identity.Email,
		IssuedAt:  claims["iat"],
		ExpiresAt: claims["exp"],
		Audience:  claims["aud"],
		Issuer:    claims["iss"],
		Role:      claims["role"],
	})
}

// PublicWithOptionalAuth は認証任意の公開エンドポイント。
// 認証済みの場合は追加情報を返す。
// GET /api/v1/auth/public-with-optional-auth
func (h *AuthHandler) PublicWithOptionalAuth(w http.ResponseWriter, r *http.Request) {
	resp := publicEndpointResponse{
		Message:    "Welcome to MatIQ Wrestling Analytics",
		PublicData: "Tournament schedules, public wrestler rankings, and match results",
	}

	if identity, err := middleware.IdentityFromContext(r.Context()); err == nil {
		user := toUserResponse(identity)
		resp.Authenticated = true
		resp.UserInfo = &user
		resp.PremiumData = "Detailed analytics, coaching insights, and personalized recommendations"
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

func toUserResponse(identity *auth.Identity) userResponse {
	return userResponse{
		UserID:           identity.UserID,
		Email:            identity.Email,
		Authenticated:    true,
		AdditionalClaims: identity.RawClaims,
	}
}
