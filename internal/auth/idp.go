package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrInvalidCredentials はIdPがメールアドレスまたはパスワードを拒否したことを示す。
var ErrInvalidCredentials = errors.New("invalid credentials")

// tokenPath はSupabase互換IdPのトークンエンドポイントのパス。
// パスワードグラントはクエリパラメータで指定する。
const tokenPath = "/auth/v1/token?grant_type=password"

// IdPClientConfig はIdPClientの設定。
type IdPClientConfig struct {
	// BaseURL はIdPのベースURL（例: "https://proj.supabase.co"）。
	BaseURL string
	// Timeout はトークン取得のHTTPタイムアウト。ゼロ値の場合は10秒。
	Timeout time.Duration
}

// IdPClient はIdPへのログイン委譲を行う。
// パスワード検証はIdP側の責務であり、本サービスは資格情報を保持しない。
type IdPClient struct {
	tokenURL   string
	httpClient *http.Client
}

// NewIdPClient はIdPClientを生成する。
func NewIdPClient(config IdPClientConfig) *IdPClient {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	return &IdPClient{
		tokenURL: strings.TrimRight(config.BaseURL, "/") + tokenPath,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// TokenResponse はIdPのトークンエンドポイントのレスポンス。
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// Login はメールアドレスとパスワードをIdPのパスワードグラントに委譲し、
// アクセストークンを取得する。資格情報の不一致はErrInvalidCredentialsを返す。
func (c *IdPClient) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	payload, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read login response: %w", err)
	}

	// IdPは資格情報不一致を400または401で返す
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrInvalidCredentials
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse login response: %w", err)
	}

	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("empty access token in login response")
	}

	return &tokenResp, nil
}
