package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/matiq/matiq-api/internal/config"
)

// KeyProvider はIdP公開鍵の取得インターフェース。
// KeySetの部分集合として定義し、テストで差し替え可能にする。
type KeyProvider interface {
	Key(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// VerificationRecorder は検証結果の計測インターフェース。
// metrics.Collectorの部分集合として定義する。
type VerificationRecorder interface {
	RecordTokenVerification(outcome string)
}

// VerifierConfig はVerifierの設定。
type VerifierConfig struct {
	// Secret はHS256検証用の共有シークレット。
	Secret []byte
	// Keys はRS256検証用の公開鍵プロバイダ。nilの場合はHS256のみで検証する。
	Keys KeyProvider
	// AllowFallback は公開鍵取得失敗時に共有シークレット検証へ
	// フォールバックするかどうか。セキュリティ上の劣化を伴うため、
	// 有効時のフォールバックは必ずWARNログに残す。
	AllowFallback bool
	// Metrics は検証結果の計測先。nilの場合は計測しない。
	Metrics VerificationRecorder
}

// Verifier はベアラートークンを検証し、Identityまたは分類済みエラーを返す。
// リクエストごとの可変状態を持たないため、並行利用できる。
type Verifier struct {
	secret        []byte
	keys          KeyProvider
	allowFallback bool
	metrics       VerificationRecorder
}

// NewVerifier はVerifierを生成する。
func NewVerifier(cfg VerifierConfig) *Verifier {
	return &Verifier{
		secret:        cfg.Secret,
		keys:          cfg.Keys,
		allowFallback: cfg.AllowFallback,
		metrics:       cfg.Metrics,
	}
}

// Verify はトークンを検証してIdentityを返す。
//
// ヘッダーの宣言アルゴリズムは検証戦略の選択にのみ使用し、
// それ以上の信頼は置かない。検証は以下を含む:
//   - 署名検証（不一致は拒否）
//   - expが厳密に未来であること
//   - iatが存在する場合、未来でないこと
//   - subクレームの存在
//
// emailは任意であり、欠落しても検証は失敗しない。
// 失敗はErrTokenExpiredまたはErrTokenInvalidに分類される。
// 同一トークン・同一時刻に対して決定的であり、リトライは行わない。
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*Identity, error) {
	identity, err := v.verify(ctx, tokenString)
	if v.metrics != nil {
		switch {
		case err == nil:
			v.metrics.RecordTokenVerification("success")
		case errors.Is(err, ErrTokenExpired):
			v.metrics.RecordTokenVerification("expired")
		default:
			v.metrics.RecordTokenVerification("invalid")
		}
	}
	return identity, err
}

func (v *Verifier) verify(ctx context.Context, tokenString string) (*Identity, error) {
	alg, kid, err := peekHeader(tokenString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	// 宣言アルゴリズムに応じて鍵素材を選択する
	key := any(v.secret)
	validMethods := []string{config.AlgHS256}

	if alg == config.AlgRS256 && v.keys != nil {
		pub, kerr := v.keys.Key(ctx, kid)
		if kerr != nil {
			if !v.allowFallback {
				return nil, fmt.Errorf("%w: %v", ErrKeyUnavailable, kerr)
			}
			// IdP疎通なしのローカル検証を想定した劣化経路。
			// RS256署名のトークンは共有シークレットでは検証できず拒否される。
			slog.Warn("public key unavailable, falling back to shared-secret verification",
				slog.String("kid", kid),
				slog.String("error", kerr.Error()),
			)
		} else {
			key = pub
			validMethods = []string{config.AlgRS256}
		}
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods(validMethods),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)

	claims := jwt.MapClaims{}
	if _, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return key, nil
	}); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrTokenInvalid)
	}

	// emailは任意クレーム。欠落時は空のまま返す
	email, _ := claims["email"].(string)

	return &Identity{
		UserID:    sub,
		Email:     email,
		RawClaims: map[string]any(claims),
	}, nil
}

// peekHeader はコンパクトJWSのヘッダー部からalgとkidを読み取る。
// 署名検証前の値であり、検証戦略の選択にのみ使用する。
func peekHeader(tokenString string) (alg, kid string, err error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return "", "", fmt.Errorf("token must have three segments")
	}

	data, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", "", fmt.Errorf("failed to decode token header: %w", err)
	}

	var header struct {
		Alg string `json:"alg"`
		Kid string `json:"kid"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return "", "", fmt.Errorf("failed to parse token header: %w", err)
	}
	if header.Alg == "" {
		return "", "", fmt.Errorf("token header missing alg")
	}

	return header.Alg, header.Kid, nil
}
