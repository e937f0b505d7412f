package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"
)

// jwksPath はSupabase互換IdPのJWKSエンドポイントのパス。
const jwksPath = "/auth/v1/.well-known/jwks.json"

// jwks はJWKSエンドポイントのレスポンス。
type jwks struct {
	Keys []jwk `json:"keys"`
}

// jwk はJSON Web Keyの1エントリ。RSA鍵のみを扱う。
type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// KeySet はIdPの公開鍵セットをプロセス全体でキャッシュする。
// TTLベースの再取得に加え、鍵ローテーション（未知のkid）時は強制再取得する。
// 再取得に失敗した場合は古いキャッシュを継続利用し、劣化をログに残す。
type KeySet struct {
	jwksURL    string
	httpClient *http.Client
	ttl        time.Duration
	metrics    KeyFetchRecorder

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// KeySetConfig はKeySetの設定。
type KeySetConfig struct {
	// IssuerBaseURL はIdPのベースURL（例: "https://proj.supabase.co"）。
	IssuerBaseURL string
	// CacheTTL はキャッシュの有効期間。ゼロ値の場合は1時間。
	CacheTTL time.Duration
	// FetchTimeout はJWKS取得のHTTPタイムアウト。ゼロ値の場合は10秒。
	// 鍵取得の遅延がリクエスト処理を無期限にブロックしないよう必ず有界にする。
	FetchTimeout time.Duration
	// Metrics は取得結果の計測先。nilの場合は計測しない。
	Metrics KeyFetchRecorder
}

// KeyFetchRecorder はJWKS取得結果の計測インターフェース。
// metrics.Collectorの部分集合として定義する。
type KeyFetchRecorder interface {
	RecordKeyFetch(outcome string)
}

// NewKeySet はKeySetを生成する。
func NewKeySet(config KeySetConfig) *KeySet {
	if config.CacheTTL == 0 {
		config.CacheTTL = 1 * time.Hour
	}
	if config.FetchTimeout == 0 {
		config.FetchTimeout = 10 * time.Second
	}

	return &KeySet{
		jwksURL: strings.TrimRight(config.IssuerBaseURL, "/") + jwksPath,
		ttl:     config.CacheTTL,
		metrics: config.Metrics,
		httpClient: &http.Client{
			Timeout: config.FetchTimeout,
		},
		keys: make(map[string]*rsa.PublicKey),
	}
}

// Key は指定kidの公開鍵を返す。
// kidが空でキャッシュに鍵が1つだけの場合はその鍵を返す。
// キャッシュが新鮮ならネットワークアクセスなしで返す。
// キャッシュ期限切れ、または未知のkid（ローテーション想定）の場合は再取得する。
func (s *KeySet) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key, ok := s.cachedKey(kid, true); ok {
		return key, nil
	}

	if err := s.refresh(ctx); err != nil {
		// 再取得失敗時は古いキャッシュで継続する（劣化運転）
		if key, ok := s.cachedKey(kid, false); ok {
			slog.Warn("JWKS refresh failed, serving stale cached key",
				slog.String("kid", kid),
				slog.String("error", err.Error()),
			)
			return key, nil
		}
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	if key, ok := s.cachedKey(kid, false); ok {
		return key, nil
	}
	return nil, fmt.Errorf("key with kid %q not found in JWKS", kid)
}

// Invalidate はキャッシュを破棄し、次回アクセス時に再取得させる。
func (s *KeySet) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = make(map[string]*rsa.PublicKey)
	s.fetchedAt = time.Time{}
}

// cachedKey はキャッシュから鍵を探す。
// requireFreshがtrueの場合、TTL期限切れのキャッシュはヒットとみなさない。
func (s *KeySet) cachedKey(kid string, requireFresh bool) (*rsa.PublicKey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if requireFresh && time.Since(s.fetchedAt) > s.ttl {
		return nil, false
	}
	if kid == "" && len(s.keys) == 1 {
		for _, key := range s.keys {
			return key, true
		}
	}
	key, ok := s.keys[kid]
	return key, ok
}

// refresh はJWKSエンドポイントから鍵セットを再取得してキャッシュを置き換える。
// 並行リクエストが競合しても、同一IdPの同一鍵を再取得するだけで正しさは損なわれない。
func (s *KeySet) refresh(ctx context.Context) error {
	err := s.refreshOnce(ctx)
	if s.metrics != nil {
		if err != nil {
			s.metrics.RecordKeyFetch("failure")
		} else {
			s.metrics.RecordKeyFetch("success")
		}
	}
	return err
}

func (s *KeySet) refreshOnce(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.jwksURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create JWKS request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("JWKS request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var set jwks
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("failed to decode JWKS response: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for i := range set.Keys {
		k := &set.Keys[i]
		if k.Kty != "RSA" {
			continue
		}
		pub, err := jwkToRSAPublicKey(k)
		if err != nil {
			slog.Warn("skipping unparsable JWK",
				slog.String("kid", k.Kid),
				slog.String("error", err.Error()),
			)
			continue
		}
		keys[k.Kid] = pub
	}

	if len(keys) == 0 {
		return fmt.Errorf("JWKS response contained no usable RSA keys")
	}

	s.mu.Lock()
	s.keys = keys
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	slog.Info("JWKS cache refreshed",
		slog.String("url", s.jwksURL),
		slog.Int("keys", len(keys)),
	)
	return nil
}

// jwkToRSAPublicKey はJWKのn/eパラメータからRSA公開鍵を構築する。
func jwkToRSAPublicKey(k *jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}

	var e int
	for _, b := range eBytes {
		e = e*256 + int(b)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
