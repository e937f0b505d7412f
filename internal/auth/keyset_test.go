package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// rsaToJWK はRSA公開鍵をJWKエントリに変換する。
func rsaToJWK(t *testing.T, kid string, pub *rsa.PublicKey) jwk {
	t.Helper()
	return jwk{
		Kid: kid,
		Kty: "RSA",
		Alg: "RS256",
		Use: "sig",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

// newJWKSServer は指定鍵を配信するテスト用JWKSサーバーを起動する。
// 呼び出し回数をカウントする。
func newJWKSServer(t *testing.T, keys ...jwk) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != jwksPath {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(jwks{Keys: keys})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func generateRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	return key
}

func TestKeySet_Key_FetchesAndCaches(t *testing.T) {
	priv := generateRSAKey(t)
	srv, calls := newJWKSServer(t, rsaToJWK(t, "key-1", &priv.PublicKey))

	ks := NewKeySet(KeySetConfig{IssuerBaseURL: srv.URL, CacheTTL: time.Hour})

	key, err := ks.Key(context.Background(), "key-1")
	if err != nil {
		t.Fatalf("Key returned error: %v", err)
	}
	if key.N.Cmp(priv.PublicKey.N) != 0 {
		t.Errorf("returned key does not match served key")
	}

	// 2回目はキャッシュヒットし、ネットワークアクセスは発生しない
	if _, err := ks.Key(context.Background(), "key-1"); err != nil {
		t.Fatalf("Key returned error on cached lookup: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("JWKS endpoint called %d times, want 1", got)
	}
}

func TestKeySet_Key_EmptyKidWithSingleKey(t *testing.T) {
	priv := generateRSAKey(t)
	srv, _ := newJWKSServer(t, rsaToJWK(t, "key-1", &priv.PublicKey))

	ks := NewKeySet(KeySetConfig{IssuerBaseURL: srv.URL})

	key, err := ks.Key(context.Background(), "")
	if err != nil {
		t.Fatalf("Key returned error: %v", err)
	}
	if key.N.Cmp(priv.PublicKey.N) != 0 {
		t.Errorf("returned key does not match served key")
	}
}

func TestKeySet_Key_UnknownKidTriggersRefetch(t *testing.T) {
	priv := generateRSAKey(t)
	srv, calls := newJWKSServer(t, rsaToJWK(t, "key-1", &priv.PublicKey))

	ks := NewKeySet(KeySetConfig{IssuerBaseURL: srv.URL, CacheTTL: time.Hour})

	if _, err := ks.Key(context.Background(), "key-1"); err != nil {
		t.Fatalf("Key returned error: %v", err)
	}

	// 鍵ローテーション想定: 未知のkidはキャッシュが新鮮でも再取得する
	if _, err := ks.Key(context.Background(), "key-2"); err == nil {
		t.Errorf("Key returned nil error for unknown kid")
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("JWKS endpoint called %d times, want 2", got)
	}
}

func TestKeySet_Key_ServesStaleOnRefreshFailure(t *testing.T) {
	priv := generateRSAKey(t)

	var failing atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(jwks{Keys: []jwk{rsaToJWK(t, "key-1", &priv.PublicKey)}})
	}))
	t.Cleanup(srv.Close)

	// TTLを極小にして即座に期限切れにする
	ks := NewKeySet(KeySetConfig{IssuerBaseURL: srv.URL, CacheTTL: time.Nanosecond})

	if _, err := ks.Key(context.Background(), "key-1"); err != nil {
		t.Fatalf("Key returned error: %v", err)
	}

	failing.Store(true)

	// 再取得は失敗するが、古いキャッシュの鍵で応答できる
	key, err := ks.Key(context.Background(), "key-1")
	if err != nil {
		t.Fatalf("Key returned error with stale cache available: %v", err)
	}
	if key.N.Cmp(priv.PublicKey.N) != 0 {
		t.Errorf("returned key does not match served key")
	}
}

func TestKeySet_Key_FetchFailureWithoutCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	ks := NewKeySet(KeySetConfig{IssuerBaseURL: srv.URL})

	if _, err := ks.Key(context.Background(), "key-1"); err == nil {
		t.Errorf("Key returned nil error with no cache and failing endpoint")
	}
}

func TestKeySet_Invalidate(t *testing.T) {
	priv := generateRSAKey(t)
	srv, calls := newJWKSServer(t, rsaToJWK(t, "key-1", &priv.PublicKey))

	ks := NewKeySet(KeySetConfig{IssuerBaseURL: srv.URL, CacheTTL: time.Hour})

	if _, err := ks.Key(context.Background(), "key-1"); err != nil {
		t.Fatalf("Key returned error: %v", err)
	}

	ks.Invalidate()

	if _, err := ks.Key(context.Background(), "key-1"); err != nil {
		t.Fatalf("Key returned error after invalidation: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("JWKS endpoint called %d times, want 2", got)
	}
}

func TestKeySet_Key_SkipsNonRSAKeys(t *testing.T) {
	priv := generateRSAKey(t)
	srv, _ := newJWKSServer(t,
		jwk{Kid: "ec-key", Kty: "EC", Alg: "ES256"},
		rsaToJWK(t, "rsa-key", &priv.PublicKey),
	)

	ks := NewKeySet(KeySetConfig{IssuerBaseURL: srv.URL})

	if _, err := ks.Key(context.Background(), "rsa-key"); err != nil {
		t.Fatalf("Key returned error: %v", err)
	}
	if _, err := ks.Key(context.Background(), "ec-key"); err == nil {
		t.Errorf("Key returned nil error for non-RSA kid")
	}
}

// recordingKeyFetchRecorder は記録された結果を保持するテスト実装。
type recordingKeyFetchRecorder struct {
	outcomes []string
}

func (r *recordingKeyFetchRecorder) RecordKeyFetch(outcome string) {
	r.outcomes = append(r.outcomes, outcome)
}

func TestKeySet_RecordsFetchOutcomes(t *testing.T) {
	priv := generateRSAKey(t)
	srv, _ := newJWKSServer(t, rsaToJWK(t, "key-1", &priv.PublicKey))

	rec := &recordingKeyFetchRecorder{}
	ks := NewKeySet(KeySetConfig{IssuerBaseURL: srv.URL, Metrics: rec})

	if _, err := ks.Key(context.Background(), "key-1"); err != nil {
		t.Fatalf("Key returned error: %v", err)
	}

	if len(rec.outcomes) != 1 || rec.outcomes[0] != "success" {
		t.Errorf("recorded outcomes = %v, want [success]", rec.outcomes)
	}
}
