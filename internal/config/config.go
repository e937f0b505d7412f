// Package config は環境変数ベースのアプリケーション設定を提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// JWT署名アルゴリズムの識別子。
const (
	// AlgHS256 は共有シークレットによる対称検証。ローカル開発のデフォルト。
	AlgHS256 = "HS256"
	// AlgRS256 はIdP公開鍵（JWKS）による非対称検証。本番想定。
	AlgRS256 = "RS256"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Auth
	SupabaseURL       string // IdPのベースURL。JWKS取得とログイン委譲に使用する
	SupabaseJWTSecret string // HS256検証用の共有シークレット
	JWTAlgorithm      string // HS256 または RS256
	JWTFallback       bool   // JWKS取得失敗時にHS256へフォールバックするか
	JWKSCacheTTL      time.Duration
	JWKSFetchTimeout  time.Duration

	// Rate Limit（req/min/caller）
	RateLimitGeneral  int
	RateLimitMutation int

	// Worker
	ViewRefreshInterval time.Duration

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.SupabaseJWTSecret = os.Getenv("SUPABASE_JWT_SECRET")
	if cfg.SupabaseJWTSecret == "" {
		missing = append(missing, "SUPABASE_JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.SupabaseURL = getEnvString("SUPABASE_URL", "")
	cfg.JWTAlgorithm = getEnvString("JWT_ALGORITHM", AlgHS256)
	if cfg.JWTAlgorithm != AlgHS256 && cfg.JWTAlgorithm != AlgRS256 {
		return nil, fmt.Errorf("unsupported JWT_ALGORITHM: %s", cfg.JWTAlgorithm)
	}
	// RS256検証にはJWKS取得元のSUPABASE_URLが必須
	if cfg.JWTAlgorithm == AlgRS256 && cfg.SupabaseURL == "" {
		return nil, fmt.Errorf("SUPABASE_URL is required when JWT_ALGORITHM is %s", AlgRS256)
	}

	cfg.JWTFallback = getEnvBool("JWT_FALLBACK_ENABLED", true)
	cfg.JWKSCacheTTL = getEnvDuration("JWKS_CACHE_TTL", 1*time.Hour)
	cfg.JWKSFetchTimeout = getEnvDuration("JWKS_FETCH_TIMEOUT", 10*time.Second)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitMutation = getEnvInt("RATE_LIMIT_MUTATION", 30)
	cfg.ViewRefreshInterval = getEnvDuration("VIEW_REFRESH_INTERVAL", 15*time.Minute)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
