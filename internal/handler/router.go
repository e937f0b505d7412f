package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matiq/matiq-api/internal/middleware"
)

// HealthChecker はデータベース疎通確認のインターフェース。
// *sql.DB が満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Verifier          middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	RequestRecorder   middleware.RequestRecorder

	// 運用エンドポイント
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// サービス
	LoginService  LoginService
	PersonService PersonServiceInterface
	SchoolService SchoolServiceInterface
	SearchService SearchServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → RateLimit(General)
//
// 認証ガードはルートごとに適用する。書き込み系ルートは
// Required ガードと書き込み専用レート制限を重ねる。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	// CORS はログ対象外のプリフライトも処理するためLoggingより先に適用する
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.RequestRecorder))

	authHandler := NewAuthHandler(deps.LoginService)
	personHandler := NewPersonHandler(deps.PersonService)
	schoolHandler := NewSchoolHandler(deps.SchoolService)
	searchHandler := NewSearchHandler(deps.SearchService)

	requireAuth := middleware.NewAuthRequiredMiddleware(deps.Verifier)
	optionalAuth := middleware.NewAuthOptionalMiddleware(deps.Verifier)

	// --- 運用エンドポイント（レート制限の外） ---

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(w, http.StatusOK, map[string]string{
			"message": "Welcome to MatIQ Wrestling Analytics",
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.HealthChecker.PingContext(r.Context()); err != nil {
			writeJSONResponse(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
			})
			return
		}
		writeJSONResponse(w, http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// --- APIルート ---
	// API全般のレート制限はルートガードより外側で動くため常にIPキーになる。
	// ユーザーキーの制限は認証後にマウントする更新系レート制限が担う。
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 認証
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.With(requireAuth).Get("/me", authHandler.Me)
			r.With(requireAuth).Get("/token-info", authHandler.TokenInfo)
			r.With(optionalAuth).Get("/public-with-optional-auth", authHandler.PublicWithOptionalAuth)
		})

		// 人物
		r.Route("/person/{slug}", func(r chi.Router) {
			r.Get("/", personHandler.GetProfile)
			r.Get("/wrestler/stats", personHandler.GetWrestlerStats)
			r.Get("/wrestler/matches", personHandler.GetWrestlerMatches)
		})

		// 学校（書き込みは認証必須 + 書き込み専用レート制限）
		r.Route("/school", func(r chi.Router) {
			r.Get("/", schoolHandler.List)
			r.Get("/{slug}", schoolHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Use(deps.RateLimiter.MutationMiddleware())

				r.Post("/", schoolHandler.Create)
				r.Put("/{slug}", schoolHandler.Update)
				r.Delete("/{slug}", schoolHandler.Delete)
			})
		})

		// 横断検索
		r.Route("/search", func(r chi.Router) {
			r.Get("/", searchHandler.Global)
		})
	})

	return r
}
