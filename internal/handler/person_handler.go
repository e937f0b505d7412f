package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matiq/matiq-api/internal/model"
	"github.com/matiq/matiq-api/internal/person"
)

// PersonServiceInterface は人物サービスのインターフェース。
type PersonServiceInterface interface {
	GetProfile(ctx context.Context, slug string) (*person.Profile, error)
	GetWrestlerStats(ctx context.Context, slug string) ([]model.YearlyStats, error)
	GetWrestlerMatches(ctx context.Context, slug string, year *int, tournamentID string, page, pageSize int) (*person.MatchPage, error)
}

// PersonHandler は人物関連のHTTPハンドラー。
type PersonHandler struct {
	service PersonServiceInterface
}

// NewPersonHandler はPersonHandlerを生成する。
func NewPersonHandler(service PersonServiceInterface) *PersonHandler {
	return &PersonHandler{service: service}
}

// yearlyStatsResponse は年度別成績のレスポンス。
type yearlyStatsResponse struct {
	Year        *int `json:"year"`
	WeightClass *int `json:"weight_class"`
	Wins        int  `json:"wins"`
	Matches     int  `json:"matches"`
	Placement   *int `json:"placement"`
}

// matchEntryResponse は試合履歴1件のレスポンス。
type matchEntryResponse struct {
	MatchID            string `json:"match_id"`
	Year               *int   `json:"year"`
	WeightClass        string `json:"weight_class"`
	Round              string `json:"round"`
	IsWinner           bool   `json:"is_winner"`
	OpponentName       string `json:"opponent_name"`
	OpponentSlug       string `json:"opponent_slug"`
	OpponentSchoolName string `json:"opponent_school_name"`
	ResultType         string `json:"result_type"`
	Score              string `json:"score"`
	TournamentID       string `json:"tournament_id"`
	TournamentName     string `json:"tournament_name"`
	TournamentYear     *int   `json:"tournament_year"`
}

// matchPageResponse は試合履歴のページングレスポンス。
type matchPageResponse struct {
	Matches  []matchEntryResponse `json:"matches"`
	Total    int                  `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
}

func toMatchEntryResponse(entry model.MatchHistoryEntry) matchEntryResponse {
	return matchEntryResponse{
		MatchID:            entry.MatchID,
		Year:               entry.Year,
		WeightClass:        entry.WeightClass,
		Round:              entry.Round,
		IsWinner:           entry.IsWinner,
		OpponentName:       entry.OpponentName,
		OpponentSlug:       entry.OpponentSlug,
		OpponentSchoolName: entry.OpponentSchoolName,
		ResultType:         entry.ResultType,
		Score:              entry.Score,
		TournamentID:       entry.TournamentID,
		TournamentName:     entry.TournamentName,
		TournamentYear:     entry.TournamentYear,
	}
}

// GetProfile は人物のプロフィールを返す。
// GET /api/v1/person/{slug}
func (h *PersonHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	profile, err := h.service.GetProfile(r.Context(), slug)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, profile)
}

// GetWrestlerStats はレスラーの年度別成績を返す。
// GET /api/v1/person/{slug}/wrestler/stats
func (h *PersonHandler) GetWrestlerStats(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	stats, err := h.service.GetWrestlerStats(r.Context(), slug)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]yearlyStatsResponse, len(stats))
	for i, s := range stats {
		resp[i] = yearlyStatsResponse{
			Year:        s.Year,
			WeightClass: s.WeightClass,
			Wins:        s.Wins,
			Matches:     s.Matches,
			Placement:   s.Placement,
		}
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

// GetWrestlerMatches はレスラーの試合履歴をページ分割して返す。
// GET /api/v1/person/{slug}/wrestler/matches
func (h *PersonHandler) GetWrestlerMatches(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	query := r.URL.Query()

	var year *int
	if raw := query.Get("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidQueryError("year must be an integer"))
			return
		}
		year = &v
	}

	tournamentID := query.Get("tournament_id")

	page, err := intQueryParam(query.Get("page"), 1)
	if err != nil || page < 1 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidQueryError("page must be an integer greater than or equal to 1"))
		return
	}

	pageSize, err := intQueryParam(query.Get("page_size"), 20)
	if err != nil || pageSize < 1 || pageSize > 100 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidQueryError("page_size must be an integer between 1 and 100"))
		return
	}

	matches, err := h.service.GetWrestlerMatches(r.Context(), slug, year, tournamentID, page, pageSize)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := matchPageResponse{
		Matches:  make([]matchEntryResponse, len(matches.Matches)),
		Total:    matches.Total,
		Page:     matches.Page,
		PageSize: matches.PageSize,
	}
	for i, entry := range matches.Matches {
		resp.Matches[i] = toMatchEntryResponse(entry)
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

// intQueryParam は整数クエリパラメータをパースする。
// 空文字の場合はデフォルト値を返す。
func intQueryParam(raw string, defaultValue int) (int, error) {
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid integer parameter: %w", err)
	}
	return v, nil
}
