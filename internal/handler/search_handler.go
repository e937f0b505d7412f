package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/matiq/matiq-api/internal/model"
	"github.com/matiq/matiq-api/internal/search"
)

// SearchServiceInterface は横断検索サービスのインターフェース。
type SearchServiceInterface interface {
	Search(ctx context.Context, query string, limit int) (*search.Results, error)
}

// SearchHandler は横断検索のHTTPハンドラー。
type SearchHandler struct {
	service SearchServiceInterface
}

// NewSearchHandler はSearchHandlerを生成する。
func NewSearchHandler(service SearchServiceInterface) *SearchHandler {
	return &SearchHandler{service: service}
}

// searchResponse は横断検索のレスポンス。
// resultsには人物・学校・大会の候補を連結して格納する。
type searchResponse struct {
	Query        string `json:"query"`
	Results      []any  `json:"results"`
	TotalResults int    `json:"total_results"`
}

// Global は人物・学校・大会の横断検索を処理する。
// GET /api/v1/search
func (h *SearchHandler) Global(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	q := strings.TrimSpace(query.Get("q"))
	if q == "" || len(q) > 100 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidQueryError("q must be between 1 and 100 characters"))
		return
	}

	limit, err := intQueryParam(query.Get("limit"), 20)
	if err != nil || limit < 1 || limit > 100 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidQueryError("limit must be an integer between 1 and 100"))
		return
	}

	results, err := h.service.Search(r.Context(), q, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	combined := make([]any, 0, results.Total())
	for _, p := range results.Persons {
		combined = append(combined, p)
	}
	for _, s := range results.Schools {
		combined = append(combined, s)
	}
	for _, t := range results.Tournaments {
		combined = append(combined, t)
	}

	writeJSONResponse(w, http.StatusOK, searchResponse{
		Query:        q,
		Results:      combined,
		TotalResults: results.Total(),
	})
}
