package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matiq/matiq-api/internal/model"
	"github.com/matiq/matiq-api/internal/search"
)

// mockSearchService はSearchServiceInterfaceのモック実装。
type mockSearchService struct {
	searchFn func(ctx context.Context, query string, limit int) (*search.Results, error)
}

func (m *mockSearchService) Search(ctx context.Context, query string, limit int) (*search.Results, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return &search.Results{}, nil
}

func TestSearchHandler_Global_Success(t *testing.T) {
	svc := &mockSearchService{
		searchFn: func(ctx context.Context, query string, limit int) (*search.Results, error) {
			if query != "iowa" {
				t.Errorf("query = %q, want iowa", query)
			}
			if limit != 20 {
				t.Errorf("limit = %d, want 20", limit)
			}
			return &search.Results{
				Persons: []model.PersonSearchResult{
					{PersonID: "person-1", SearchName: "John Iowa", PrimaryDisplay: "John Iowa", Metadata: "Wrestler at Iowa State (2023, 165 lbs)"},
				},
				Schools: []model.SchoolSearchResult{
					{SchoolID: "school-1", Name: "Iowa State", PrimaryDisplay: "Iowa State", Metadata: "Ames, IA • college"},
				},
				Tournaments: []model.TournamentSearchResult{
					{TournamentID: "tournament-1", Name: "Iowa Open", PrimaryDisplay: "Iowa Open", Metadata: "March 4, 2023 • Des Moines"},
				},
			}, nil
		},
	}
	h := NewSearchHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=iowa", nil)
	w := httptest.NewRecorder()

	h.Global(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["query"] != "iowa" {
		t.Errorf("query = %v, want iowa", resp["query"])
	}
	if resp["total_results"] != float64(3) {
		t.Errorf("total_results = %v, want 3", resp["total_results"])
	}
	results, ok := resp["results"].([]any)
	if !ok || len(results) != 3 {
		t.Fatalf("results = %v, want 3 entries", resp["results"])
	}

	// 人物→学校→大会の順で連結される
	first, ok := results[0].(map[string]any)
	if !ok || first["person_id"] != "person-1" {
		t.Errorf("results[0] = %v, want person entry", results[0])
	}
	last, ok := results[2].(map[string]any)
	if !ok || last["tournament_id"] != "tournament-1" {
		t.Errorf("results[2] = %v, want tournament entry", results[2])
	}
}

func TestSearchHandler_Global_TrimsQuery(t *testing.T) {
	svc := &mockSearchService{
		searchFn: func(ctx context.Context, query string, limit int) (*search.Results, error) {
			if query != "iowa" {
				t.Errorf("query = %q, want trimmed iowa", query)
			}
			return &search.Results{}, nil
		},
	}
	h := NewSearchHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=%20iowa%20", nil)
	w := httptest.NewRecorder()

	h.Global(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestSearchHandler_Global_InvalidParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"missing q", ""},
		{"empty q", "q="},
		{"whitespace q", "q=%20%20"},
		{"q too long", "q=" + strings.Repeat("a", 101)},
		{"limit below 1", "q=iowa&limit=0"},
		{"limit above 100", "q=iowa&limit=101"},
		{"non-numeric limit", "q=iowa&limit=many"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &mockSearchService{
				searchFn: func(ctx context.Context, query string, limit int) (*search.Results, error) {
					called = true
					return &search.Results{}, nil
				},
			}
			h := NewSearchHandler(svc)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/search?"+tt.query, nil)
			w := httptest.NewRecorder()

			h.Global(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if called {
				t.Error("service should not be called on invalid query")
			}
			body := parseAPIErrorResponse(t, w)
			if body["code"] != model.ErrCodeInvalidQuery {
				t.Errorf("code = %q, want %q", body["code"], model.ErrCodeInvalidQuery)
			}
		})
	}
}

func TestSearchHandler_Global_EmptyResults(t *testing.T) {
	h := NewSearchHandler(&mockSearchService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=zzz", nil)
	w := httptest.NewRecorder()

	h.Global(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["total_results"] != float64(0) {
		t.Errorf("total_results = %v, want 0", resp["total_results"])
	}
	results, ok := resp["results"].([]any)
	if !ok || len(results) != 0 {
		t.Errorf("results = %v, want empty array", resp["results"])
	}
}
