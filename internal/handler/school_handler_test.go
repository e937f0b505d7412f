package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matiq/matiq-api/internal/model"
)

// mockSchoolService はSchoolServiceInterfaceのモック実装。
type mockSchoolService struct {
	getFn    func(ctx context.Context, slug string) (*model.School, error)
	listFn   func(ctx context.Context, limit, offset int) ([]model.School, error)
	createFn func(ctx context.Context, input model.SchoolCreate) (*model.School, error)
	updateFn func(ctx context.Context, slug string, input model.SchoolUpdate) (*model.School, error)
	deleteFn func(ctx context.Context, slug string) error
}

func (m *mockSchoolService) Get(ctx context.Context, slug string) (*model.School, error) {
	if m.getFn != nil {
		return m.getFn(ctx, slug)
	}
	return nil, nil
}

func (m *mockSchoolService) List(ctx context.Context, limit, offset int) ([]model.School, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockSchoolService) Create(ctx context.Context, input model.SchoolCreate) (*model.School, error) {
	if m.createFn != nil {
		return m.createFn(ctx, input)
	}
	return nil, nil
}

func (m *mockSchoolService) Update(ctx context.Context, slug string, input model.SchoolUpdate) (*model.School, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, slug, input)
	}
	return nil, nil
}

func (m *mockSchoolService) Delete(ctx context.Context, slug string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, slug)
	}
	return nil
}

// --- GET /api/v1/school/{slug} テスト ---

func TestSchoolHandler_Get_Success(t *testing.T) {
	svc := &mockSchoolService{
		getFn: func(ctx context.Context, slug string) (*model.School, error) {
			return &model.School{
				SchoolID:   "school-1",
				Slug:       "iowa-state",
				Name:       "Iowa State",
				Location:   "Ames, IA",
				SchoolType: "college",
			}, nil
		},
	}
	h := NewSchoolHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/school/iowa-state", nil)
	req = withChiURLParam(req, "slug", "iowa-state")
	w := httptest.NewRecorder()

	h.Get(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["slug"] != "iowa-state" {
		t.Errorf("slug = %v, want iowa-state", resp["slug"])
	}
	if resp["school_type"] != "college" {
		t.Errorf("school_type = %v, want college", resp["school_type"])
	}
}

func TestSchoolHandler_Get_NotFound(t *testing.T) {
	svc := &mockSchoolService{
		getFn: func(ctx context.Context, slug string) (*model.School, error) {
			return nil, model.NewSchoolNotFoundError(slug)
		},
	}
	h := NewSchoolHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/school/nowhere", nil)
	req = withChiURLParam(req, "slug", "nowhere")
	w := httptest.NewRecorder()

	h.Get(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	body := parseAPIErrorResponse(t, w)
	if body["code"] != model.ErrCodeSchoolNotFound {
		t.Errorf("code = %q, want %q", body["code"], model.ErrCodeSchoolNotFound)
	}
}

// --- GET /api/v1/school テスト ---

func TestSchoolHandler_List_DefaultParams(t *testing.T) {
	svc := &mockSchoolService{
		listFn: func(ctx context.Context, limit, offset int) ([]model.School, error) {
			if limit != 50 {
				t.Errorf("limit = %d, want 50", limit)
			}
			if offset != 0 {
				t.Errorf("offset = %d, want 0", offset)
			}
			return []model.School{
				{SchoolID: "school-1", Slug: "iowa-state", Name: "Iowa State"},
				{SchoolID: "school-2", Slug: "penn-state", Name: "Penn State"},
			}, nil
		},
	}
	h := NewSchoolHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/school", nil)
	w := httptest.NewRecorder()

	h.List(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	schools, ok := resp["schools"].([]any)
	if !ok || len(schools) != 2 {
		t.Fatalf("schools = %v, want 2 entries", resp["schools"])
	}
}

func TestSchoolHandler_List_InvalidParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"limit below 1", "limit=0"},
		{"limit above 100", "limit=101"},
		{"non-numeric limit", "limit=ten"},
		{"negative offset", "offset=-1"},
		{"non-numeric offset", "offset=x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSchoolHandler(&mockSchoolService{})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/school?"+tt.query, nil)
			w := httptest.NewRecorder()

			h.List(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

// --- POST /api/v1/school テスト ---

func TestSchoolHandler_Create_Success(t *testing.T) {
	svc := &mockSchoolService{
		createFn: func(ctx context.Context, input model.SchoolCreate) (*model.School, error) {
			if input.Name != "Lincoln High" {
				t.Errorf("name = %q, want Lincoln High", input.Name)
			}
			return &model.School{
				SchoolID: "school-new",
				Slug:     "lincoln-high",
				Name:     input.Name,
				Location: input.Location,
			}, nil
		},
	}
	h := NewSchoolHandler(svc)

	body := bytes.NewBufferString(`{"name":"Lincoln High","location":"Des Moines, IA"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/school", body)
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["slug"] != "lincoln-high" {
		t.Errorf("slug = %v, want lincoln-high", resp["slug"])
	}
}

func TestSchoolHandler_Create_InvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "not-json"},
		{"missing name", `{"location":"Somewhere"}`},
		{"empty name", `{"name":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSchoolHandler(&mockSchoolService{})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/school", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			h.Create(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			body := parseAPIErrorResponse(t, w)
			if body["code"] != model.ErrCodeInvalidRequest {
				t.Errorf("code = %q, want %q", body["code"], model.ErrCodeInvalidRequest)
			}
		})
	}
}

// --- PUT /api/v1/school/{slug} テスト ---

func TestSchoolHandler_Update_PartialFields(t *testing.T) {
	svc := &mockSchoolService{
		updateFn: func(ctx context.Context, slug string, input model.SchoolUpdate) (*model.School, error) {
			if slug != "iowa-state" {
				t.Errorf("slug = %q, want iowa-state", slug)
			}
			if input.Name == nil || *input.Name != "Iowa State University" {
				t.Errorf("name = %v, want Iowa State University", input.Name)
			}
			if input.Location != nil {
				t.Errorf("location = %v, want nil", *input.Location)
			}
			return &model.School{
				SchoolID: "school-1",
				Slug:     "iowa-state",
				Name:     "Iowa State University",
			}, nil
		},
	}
	h := NewSchoolHandler(svc)

	body := bytes.NewBufferString(`{"name":"Iowa State University"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/school/iowa-state", body)
	req = withChiURLParam(req, "slug", "iowa-state")
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestSchoolHandler_Update_NotFound(t *testing.T) {
	svc := &mockSchoolService{
		updateFn: func(ctx context.Context, slug string, input model.SchoolUpdate) (*model.School, error) {
			return nil, model.NewSchoolNotFoundError(slug)
		},
	}
	h := NewSchoolHandler(svc)

	body := bytes.NewBufferString(`{"name":"Ghost School"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/school/nowhere", body)
	req = withChiURLParam(req, "slug", "nowhere")
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// --- DELETE /api/v1/school/{slug} テスト ---

func TestSchoolHandler_Delete_Success(t *testing.T) {
	deleted := false
	svc := &mockSchoolService{
		deleteFn: func(ctx context.Context, slug string) error {
			deleted = true
			if slug != "iowa-state" {
				t.Errorf("slug = %q, want iowa-state", slug)
			}
			return nil
		},
	}
	h := NewSchoolHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/school/iowa-state", nil)
	req = withChiURLParam(req, "slug", "iowa-state")
	w := httptest.NewRecorder()

	h.Delete(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if !deleted {
		t.Error("delete was not called")
	}
	if w.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", w.Body.String())
	}
}

func TestSchoolHandler_Delete_NotFound(t *testing.T) {
	svc := &mockSchoolService{
		deleteFn: func(ctx context.Context, slug string) error {
			return model.NewSchoolNotFoundError(slug)
		},
	}
	h := NewSchoolHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/school/nowhere", nil)
	req = withChiURLParam(req, "slug", "nowhere")
	w := httptest.NewRecorder()

	h.Delete(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
