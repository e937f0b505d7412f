package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matiq/matiq-api/internal/model"
)

// SchoolServiceInterface は学校サービスのインターフェース。
type SchoolServiceInterface interface {
	Get(ctx context.Context, slug string) (*model.School, error)
	List(ctx context.Context, limit, offset int) ([]model.School, error)
	Create(ctx context.Context, input model.SchoolCreate) (*model.School, error)
	Update(ctx context.Context, slug string, input model.SchoolUpdate) (*model.School, error)
	Delete(ctx context.Context, slug string) error
}

// SchoolHandler は学校関連のHTTPハンドラー。
type SchoolHandler struct {
	service SchoolServiceInterface
}

// NewSchoolHandler はSchoolHandlerを生成する。
func NewSchoolHandler(service SchoolServiceInterface) *SchoolHandler {
	return &SchoolHandler{service: service}
}

// schoolCreateRequest は学校作成リクエストのボディ。
type schoolCreateRequest struct {
	Name       string `json:"name"`
	Location   string `json:"location"`
	Mascot     string `json:"mascot"`
	SchoolType string `json:"school_type"`
	SchoolURL  string `json:"school_url"`
}

// schoolUpdateRequest は学校部分更新リクエストのボディ。
// 省略されたフィールドは変更しない。
type schoolUpdateRequest struct {
	Name       *string `json:"name"`
	Location   *string `json:"location"`
	Mascot     *string `json:"mascot"`
	SchoolType *string `json:"school_type"`
	SchoolURL  *string `json:"school_url"`
}

// schoolResponse は学校情報のレスポンス。
type schoolResponse struct {
	SchoolID   string `json:"school_id"`
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	Location   string `json:"location"`
	Mascot     string `json:"mascot"`
	SchoolType string `json:"school_type"`
	SchoolURL  string `json:"school_url"`
}

// schoolListResponse は学校一覧のレスポンス。
type schoolListResponse struct {
	Schools []schoolResponse `json:"schools"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

func toSchoolResponse(school *model.School) schoolResponse {
	return schoolResponse{
		SchoolID:   school.SchoolID,
		Slug:       school.Slug,
		Name:       school.Name,
		Location:   school.Location,
		Mascot:     school.Mascot,
		SchoolType: school.SchoolType,
		SchoolURL:  school.SchoolURL,
	}
}

// Get は学校の詳細を返す。
// GET /api/v1/school/{slug}
func (h *SchoolHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	school, err := h.service.Get(r.Context(), slug)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toSchoolResponse(school))
}

// List は学校の一覧を返す。
// GET /api/v1/school
func (h *SchoolHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit, err := intQueryParam(query.Get("limit"), 50)
	if err != nil || limit < 1 || limit > 100 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidQueryError("limit must be an integer between 1 and 100"))
		return
	}

	offset, err := intQueryParam(query.Get("offset"), 0)
	if err != nil || offset < 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidQueryError("offset must be an integer greater than or equal to 0"))
		return
	}

	schools, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := schoolListResponse{
		Schools: make([]schoolResponse, len(schools)),
		Limit:   limit,
		Offset:  offset,
	}
	for i := range schools {
		resp.Schools[i] = toSchoolResponse(&schools[i])
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

// Create は学校を新規作成する。
// POST /api/v1/school
func (h *SchoolHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req schoolCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}
	if req.Name == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	school, err := h.service.Create(r.Context(), model.SchoolCreate{
		Name:       req.Name,
		Location:   req.Location,
		Mascot:     req.Mascot,
		SchoolType: req.SchoolType,
		SchoolURL:  req.SchoolURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toSchoolResponse(school))
}

// Update は学校の情報を部分更新する。
// PUT /api/v1/school/{slug}
func (h *SchoolHandler) Update(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var req schoolUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	school, err := h.service.Update(r.Context(), slug, model.SchoolUpdate{
		Name:       req.Name,
		Location:   req.Location,
		Mascot:     req.Mascot,
		SchoolType: req.SchoolType,
		SchoolURL:  req.SchoolURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toSchoolResponse(school))
}

// Delete は学校を削除する。
// DELETE /api/v1/school/{slug}
func (h *SchoolHandler) Delete(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	if err := h.service.Delete(r.Context(), slug); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
