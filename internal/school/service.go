// Package school は学校管理のドメインロジックを提供する。
package school

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/matiq/matiq-api/internal/model"
	"github.com/matiq/matiq-api/internal/repository"
)

// Service は学校管理のサービス層。
type Service struct {
	schoolRepo repository.SchoolRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(schoolRepo repository.SchoolRepository) *Service {
	return &Service{schoolRepo: schoolRepo}
}

// Get は指定slugの学校を返す。
// 見つからない場合はSCHOOL_NOT_FOUNDエラーを返す。
func (s *Service) Get(ctx context.Context, slug string) (*model.School, error) {
	school, err := s.schoolRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("学校の取得に失敗しました: %w", err)
	}
	if school == nil {
		return nil, model.NewSchoolNotFoundError(slug)
	}
	return school, nil
}

// List は学校を一覧する。
func (s *Service) List(ctx context.Context, limit, offset int) ([]model.School, error) {
	schools, err := s.schoolRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("学校一覧の取得に失敗しました: %w", err)
	}
	return schools, nil
}

// Create は学校を新規作成する。
// school_idはUUIDで採番し、slugは名前から生成する。
// slugが衝突した場合は数値サフィックスで一意化する。
func (s *Service) Create(ctx context.Context, input model.SchoolCreate) (*model.School, error) {
	slug, err := s.uniqueSlug(ctx, Slugify(input.Name))
	if err != nil {
		return nil, err
	}

	school := &model.School{
		SchoolID:   uuid.NewString(),
		Slug:       slug,
		Name:       input.Name,
		Location:   input.Location,
		Mascot:     input.Mascot,
		SchoolType: input.SchoolType,
		SchoolURL:  input.SchoolURL,
	}

	if err := s.schoolRepo.Create(ctx, school); err != nil {
		return nil, fmt.Errorf("学校の作成に失敗しました: %w", err)
	}

	return school, nil
}

// Update は指定slugの学校を部分更新する。
// nilフィールドは変更しない。slugは更新後も変わらない。
func (s *Service) Update(ctx context.Context, slug string, input model.SchoolUpdate) (*model.School, error) {
	school, err := s.schoolRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("学校の取得に失敗しました: %w", err)
	}
	if school == nil {
		return nil, model.NewSchoolNotFoundError(slug)
	}

	if input.Name != nil {
		school.Name = *input.Name
	}
	if input.Location != nil {
		school.Location = *input.Location
	}
	if input.Mascot != nil {
		school.Mascot = *input.Mascot
	}
	if input.SchoolType != nil {
		school.SchoolType = *input.SchoolType
	}
	if input.SchoolURL != nil {
		school.SchoolURL = *input.SchoolURL
	}

	if err := s.schoolRepo.Update(ctx, school); err != nil {
		return nil, fmt.Errorf("学校の更新に失敗しました: %w", err)
	}

	return school, nil
}

// Delete は指定slugの学校を削除する。
func (s *Service) Delete(ctx context.Context, slug string) error {
	school, err := s.schoolRepo.FindBySlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("学校の取得に失敗しました: %w", err)
	}
	if school == nil {
		return model.NewSchoolNotFoundError(slug)
	}

	if err := s.schoolRepo.DeleteByID(ctx, school.SchoolID); err != nil {
		return fmt.Errorf("学校の削除に失敗しました: %w", err)
	}
	return nil
}

// Slugify は学校名からURLスラグを生成する。
// 小文字化し、空白をハイフンに、ピリオドとカンマを除去する。
func Slugify(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, ".", "")
	slug = strings.ReplaceAll(slug, ",", "")
	return slug
}

// uniqueSlug は衝突しないslugを決定する。
// 既存slugと衝突した場合は数値サフィックスを増やしながら探す。
func (s *Service) uniqueSlug(ctx context.Context, base string) (string, error) {
	exists, err := s.schoolRepo.SlugExists(ctx, base)
	if err != nil {
		return "", fmt.Errorf("slugの確認に失敗しました: %w", err)
	}
	if !exists {
		return base, nil
	}

	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s-%d", base, counter)
		exists, err := s.schoolRepo.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("slugの確認に失敗しました: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}
}
