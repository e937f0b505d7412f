// Package person は人物プロフィールと選手成績のドメインロジックを提供する。
package person

import (
	"context"
	"fmt"
	"time"

	"github.com/matiq/matiq-api/internal/model"
	"github.com/matiq/matiq-api/internal/repository"
)

// RoleInfo はプロフィールに含める役割情報。
type RoleInfo struct {
	RoleID   string `json:"role_id"`
	RoleType string `json:"role_type"`
}

// Profile は人物の基本情報と役割一覧を結合したドメインオブジェクト。
// タブ形式のプロフィール画面の土台になる。
type Profile struct {
	PersonID      string     `json:"person_id"`
	Slug          string     `json:"slug"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	SearchName    string     `json:"search_name"`
	DateOfBirth   *time.Time `json:"date_of_birth"`
	CityOfOrigin  string     `json:"city_of_origin"`
	StateOfOrigin string     `json:"state_of_origin"`
	Roles         []RoleInfo `json:"roles"`
}

// MatchPage は試合履歴のページング結果。
type MatchPage struct {
	Matches  []model.MatchHistoryEntry
	Total    int
	Page     int
	PageSize int
}

// Service は人物プロフィールと選手成績のサービス層。
type Service struct {
	personRepo repository.PersonRepository
	matchRepo  repository.MatchRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(personRepo repository.PersonRepository, matchRepo repository.MatchRepository) *Service {
	return &Service{
		personRepo: personRepo,
		matchRepo:  matchRepo,
	}
}

// GetProfile は指定slugの人物プロフィールを役割付きで返す。
// 見つからない場合はPERSON_NOT_FOUNDエラーを返す。
func (s *Service) GetProfile(ctx context.Context, slug string) (*Profile, error) {
	person, err := s.personRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("人物の取得に失敗しました: %w", err)
	}
	if person == nil {
		return nil, model.NewPersonNotFoundError(slug)
	}

	roles, err := s.personRepo.FindRolesByPersonID(ctx, person.PersonID)
	if err != nil {
		return nil, fmt.Errorf("役割の取得に失敗しました: %w", err)
	}

	roleInfos := make([]RoleInfo, len(roles))
	for i, role := range roles {
		roleInfos[i] = RoleInfo{
			RoleID:   role.RoleID,
			RoleType: string(role.RoleType),
		}
	}

	return &Profile{
		PersonID:      person.PersonID,
		Slug:          person.Slug,
		FirstName:     person.FirstName,
		LastName:      person.LastName,
		SearchName:    person.SearchName,
		DateOfBirth:   person.DateOfBirth,
		CityOfOrigin:  person.CityOfOrigin,
		StateOfOrigin: person.StateOfOrigin,
		Roles:         roleInfos,
	}, nil
}

// GetWrestlerStats は指定選手の年度・階級ごとの集計成績を返す。
// 人物が存在しない場合はPERSON_NOT_FOUND、
// wrestler役割を持たない場合はNOT_A_WRESTLERエラーを返す。
func (s *Service) GetWrestlerStats(ctx context.Context, slug string) ([]model.YearlyStats, error) {
	if err := s.requireWrestler(ctx, slug); err != nil {
		return nil, err
	}

	stats, err := s.matchRepo.YearlyStats(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("年度別成績の取得に失敗しました: %w", err)
	}
	return stats, nil
}

// GetWrestlerMatches は指定選手の試合履歴をページングして返す。
// 年度・大会IDでの絞り込みに対応する。
func (s *Service) GetWrestlerMatches(ctx context.Context, slug string, year *int, tournamentID string, page, pageSize int) (*MatchPage, error) {
	if err := s.requireWrestler(ctx, slug); err != nil {
		return nil, err
	}

	filter := repository.HistoryFilter{
		Year:         year,
		TournamentID: tournamentID,
		Limit:        pageSize,
		Offset:       (page - 1) * pageSize,
	}

	entries, total, err := s.matchRepo.History(ctx, slug, filter)
	if err != nil {
		return nil, fmt.Errorf("試合履歴の取得に失敗しました: %w", err)
	}

	return &MatchPage{
		Matches:  entries,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// requireWrestler は人物の存在とwrestler役割を確認する。
func (s *Service) requireWrestler(ctx context.Context, slug string) error {
	person, err := s.personRepo.FindBySlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("人物の取得に失敗しました: %w", err)
	}
	if person == nil {
		return model.NewPersonNotFoundError(slug)
	}

	isWrestler, err := s.personRepo.HasWrestlerRole(ctx, slug)
	if err != nil {
		return fmt.Errorf("wrestler役割の確認に失敗しました: %w", err)
	}
	if !isWrestler {
		return model.NewNotAWrestlerError(slug)
	}
	return nil
}
