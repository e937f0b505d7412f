// Package search は人物・学校・大会の横断検索を提供する。
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/matiq/matiq-api/internal/model"
	"github.com/matiq/matiq-api/internal/repository"
)

// Results は横断検索の結果セット。
type Results struct {
	Persons     []model.PersonSearchResult
	Schools     []model.SchoolSearchResult
	Tournaments []model.TournamentSearchResult
}

// Total は全カテゴリの合計件数を返す。
func (r *Results) Total() int {
	return len(r.Persons) + len(r.Schools) + len(r.Tournaments)
}

// Service は横断検索のサービス層。
type Service struct {
	searchRepo repository.SearchRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(searchRepo repository.SearchRepository) *Service {
	return &Service{searchRepo: searchRepo}
}

// Search は人物・学校・大会を横断検索し、表示用メタデータ付きの候補を返す。
// limitは各カテゴリごとに適用される。
func (s *Service) Search(ctx context.Context, query string, limit int) (*Results, error) {
	persons, err := s.searchPersons(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	schools, err := s.searchSchools(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	tournaments, err := s.searchTournaments(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	return &Results{
		Persons:     persons,
		Schools:     schools,
		Tournaments: tournaments,
	}, nil
}

func (s *Service) searchPersons(ctx context.Context, query string, limit int) ([]model.PersonSearchResult, error) {
	rows, err := s.searchRepo.SearchPersons(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("人物検索に失敗しました: %w", err)
	}

	results := make([]model.PersonSearchResult, len(rows))
	for i, row := range rows {
		results[i] = model.PersonSearchResult{
			PersonID:       row.PersonID,
			SearchName:     row.SearchName,
			PrimaryDisplay: row.SearchName,
			Metadata:       personMetadata(row),
		}
	}
	return results, nil
}

func (s *Service) searchSchools(ctx context.Context, query string, limit int) ([]model.SchoolSearchResult, error) {
	schools, err := s.searchRepo.SearchSchools(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("学校検索に失敗しました: %w", err)
	}

	results := make([]model.SchoolSearchResult, len(schools))
	for i, school := range schools {
		var parts []string
		if school.Location != "" {
			parts = append(parts, school.Location)
		}
		if school.SchoolType != "" {
			parts = append(parts, school.SchoolType)
		}
		metadata := "School"
		if len(parts) > 0 {
			metadata = strings.Join(parts, " • ")
		}

		results[i] = model.SchoolSearchResult{
			SchoolID:       school.SchoolID,
			Name:           school.Name,
			PrimaryDisplay: school.Name,
			Metadata:       metadata,
		}
	}
	return results, nil
}

func (s *Service) searchTournaments(ctx context.Context, query string, limit int) ([]model.TournamentSearchResult, error) {
	tournaments, err := s.searchRepo.SearchTournaments(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("大会検索に失敗しました: %w", err)
	}

	results := make([]model.TournamentSearchResult, len(tournaments))
	for i, t := range tournaments {
		var parts []string
		if !t.Date.IsZero() {
			parts = append(parts, t.Date.Format("January 2, 2006"))
		}
		if t.Location != "" {
			parts = append(parts, t.Location)
		}
		metadata := "Tournament"
		if len(parts) > 0 {
			metadata = strings.Join(parts, " • ")
		}

		results[i] = model.TournamentSearchResult{
			TournamentID:   t.TournamentID,
			Name:           t.Name,
			PrimaryDisplay: t.Name,
			Metadata:       metadata,
		}
	}
	return results, nil
}

// personMetadata は人物候補の補足表示を組み立てる。
// 例: "Wrestler at Iowa State (2023, 165 lbs)"
func personMetadata(row model.PersonSearchRow) string {
	role := "Participant"
	if row.RoleType != "" {
		role = strings.ToUpper(row.RoleType[:1]) + row.RoleType[1:]
	}
	metadata := fmt.Sprintf("%s at %s", role, row.SchoolName)

	if row.Year != nil {
		yearInfo := fmt.Sprintf(" (%d", *row.Year)
		if row.RoleType == string(model.RoleTypeWrestler) && row.WeightClass != "" {
			yearInfo += fmt.Sprintf(", %s lbs", row.WeightClass)
		}
		yearInfo += ")"
		metadata += yearInfo
	}
	return metadata
}
