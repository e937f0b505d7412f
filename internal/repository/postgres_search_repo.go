package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/matiq/matiq-api/internal/model"
)

// PostgresSearchRepo はPostgreSQLを使用した横断検索リポジトリ。
type PostgresSearchRepo struct {
	db *sql.DB
}

// NewPostgresSearchRepo はPostgresSearchRepoを生成する。
func NewPostgresSearchRepo(db *sql.DB) *PostgresSearchRepo {
	return &PostgresSearchRepo{db: db}
}

// SearchPersons は検索名の部分一致で人物を検索する。
// ウィンドウ関数で人物ごとに最新年度の出場記録1件を選ぶ。
func (r *PostgresSearchRepo) SearchPersons(ctx context.Context, query string, limit int) ([]model.PersonSearchRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT person_id, search_name, role_type, year, school_name, weight_class
		 FROM (
		     SELECT
		         p.person_id,
		         p.search_name,
		         r.role_type,
		         part.year,
		         s.name AS school_name,
		         part.weight_class,
		         ROW_NUMBER() OVER (
		             PARTITION BY p.person_id
		             ORDER BY part.year DESC
		         ) AS row_number
		     FROM person p
		     JOIN role r ON p.person_id = r.person_id
		     JOIN participant part ON r.role_id = part.role_id
		     JOIN school s ON part.school_id = s.school_id
		     WHERE p.search_name ILIKE '%' || $1 || '%'
		 ) ranked
		 WHERE row_number = 1
		 LIMIT $2`,
		query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("人物検索に失敗しました: %w", err)
	}
	defer rows.Close()

	var results []model.PersonSearchRow
	for rows.Next() {
		var row model.PersonSearchRow
		var searchName, roleType, schoolName, weightClass sql.NullString
		var year sql.NullInt64

		if err := rows.Scan(&row.PersonID, &searchName, &roleType, &year, &schoolName, &weightClass); err != nil {
			return nil, fmt.Errorf("人物検索結果の読み取りに失敗しました: %w", err)
		}

		row.SearchName = nullStringValue(searchName)
		row.RoleType = nullStringValue(roleType)
		row.SchoolName = nullStringValue(schoolName)
		row.WeightClass = nullStringValue(weightClass)
		row.Year = nullIntValue(year)

		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("人物検索結果の走査に失敗しました: %w", err)
	}

	return results, nil
}

// SearchSchools は名前の部分一致で学校を検索する。
func (r *PostgresSearchRepo) SearchSchools(ctx context.Context, query string, limit int) ([]model.School, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT school_id, slug, name, location, mascot, school_type, school_url
		 FROM school
		 WHERE name ILIKE '%' || $1 || '%'
		 LIMIT $2`,
		query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("学校検索に失敗しました: %w", err)
	}
	defer rows.Close()

	var schools []model.School
	for rows.Next() {
		school, err := scanSchool(rows)
		if err != nil {
			return nil, fmt.Errorf("学校検索結果の読み取りに失敗しました: %w", err)
		}
		schools = append(schools, *school)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("学校検索結果の走査に失敗しました: %w", err)
	}

	return schools, nil
}

// SearchTournaments は名前の部分一致で大会を検索する。
func (r *PostgresSearchRepo) SearchTournaments(ctx context.Context, query string, limit int) ([]model.Tournament, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tournament_id, slug, name, date, year, location
		 FROM tournament
		 WHERE name ILIKE '%' || $1 || '%'
		 LIMIT $2`,
		query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("大会検索に失敗しました: %w", err)
	}
	defer rows.Close()

	var tournaments []model.Tournament
	for rows.Next() {
		var t model.Tournament
		var slug, location sql.NullString
		var year sql.NullInt64

		if err := rows.Scan(&t.TournamentID, &slug, &t.Name, &t.Date, &year, &location); err != nil {
			return nil, fmt.Errorf("大会検索結果の読み取りに失敗しました: %w", err)
		}

		t.Slug = nullStringValue(slug)
		t.Location = nullStringValue(location)
		t.Year = nullIntValue(year)

		tournaments = append(tournaments, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("大会検索結果の走査に失敗しました: %w", err)
	}

	return tournaments, nil
}

// compile-time interface check
var _ SearchRepository = (*PostgresSearchRepo)(nil)
