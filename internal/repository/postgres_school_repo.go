package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/matiq/matiq-api/internal/model"
)

// PostgresSchoolRepo はPostgreSQLを使用した学校リポジトリ。
type PostgresSchoolRepo struct {
	db *sql.DB
}

// NewPostgresSchoolRepo はPostgresSchoolRepoを生成する。
func NewPostgresSchoolRepo(db *sql.DB) *PostgresSchoolRepo {
	return &PostgresSchoolRepo{db: db}
}

// scanSchool は1行を読み取ってSchoolを構築する。
func scanSchool(row interface{ Scan(...any) error }) (*model.School, error) {
	school := &model.School{}
	var location, mascot, schoolType, schoolURL sql.NullString

	if err := row.Scan(
		&school.SchoolID, &school.Slug, &school.Name,
		&location, &mascot, &schoolType, &schoolURL,
	); err != nil {
		return nil, err
	}

	school.Location = nullStringValue(location)
	school.Mascot = nullStringValue(mascot)
	school.SchoolType = nullStringValue(schoolType)
	school.SchoolURL = nullStringValue(schoolURL)
	return school, nil
}

// FindBySlug は指定slugの学校を取得する。見つからない場合はnilを返す。
func (r *PostgresSchoolRepo) FindBySlug(ctx context.Context, slug string) (*model.School, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT school_id, slug, name, location, mascot, school_type, school_url
		 FROM school WHERE slug = $1`,
		slug,
	)

	school, err := scanSchool(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("学校の取得に失敗しました: %w", err)
	}
	return school, nil
}

// SlugExists は指定slugの学校が存在するかを返す。
func (r *PostgresSchoolRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM school WHERE slug = $1)`,
		slug,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("slugの確認に失敗しました: %w", err)
	}
	return exists, nil
}

// List は学校を一覧する。limit/offsetでページングする。
func (r *PostgresSchoolRepo) List(ctx context.Context, limit, offset int) ([]model.School, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT school_id, slug, name, location, mascot, school_type, school_url
		 FROM school
		 ORDER BY name
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("学校一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var schools []model.School
	for rows.Next() {
		school, err := scanSchool(rows)
		if err != nil {
			return nil, fmt.Errorf("学校の読み取りに失敗しました: %w", err)
		}
		schools = append(schools, *school)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("学校一覧の走査に失敗しました: %w", err)
	}

	return schools, nil
}

// Create は学校を作成する。
func (r *PostgresSchoolRepo) Create(ctx context.Context, school *model.School) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO school (school_id, slug, name, location, mascot, school_type, school_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		school.SchoolID, school.Slug, school.Name,
		nullString(school.Location), nullString(school.Mascot),
		nullString(school.SchoolType), nullString(school.SchoolURL),
	)
	if err != nil {
		return fmt.Errorf("学校の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は学校情報を更新する。
func (r *PostgresSchoolRepo) Update(ctx context.Context, school *model.School) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE school SET
		    name = $2, location = $3, mascot = $4,
		    school_type = $5, school_url = $6
		 WHERE school_id = $1`,
		school.SchoolID, school.Name,
		nullString(school.Location), nullString(school.Mascot),
		nullString(school.SchoolType), nullString(school.SchoolURL),
	)
	if err != nil {
		return fmt.Errorf("学校の更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDの学校を削除する。
func (r *PostgresSchoolRepo) DeleteByID(ctx context.Context, schoolID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM school WHERE school_id = $1`,
		schoolID,
	)
	if err != nil {
		return fmt.Errorf("学校の削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SchoolRepository = (*PostgresSchoolRepo)(nil)
