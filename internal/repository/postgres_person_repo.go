package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/matiq/matiq-api/internal/model"
)

// PostgresPersonRepo はPostgreSQLを使用した人物リポジトリ。
type PostgresPersonRepo struct {
	db *sql.DB
}

// NewPostgresPersonRepo はPostgresPersonRepoを生成する。
func NewPostgresPersonRepo(db *sql.DB) *PostgresPersonRepo {
	return &PostgresPersonRepo{db: db}
}

// FindBySlug は指定slugの人物を取得する。見つからない場合はnilを返す。
func (r *PostgresPersonRepo) FindBySlug(ctx context.Context, slug string) (*model.Person, error) {
	person := &model.Person{}
	var searchName, cityOfOrigin, stateOfOrigin sql.NullString
	var dateOfBirth sql.NullTime

	err := r.db.QueryRowContext(ctx,
		`SELECT person_id, slug, first_name, last_name, search_name,
		        date_of_birth, city_of_origin, state_of_origin
		 FROM person WHERE slug = $1`,
		slug,
	).Scan(
		&person.PersonID, &person.Slug, &person.FirstName, &person.LastName,
		&searchName, &dateOfBirth, &cityOfOrigin, &stateOfOrigin,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("人物の取得に失敗しました: %w", err)
	}

	person.SearchName = nullStringValue(searchName)
	person.CityOfOrigin = nullStringValue(cityOfOrigin)
	person.StateOfOrigin = nullStringValue(stateOfOrigin)
	if dateOfBirth.Valid {
		person.DateOfBirth = &dateOfBirth.Time
	}

	return person, nil
}

// FindRolesByPersonID は指定人物の全役割を取得する。
func (r *PostgresPersonRepo) FindRolesByPersonID(ctx context.Context, personID string) ([]model.Role, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT role_id, person_id, role_type, created_at, updated_at
		 FROM role WHERE person_id = $1
		 ORDER BY created_at`,
		personID,
	)
	if err != nil {
		return nil, fmt.Errorf("役割の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		var role model.Role
		var updatedAt sql.NullTime
		if err := rows.Scan(&role.RoleID, &role.PersonID, &role.RoleType, &role.CreatedAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("役割の読み取りに失敗しました: %w", err)
		}
		if updatedAt.Valid {
			role.UpdatedAt = &updatedAt.Time
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("役割の走査に失敗しました: %w", err)
	}

	return roles, nil
}

// HasWrestlerRole は指定slugの人物がwrestler役割を持つかを返す。
func (r *PostgresPersonRepo) HasWrestlerRole(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		    SELECT 1
		    FROM person p
		    JOIN role r ON p.person_id = r.person_id
		    WHERE p.slug = $1 AND r.role_type = 'wrestler'
		 )`,
		slug,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("wrestler役割の確認に失敗しました: %w", err)
	}
	return exists, nil
}

// nullString は空文字をNULLに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// nullIntValue はsql.NullInt64からintポインタを取得する。
func nullIntValue(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}

// compile-time interface check
var _ PersonRepository = (*PostgresPersonRepo)(nil)
