// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/matiq/matiq-api/internal/model"
)

// PersonRepository は人物データの永続化インターフェース。
type PersonRepository interface {
	// FindBySlug は指定slugの人物を取得する。見つからない場合はnilを返す。
	FindBySlug(ctx context.Context, slug string) (*model.Person, error)

	// FindRolesByPersonID は指定人物の全役割を取得する。
	FindRolesByPersonID(ctx context.Context, personID string) ([]model.Role, error)

	// HasWrestlerRole は指定slugの人物がwrestler役割を持つかを返す。
	HasWrestlerRole(ctx context.Context, slug string) (bool, error)
}

// SchoolRepository は学校データの永続化インターフェース。
type SchoolRepository interface {
	// FindBySlug は指定slugの学校を取得する。見つからない場合はnilを返す。
	FindBySlug(ctx context.Context, slug string) (*model.School, error)

	// SlugExists は指定slugの学校が存在するかを返す。
	SlugExists(ctx context.Context, slug string) (bool, error)

	// List は学校を一覧する。limit/offsetでページングする。
	List(ctx context.Context, limit, offset int) ([]model.School, error)

	// Create は学校を作成する。
	Create(ctx context.Context, school *model.School) error

	// Update は学校情報を更新する。
	Update(ctx context.Context, school *model.School) error

	// DeleteByID は指定IDの学校を削除する。
	DeleteByID(ctx context.Context, schoolID string) error
}

// HistoryFilter は試合履歴の絞り込み条件を表す。
type HistoryFilter struct {
	Year         *int   // 年度で絞り込む。nilは全年度
	TournamentID string // 大会IDで絞り込む。空は全大会
	Limit        int
	Offset       int
}

// MatchRepository は試合データ（マテリアライズドビュー）の読み取りインターフェース。
type MatchRepository interface {
	// History は指定選手の試合履歴をページングして取得する。
	// 総件数もあわせて返す。
	History(ctx context.Context, slug string, filter HistoryFilter) ([]model.MatchHistoryEntry, int, error)

	// YearlyStats は指定選手の年度・階級ごとの集計成績を取得する。
	YearlyStats(ctx context.Context, slug string) ([]model.YearlyStats, error)

	// RefreshHistoryView はマテリアライズドビューを再計算する。
	// CONCURRENTLYで実行するため、更新中も読み取りはブロックされない。
	RefreshHistoryView(ctx context.Context) error
}

// SearchRepository は横断検索の読み取りインターフェース。
type SearchRepository interface {
	// SearchPersons は検索名の部分一致で人物を検索する。
	// 各人物につき最新の出場記録1件を結合して返す。
	SearchPersons(ctx context.Context, query string, limit int) ([]model.PersonSearchRow, error)

	// SearchSchools は名前の部分一致で学校を検索する。
	SearchSchools(ctx context.Context, query string, limit int) ([]model.School, error)

	// SearchTournaments は名前の部分一致で大会を検索する。
	SearchTournaments(ctx context.Context, query string, limit int) ([]model.Tournament, error)
}
