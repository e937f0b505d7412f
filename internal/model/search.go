// Package model はドメインモデルを定義する。
package model

// PersonSearchRow は人物検索クエリの1行を表す。
// 人物と最新の出場記録（学校・年度・階級）を結合した結果。
type PersonSearchRow struct {
	PersonID    string
	SearchName  string
	RoleType    string
	Year        *int
	SchoolName  string
	WeightClass string
}

// PersonSearchResult は人物のオートコンプリート候補を表す。
type PersonSearchResult struct {
	PersonID       string `json:"person_id"`
	SearchName     string `json:"search_name"`
	PrimaryDisplay string `json:"primary_display"`
	Metadata       string `json:"metadata"`
}

// SchoolSearchResult は学校のオートコンプリート候補を表す。
type SchoolSearchResult struct {
	SchoolID       string `json:"school_id"`
	Name           string `json:"name"`
	PrimaryDisplay string `json:"primary_display"`
	Metadata       string `json:"metadata"`
}

// TournamentSearchResult は大会のオートコンプリート候補を表す。
type TournamentSearchResult struct {
	TournamentID   string `json:"tournament_id"`
	Name           string `json:"name"`
	PrimaryDisplay string `json:"primary_display"`
	Metadata       string `json:"metadata"`
}
