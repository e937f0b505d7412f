// Package model はドメインモデルを定義する。
package model

// MatchHistoryEntry はwrestler_match_historyマテリアライズドビューの1行を表す。
// 選手視点での1試合（対戦相手・結果・大会情報を含む）。
type MatchHistoryEntry struct {
	Slug               string
	Year               *int
	WeightClass        string
	MatchID            string
	TournamentID       string
	Round              string
	RoundOrder         *int
	WrestlerName       string
	WrestlerPersonID   string
	WrestlerSchoolName string
	IsWinner           bool
	OpponentName       string
	OpponentPersonID   string
	OpponentSlug       string
	OpponentSchoolName string
	ResultType         string
	Score              string
	TournamentName     string
	TournamentYear     *int
}

// YearlyStats は選手の年度・階級ごとの集計成績を表す。
// Placementは最終試合の順位決定戦から導出され、決定戦がない場合はnil。
type YearlyStats struct {
	Year        *int
	WeightClass *int
	Wins        int
	Matches     int
	Placement   *int
}
