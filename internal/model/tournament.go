// Package model はドメインモデルを定義する。
package model

import "time"

// Tournament は大会を表す。
type Tournament struct {
	TournamentID string
	Slug         string
	Name         string
	Date         time.Time
	Year         *int
	Location     string
}
