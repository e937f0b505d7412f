// Package model はドメインモデルを定義する。
package model

import "time"

// Person は選手・コーチ等の人物を表す。
type Person struct {
	PersonID      string
	Slug          string
	FirstName     string
	LastName      string
	SearchName    string
	DateOfBirth   *time.Time
	CityOfOrigin  string
	StateOfOrigin string
}

// Role は人物に紐づく役割を表す。
// 1人の人物が複数の役割（wrestlerかつcoach等）を持ちうる。
type Role struct {
	RoleID    string
	PersonID  string
	RoleType  RoleType
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// RoleType は役割種別を表す。
type RoleType string

const (
	// RoleTypeWrestler は選手。
	RoleTypeWrestler RoleType = "wrestler"
	// RoleTypeCoach はコーチ。
	RoleTypeCoach RoleType = "coach"
	// RoleTypeAdmin は管理者。
	RoleTypeAdmin RoleType = "admin"
	// RoleTypeModerator はモデレーター。
	RoleTypeModerator RoleType = "moderator"
	// RoleTypeEditor は編集者。
	RoleTypeEditor RoleType = "editor"
)

// Participant は大会への出場記録を表す。
// role・tournament・school・personを結びつける。
type Participant struct {
	ParticipantID string
	RoleID        string
	TournamentID  string
	SchoolID      string
	PersonID      string
	Year          *int
	WeightClass   string
	Seed          string
}
