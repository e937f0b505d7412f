// Package model はドメインモデルを定義する。
package model

// School は学校を表す。
type School struct {
	SchoolID   string
	Slug       string
	Name       string
	Location   string
	Mascot     string
	SchoolType string
	SchoolURL  string
}

// SchoolCreate は学校の新規作成入力を表す。
// SchoolIDとSlugはサービス層で採番する。
type SchoolCreate struct {
	Name       string
	Location   string
	Mascot     string
	SchoolType string
	SchoolURL  string
}

// SchoolUpdate は学校の部分更新入力を表す。
// nilフィールドは変更しない。
type SchoolUpdate struct {
	Name       *string
	Location   *string
	Mascot     *string
	SchoolType *string
	SchoolURL  *string
}
