package repository

import (
	"database/sql"
	"testing"

	"github.com/matiq/matiq-api/internal/model"
)

// 各Postgres実装が対応するインターフェースを満たすことを検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ PersonRepository = (*PostgresPersonRepo)(nil)
	var _ SchoolRepository = (*PostgresSchoolRepo)(nil)
	var _ MatchRepository = (*PostgresMatchRepo)(nil)
	var _ SearchRepository = (*PostgresSearchRepo)(nil)
}

// 各コンストラクタが正しく初期化されることを検証
func TestNewPostgresRepos_Initialize(t *testing.T) {
	if NewPostgresPersonRepo(nil) == nil {
		t.Fatal("expected non-nil person repo")
	}
	if NewPostgresSchoolRepo(nil) == nil {
		t.Fatal("expected non-nil school repo")
	}
	if NewPostgresMatchRepo(nil) == nil {
		t.Fatal("expected non-nil match repo")
	}
	if NewPostgresSearchRepo(nil) == nil {
		t.Fatal("expected non-nil search repo")
	}
}

func TestNullString_EmptyBecomesNull(t *testing.T) {
	if ns := nullString(""); ns.Valid {
		t.Error("empty string should map to NULL")
	}
	ns := nullString("value")
	if !ns.Valid || ns.String != "value" {
		t.Errorf("nullString(\"value\") = %+v, want valid", ns)
	}
}

func TestNullStringValue_RoundTrip(t *testing.T) {
	if got := nullStringValue(sql.NullString{}); got != "" {
		t.Errorf("nullStringValue(NULL) = %q, want empty", got)
	}
	if got := nullStringValue(sql.NullString{String: "value", Valid: true}); got != "value" {
		t.Errorf("nullStringValue = %q, want %q", got, "value")
	}
}

func TestNullIntValue(t *testing.T) {
	if got := nullIntValue(sql.NullInt64{}); got != nil {
		t.Errorf("nullIntValue(NULL) = %v, want nil", got)
	}
	got := nullIntValue(sql.NullInt64{Int64: 2023, Valid: true})
	if got == nil || *got != 2023 {
		t.Errorf("nullIntValue = %v, want 2023", got)
	}
}

// HistoryFilterのゼロ値が「絞り込みなし」を表すことを検証
func TestHistoryFilter_ZeroValueMeansNoFilter(t *testing.T) {
	var filter HistoryFilter
	if filter.Year != nil {
		t.Error("zero-value Year should be nil")
	}
	if filter.TournamentID != "" {
		t.Error("zero-value TournamentID should be empty")
	}
}

// MatchHistoryEntryのnil許容フィールドを検証
func TestMatchHistoryEntry_NilableFields(t *testing.T) {
	entry := model.MatchHistoryEntry{
		Slug:    "taro-yamada",
		MatchID: "match-1",
	}
	if entry.Year != nil || entry.RoundOrder != nil || entry.TournamentYear != nil {
		t.Error("numeric fields should default to nil")
	}
}
