package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/matiq/matiq-api/internal/model"
)

// PostgresMatchRepo はPostgreSQLを使用した試合リポジトリ。
// 読み取りはwrestler_match_historyマテリアライズドビューに対して行う。
type PostgresMatchRepo struct {
	db *sql.DB
}

// NewPostgresMatchRepo はPostgresMatchRepoを生成する。
func NewPostgresMatchRepo(db *sql.DB) *PostgresMatchRepo {
	return &PostgresMatchRepo{db: db}
}

// History は指定選手の試合履歴をページングして取得する。総件数もあわせて返す。
func (r *PostgresMatchRepo) History(ctx context.Context, slug string, filter HistoryFilter) ([]model.MatchHistoryEntry, int, error) {
	where := []string{"slug = $1"}
	args := []any{slug}

	if filter.Year != nil {
		args = append(args, *filter.Year)
		where = append(where, "year = $"+strconv.Itoa(len(args)))
	}
	if filter.TournamentID != "" {
		args = append(args, filter.TournamentID)
		where = append(where, "tournament_id = $"+strconv.Itoa(len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM wrestler_match_history WHERE "+whereClause,
		args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("試合履歴の件数取得に失敗しました: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(
		`SELECT slug, year, weight_class, match_id, tournament_id, round, round_order,
		        wrestler_name, wrestler_person_id, wrestler_school_name, is_winner,
		        opponent_name, opponent_person_id, opponent_slug, opponent_school_name,
		        result_type, score, tournament_name, tournament_year
		 FROM wrestler_match_history
		 WHERE %s
		 ORDER BY year ASC, round_order ASC
		 LIMIT $%d OFFSET $%d`,
		whereClause, len(args)-1, len(args),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("試合履歴の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var entries []model.MatchHistoryEntry
	for rows.Next() {
		var e model.MatchHistoryEntry
		var year, roundOrder, tournamentYear sql.NullInt64
		var weightClass, round, wrestlerSchool, opponentSchool, resultType, score sql.NullString

		if err := rows.Scan(
			&e.Slug, &year, &weightClass, &e.MatchID, &e.TournamentID, &round, &roundOrder,
			&e.WrestlerName, &e.WrestlerPersonID, &wrestlerSchool, &e.IsWinner,
			&e.OpponentName, &e.OpponentPersonID, &e.OpponentSlug, &opponentSchool,
			&resultType, &score, &e.TournamentName, &tournamentYear,
		); err != nil {
			return nil, 0, fmt.Errorf("試合履歴の読み取りに失敗しました: %w", err)
		}

		e.Year = nullIntValue(year)
		e.RoundOrder = nullIntValue(roundOrder)
		e.TournamentYear = nullIntValue(tournamentYear)
		e.WeightClass = nullStringValue(weightClass)
		e.Round = nullStringValue(round)
		e.WrestlerSchoolName = nullStringValue(wrestlerSchool)
		e.OpponentSchoolName = nullStringValue(opponentSchool)
		e.ResultType = nullStringValue(resultType)
		e.Score = nullStringValue(score)

		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("試合履歴の走査に失敗しました: %w", err)
	}

	return entries, total, nil
}

// YearlyStats は指定選手の年度・階級ごとの集計成績を取得する。
// 順位は年度・階級ごとの最終試合（順位決定戦）から導出する。
func (r *PostgresMatchRepo) YearlyStats(ctx context.Context, slug string) ([]model.YearlyStats, error) {
	rows, err := r.db.QueryContext(ctx,
		`WITH match_history AS (
		    SELECT *
		    FROM wrestler_match_history mh
		    WHERE mh.slug = $1
		),
		last_match AS (
		    SELECT DISTINCT ON (year, weight_class)
		        year,
		        weight_class,
		        round,
		        is_winner
		    FROM match_history
		    ORDER BY year, weight_class, round_order DESC
		),
		summary AS (
		    SELECT
		        participant.year,
		        participant.weight_class,
		        COUNT(m.match_id) AS matches,
		        SUM(pm.is_winner::int) AS wins
		    FROM person
		    JOIN role ON role.person_id = person.person_id
		    JOIN participant ON participant.role_id = role.role_id
		    JOIN participant_match pm ON pm.participant_id = participant.participant_id
		    JOIN match m ON pm.match_id = m.match_id
		    WHERE person.slug = $1
		    GROUP BY participant.year, participant.weight_class
		),
		year_level AS (
		    SELECT
		        s.year,
		        s.weight_class::int AS weight_class,
		        s.matches,
		        s.wins,
		        CASE
		            WHEN lm.round IN ('1st', '3rd', '5th', '7th') THEN
		                CASE
		                    WHEN lm.is_winner THEN CAST(LEFT(lm.round, 1) AS INT)
		                    ELSE CAST(LEFT(lm.round, 1) AS INT) + 1
		                END
		            ELSE NULL
		        END AS placement
		    FROM summary s
		    LEFT JOIN last_match lm ON s.year = lm.year AND s.weight_class = lm.weight_class
		    ORDER BY s.year, s.weight_class
		)
		SELECT year, weight_class, wins, matches, placement
		FROM year_level`,
		slug,
	)
	if err != nil {
		return nil, fmt.Errorf("年度別成績の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var stats []model.YearlyStats
	for rows.Next() {
		var s model.YearlyStats
		var year, weightClass, wins, placement sql.NullInt64

		if err := rows.Scan(&year, &weightClass, &wins, &s.Matches, &placement); err != nil {
			return nil, fmt.Errorf("年度別成績の読み取りに失敗しました: %w", err)
		}

		s.Year = nullIntValue(year)
		s.WeightClass = nullIntValue(weightClass)
		if wins.Valid {
			s.Wins = int(wins.Int64)
		}
		s.Placement = nullIntValue(placement)

		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("年度別成績の走査に失敗しました: %w", err)
	}

	return stats, nil
}

// RefreshHistoryView はマテリアライズドビューを再計算する。
// CONCURRENTLYで実行するため、更新中も読み取りはブロックされない。
func (r *PostgresMatchRepo) RefreshHistoryView(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `REFRESH MATERIALIZED VIEW CONCURRENTLY wrestler_match_history`)
	if err != nil {
		return fmt.Errorf("マテリアライズドビューの更新に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ MatchRepository = (*PostgresMatchRepo)(nil)
