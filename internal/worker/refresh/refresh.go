// Package refresh はwrestler_match_historyマテリアライズドビューの
// 定期リフレッシュジョブを提供する。試合データの更新を検索・集計系
// エンドポイントに反映するため、一定間隔でCONCURRENTLYリフレッシュする。
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ViewRefresher はマテリアライズドビューのリフレッシュ実行インターフェース。
// repository.MatchRepositoryの部分集合として定義する。
type ViewRefresher interface {
	RefreshHistoryView(ctx context.Context) error
}

// RefreshRecorder はリフレッシュ結果の計測インターフェース。
type RefreshRecorder interface {
	RecordViewRefresh(success bool, duration time.Duration)
}

// Job はマテリアライズドビューの定期リフレッシュジョブ。
// CONCURRENTLYリフレッシュのため実行中も読み取りをブロックしない。
type Job struct {
	refresher ViewRefresher
	logger    *slog.Logger
	metrics   RefreshRecorder
}

// NewJob はJobの新しいインスタンスを生成する。
// metricsはnilを許容する。
func NewJob(refresher ViewRefresher, logger *slog.Logger, metrics RefreshRecorder) *Job {
	return &Job{
		refresher: refresher,
		logger:    logger,
		metrics:   metrics,
	}
}

// Start は指定間隔のティッカーでリフレッシュジョブを起動する。
// 起動直後に1回実行し、コンテキストがキャンセルされるまで継続する。
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("view refresh job started",
		slog.Duration("interval", interval),
	)

	if err := j.RunOnce(ctx); err != nil {
		j.logger.Error("view refresh failed",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("view refresh job stopped")
			return
		case <-ticker.C:
			if err := j.RunOnce(ctx); err != nil {
				j.logger.Error("view refresh failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce はマテリアライズドビューを1回リフレッシュする。
// 冪等: 対象データに変更がない場合でもエラーにならない。
func (j *Job) RunOnce(ctx context.Context) error {
	start := time.Now()

	err := j.refresher.RefreshHistoryView(ctx)
	duration := time.Since(start)

	if j.metrics != nil {
		j.metrics.RecordViewRefresh(err == nil, duration)
	}

	if err != nil {
		return fmt.Errorf("試合履歴ビューのリフレッシュに失敗しました: %w", err)
	}

	j.logger.Info("view refresh completed",
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)
	return nil
}
