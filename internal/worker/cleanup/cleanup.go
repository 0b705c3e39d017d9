// Package cleanup は期限切れ登録の自動回収ジョブを提供する。
// 有効期限（デフォルト30日）を超過した登録の割り当てを解除し、
// 対応するアカウントの占有数を日次バッチで返却する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/flowpool/internal/assignment"
	"github.com/hitoshi/flowpool/internal/model"
	"github.com/hitoshi/flowpool/internal/repository"
)

// デフォルトで1回の実行につき処理する登録の最大件数。
const defaultBatchSize = 500

// Recorder は回収メトリクスの記録先。
type Recorder interface {
	RecordRelease(code string)
}

// SweepJob は期限切れ登録の自動回収ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な回収処理を保証する。
type SweepJob struct {
	registrations repository.RegistrationRepository
	ledger        *assignment.Ledger
	logger        *slog.Logger
	metrics       Recorder
	BatchSize     int // 1回の実行で処理する最大件数（デフォルト: 500）
}

// NewSweepJob は新しいSweepJobを生成する。
// metricsはnilを許容する（記録をスキップする）。
func NewSweepJob(registrations repository.RegistrationRepository, ledger *assignment.Ledger, logger *slog.Logger, metrics Recorder) *SweepJob {
	return &SweepJob{
		registrations: registrations,
		ledger:        ledger,
		logger:        logger,
		metrics:       metrics,
		BatchSize:     defaultBatchSize,
	}
}

// Run は有効期限を超過した割り当て済み登録を回収する。
// 各登録についてアカウントの占有数を返却し、登録のコードをクリアする。
// 1件の失敗で全体を止めず、失敗分は次回実行で再処理される。
// 冪等: 回収対象がない場合でもエラーにならない。
func (j *SweepJob) Run(ctx context.Context) error {
	start := time.Now()

	expired, err := j.registrations.ListExpiredAssigned(ctx, time.Now(), j.BatchSize)
	if err != nil {
		j.logger.Error("期限切れ登録の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("期限切れ登録の取得に失敗: %w", err)
	}

	var sweptCount, failedCount int
	for _, reg := range expired {
		if err := j.sweepOne(ctx, reg); err != nil {
			failedCount++
			j.logger.Warn("期限切れ登録の回収に失敗しました",
				slog.String("registration_id", reg.ID),
				slog.String("user_id", reg.UserID),
				slog.String("error", err.Error()),
			)
			continue
		}
		sweptCount++
	}

	duration := time.Since(start)
	j.logger.Info("期限切れ登録の回収ジョブが完了しました",
		slog.Int("swept_count", sweptCount),
		slog.Int("failed_count", failedCount),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// sweepOne は1件の期限切れ登録を回収する。
// 先にコードをクリアしてから占有数を返却する。逆順にすると
// クリア失敗時に同じ登録が二重に返却されるため。
func (j *SweepJob) sweepOne(ctx context.Context, reg *model.Registration) error {
	if reg.EmailCode == nil {
		return nil
	}
	code := *reg.EmailCode

	if err := j.registrations.UpdateEmailCode(ctx, reg.ID, nil); err != nil {
		return fmt.Errorf("登録のコードクリアに失敗: %w", err)
	}

	if err := j.ledger.Release(ctx, code); err != nil {
		return fmt.Errorf("アカウント占有数の返却に失敗: %w", err)
	}

	if j.metrics != nil {
		j.metrics.RecordRelease(code)
	}
	return nil
}
