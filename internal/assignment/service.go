package assignment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/flowpool/internal/model"
	"github.com/hitoshi/flowpool/internal/repository"
)

// Recorder は割り当て操作のメトリクス記録インターフェース。
// metrics.Collectorの部分集合として定義する。
type Recorder interface {
	RecordAssignSuccess(code string)
	RecordAssignFailure(reason string)
	RecordRelease(code string)
	RecordAssignLatency(duration time.Duration)
}

// Service はフローアカウント割り当てのサービス層。
// 割り当て・解除・再割り当てを1つの論理操作としてオーケストレーションする。
//
// 割り当ての一連のステップ（旧スロット解放 → 新スロット確保 → 紐付け保存）は
// ストアをまたぐグローバルなトランザクションではない。旧スロット解放後に
// 新スロット確保が失敗すると、ユーザーは一時的に未割り当て状態となるが、
// 再割り当ての実行で自己修復する（ASSIGNMENT_INTERRUPTEDを参照）。
type Service struct {
	store    Store
	resolver *Resolver
	ledger   *Ledger
	users    repository.UserRepository
	metrics  Recorder
}

// NewService はServiceの新しいインスタンスを生成する。
// metricsはnilを許容する（記録をスキップする）。
func NewService(
	store Store,
	resolver *Resolver,
	ledger *Ledger,
	users repository.UserRepository,
	metrics Recorder,
) *Service {
	return &Service{
		store:    store,
		resolver: resolver,
		ledger:   ledger,
		users:    users,
		metrics:  metrics,
	}
}

// Assign はユーザーにフローアカウントを割り当て、クレデンシャルを返す。
// explicitCodeが空の場合はoccupancy最小のアクティブなアカウントを自動選択する。
//
// ユーザーが既に対象アカウントを保持している場合はカウンタを変更せずに
// 成功を返す（冪等）。別のアカウントを保持している場合は旧アカウントの
// スロットを解放してから新アカウントのスロットを確保する。
func (s *Service) Assign(ctx context.Context, userID, explicitCode string) (*model.Credentials, error) {
	start := time.Now()
	creds, err := s.assign(ctx, userID, explicitCode)
	if err != nil {
		s.recordFailure(err)
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordAssignSuccess(creds.Code)
		s.metrics.RecordAssignLatency(time.Since(start))
	}
	return creds, nil
}

func (s *Service) assign(ctx context.Context, userID, explicitCode string) (*model.Credentials, error) {
	current, err := s.store.GetCurrent(ctx, userID)
	if err != nil {
		return nil, err
	}

	target, err := s.resolver.Resolve(ctx, explicitCode, current)
	if err != nil {
		return nil, err
	}

	if current == target.Code {
		// 同一アカウントへの再割り当て。カウンタも紐付けも変更しない。
		slog.Info("既存の割り当てを維持します",
			slog.String("user_id", userID),
			slog.String("code", current),
		)
		creds := target.Credentials()
		return &creds, nil
	}

	released := false
	if current != "" {
		// 旧スロットの解放はベストエフォート。失敗しても割り当ては継続する。
		if err := s.ledger.Release(ctx, current); err != nil {
			slog.Warn("旧スロットの解放に失敗しました",
				slog.String("user_id", userID),
				slog.String("old_code", current),
				slog.String("error", err.Error()),
			)
		}
		released = true
	}

	if err := s.ledger.Acquire(ctx, target.Code); err != nil {
		if released && isAccountFull(err) {
			// 旧スロットは既に解放済み。ユーザーは一時的に未割り当てとなるため、
			// 呼び出し側が再試行できるよう専用のエラーで通知する。
			return nil, model.NewAssignmentInterruptedError(target.Code)
		}
		return nil, err
	}

	if err := s.store.SetCurrent(ctx, userID, target.Code); err != nil {
		// 紐付けの保存に失敗した場合は確保したスロットを戻す（ベストエフォート）。
		if relErr := s.ledger.Release(ctx, target.Code); relErr != nil {
			slog.Warn("確保済みスロットの返却に失敗しました",
				slog.String("code", target.Code),
				slog.String("error", relErr.Error()),
			)
		}
		return nil, fmt.Errorf("割り当ての保存に失敗しました: %w", err)
	}

	slog.Info("フローアカウントを割り当てました",
		slog.String("user_id", userID),
		slog.String("code", target.Code),
		slog.Bool("reassigned", current != ""),
	)

	creds := target.Credentials()
	return &creds, nil
}

// Release はユーザーの割り当てを解除する。
// 未割り当てのユーザーに対しては何もせず成功を返す（冪等）。
// スロット解放の失敗は紐付けの解除をブロックしない。
func (s *Service) Release(ctx context.Context, userID string) error {
	current, err := s.store.GetCurrent(ctx, userID)
	if err != nil {
		return err
	}
	if current == "" {
		return nil
	}

	if err := s.ledger.Release(ctx, current); err != nil {
		slog.Warn("スロットの解放に失敗しました",
			slog.String("user_id", userID),
			slog.String("code", current),
			slog.String("error", err.Error()),
		)
	}

	if err := s.store.SetCurrent(ctx, userID, ""); err != nil {
		return fmt.Errorf("割り当て解除の保存に失敗しました: %w", err)
	}

	slog.Info("フローアカウントの割り当てを解除しました",
		slog.String("user_id", userID),
		slog.String("code", current),
	)

	if s.metrics != nil {
		s.metrics.RecordRelease(current)
	}
	return nil
}

// ReassignByEmail はメールアドレスでユーザーを特定し、指定コードの
// アカウントへ割り当てる。コードの指定は必須で、容量制限はAssignと
// 同様に適用される。ユーザーが見つからない場合はUSER_NOT_FOUNDを返す。
func (s *Service) ReassignByEmail(ctx context.Context, email, explicitCode string) (*model.Credentials, error) {
	if explicitCode == "" {
		return nil, model.NewInvalidRequestError("アカウントコードは必須です")
	}

	normalized := strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindByEmail(ctx, normalized)
	if err != nil {
		s.recordFailure(err)
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil {
		err := model.NewUserNotFoundError(normalized)
		s.recordFailure(err)
		return nil, err
	}

	return s.Assign(ctx, user.ID, explicitCode)
}

// recordFailure は失敗メトリクスを記録する。理由はAPIErrorコード、
// それ以外のエラーは"internal"として集計する。
func (s *Service) recordFailure(err error) {
	if s.metrics == nil {
		return
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		s.metrics.RecordAssignFailure(apiErr.Code)
		return
	}
	s.metrics.RecordAssignFailure("internal")
}

// isAccountFull はエラーが満席（ACCOUNT_FULL）かどうかを判定する。
func isAccountFull(err error) bool {
	var apiErr *model.APIError
	return errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeAccountFull
}
