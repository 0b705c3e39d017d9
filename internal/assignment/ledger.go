package assignment

import (
	"context"
	"fmt"

	"github.com/hitoshi/flowpool/internal/model"
	"github.com/hitoshi/flowpool/internal/repository"
)

// Ledger はoccupancyカウンタの遷移ロジック。
// Acquire/Releaseはそれぞれカウンタを[0, capacity]の範囲内で1だけ動かし、
// occupancyを書き込む唯一の経路となる。
type Ledger struct {
	accounts repository.AccountRepository
}

// NewLedger はLedgerを生成する。
func NewLedger(accounts repository.AccountRepository) *Ledger {
	return &Ledger{accounts: accounts}
}

// Acquire は指定コードのアカウントのスロットを1つ確保する。
//
// 容量チェックはストア側の条件付きUPDATEで書き込み時点の値に対して行われる。
// 解決時点で空きがあっても、確保時点で他の呼び出しにより満席になっていれば
// ACCOUNT_FULLで失敗する。確保できなかった場合は理由を分類するために
// アカウントを再読み取りするが、この読み取りは結果に影響しない。
func (l *Ledger) Acquire(ctx context.Context, code string) error {
	ok, err := l.accounts.AcquireSlot(ctx, code)
	if err != nil {
		return fmt.Errorf("スロットの確保に失敗しました: %w", err)
	}
	if ok {
		return nil
	}

	account, err := l.accounts.FindByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("確保失敗理由の取得に失敗しました: %w", err)
	}
	if account == nil {
		return model.NewAccountNotFoundError(code)
	}
	if !account.IsActive() {
		return model.NewAccountInactiveError(code)
	}
	return model.NewAccountFullError(account.Code, account.Occupancy, account.Capacity)
}

// Release は指定コードのアカウントのスロットを1つ解放する。
//
// 冪等な操作で、occupancyが既に0、アカウントが存在しない、または
// 非アクティブの場合は成功のno-opとなる。ユーザーの解放経路を
// アカウント側の帳簿異常でブロックしないため、ストアの一時的な
// 失敗以外ではエラーを返さない。
func (l *Ledger) Release(ctx context.Context, code string) error {
	if err := l.accounts.ReleaseSlot(ctx, code); err != nil {
		return fmt.Errorf("スロットの解放に失敗しました: %w", err)
	}
	return nil
}
