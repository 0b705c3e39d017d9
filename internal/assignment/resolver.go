package assignment

import (
	"context"
	"fmt"

	"github.com/hitoshi/flowpool/internal/model"
	"github.com/hitoshi/flowpool/internal/repository"
)

// Resolver は割り当てリクエストから対象アカウントを決定する。
// 読み取りと判定のみを行い、副作用を持たない。
type Resolver struct {
	accounts repository.AccountRepository
}

// NewResolver はResolverを生成する。
func NewResolver(accounts repository.AccountRepository) *Resolver {
	return &Resolver{accounts: accounts}
}

// Resolve は対象アカウントを決定する。
//
// explicitCodeが指定された場合はそのアカウントを返す。存在しない場合は
// ACCOUNT_NOT_FOUND、非アクティブの場合はACCOUNT_INACTIVE、満席の場合は
// ACCOUNT_FULLを返す。ただしexplicitCodeがexcludeCode（ユーザーの既存の
// 割り当て先）と一致する場合、ユーザーは既にそのアカウントのスロットを
// 保持しているため、満席チェックは行わずにアカウントを返す。
//
// explicitCodeが空の場合は、アクティブかつ空きのあるアカウントのうち
// occupancyが最小のもの（同数の場合はcode昇順で先頭）を返す。
// 該当がない場合はPOOL_EXHAUSTEDを返す。
func (r *Resolver) Resolve(ctx context.Context, explicitCode, excludeCode string) (*model.Account, error) {
	if explicitCode != "" {
		account, err := r.accounts.FindByCode(ctx, explicitCode)
		if err != nil {
			return nil, fmt.Errorf("対象アカウントの取得に失敗しました: %w", err)
		}
		if account == nil {
			return nil, model.NewAccountNotFoundError(explicitCode)
		}
		if !account.IsActive() {
			return nil, model.NewAccountInactiveError(explicitCode)
		}
		if explicitCode == excludeCode {
			// 既存の割り当てと同一コード。冪等なno-op対象なので満席でも成功させる。
			return account, nil
		}
		if !account.HasVacancy() {
			return nil, model.NewAccountFullError(account.Code, account.Occupancy, account.Capacity)
		}
		return account, nil
	}

	account, err := r.accounts.FindLeastOccupied(ctx)
	if err != nil {
		return nil, fmt.Errorf("空きアカウントの検索に失敗しました: %w", err)
	}
	if account == nil {
		return nil, model.NewPoolExhaustedError()
	}
	return account, nil
}
