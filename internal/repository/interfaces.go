// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/flowpool/internal/model"
)

// AccountRepository はフローアカウントデータの永続化インターフェース。
// occupancyカラムの更新はAcquireSlot/ReleaseSlotのみが行う。
type AccountRepository interface {
	// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Account, error)

	// FindByCode は指定コードのアカウントを取得する。見つからない場合はnilを返す。
	FindByCode(ctx context.Context, code string) (*model.Account, error)

	// FindByEmail は指定メールアドレスのアカウントを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Account, error)

	// FindLeastOccupied はアクティブかつ空きのあるアカウントのうち、
	// occupancyが最小のものを返す（同数の場合はcode昇順で先頭）。
	// 該当がない場合はnilを返す。
	FindLeastOccupied(ctx context.Context) (*model.Account, error)

	// List は全アカウントをcreated_at降順で返す。表示用の読み取り専用操作。
	List(ctx context.Context) ([]*model.Account, error)

	// Create はアカウントを作成する。
	Create(ctx context.Context, account *model.Account) error

	// Update はアカウントのemail、password、statusを更新する。
	// occupancyはこの操作では変更されない。
	Update(ctx context.Context, account *model.Account) error

	// Delete は指定IDのアカウントを削除する。
	Delete(ctx context.Context, id string) error

	// AcquireSlot はoccupancyを条件付きで1増加させる。
	// 条件（status = active かつ occupancy < capacity）を書き込み時点で
	// 満たさない場合は何も変更せずfalseを返す。
	AcquireSlot(ctx context.Context, code string) (bool, error)

	// ReleaseSlot はoccupancyを1減少させる。
	// occupancyが0、アカウントが存在しない、または非アクティブの場合は
	// 何も変更しない（成功として扱う）。
	ReleaseSlot(ctx context.Context, code string) error
}

// UserRepository はユーザーデータの永続化インターフェース。
// ユーザーの作成は決済・会員登録フローが行い、本サービスは
// email_code（直接保持テナントモードの割り当て先）のみを更新する。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は指定メールアドレスのユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// UpdateEmailCode は指定ユーザーのemail_codeを更新する。
	// codeがnilの場合は割り当て解除（NULL）を意味する。
	// ユーザーが存在しない場合はエラーを返す。
	UpdateEmailCode(ctx context.Context, userID string, code *string) error
}

// RegistrationRepository は登録テナントモードの割り当てレコードの永続化インターフェース。
type RegistrationRepository interface {
	// FindLatestByUserID は指定ユーザーの最新の登録レコードを取得する。
	// 複数の履歴レコードが存在する場合はregistered_atが最新のものを返す。
	// 見つからない場合はnilを返す。
	FindLatestByUserID(ctx context.Context, userID string) (*model.Registration, error)

	// Create は登録レコードを作成する。
	Create(ctx context.Context, reg *model.Registration) error

	// UpdateEmailCode は指定登録レコードのemail_codeを更新する。
	// codeがnilの場合は割り当て解除（NULL）を意味する。
	UpdateEmailCode(ctx context.Context, id string, code *string) error

	// ListExpiredAssigned は有効期限切れかつemail_codeが設定されたままの
	// 登録レコードをexpires_at昇順で最大limit件返す。クリーンアップジョブ用。
	ListExpiredAssigned(ctx context.Context, now time.Time, limit int) ([]*model.Registration, error)
}
