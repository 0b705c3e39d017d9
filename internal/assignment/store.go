// Package assignment はフローアカウント割り当てのドメインロジックを提供する。
//
// ユーザーと割り当て先コードの紐付けの保存先はテナントモードにより異なる。
// 直接保持モード（direct）はusersテーブルのemail_codeカラム、
// 登録モード（registration）はユーザーごとのregistrationsレコードを使用する。
// どちらのモードでもStoreインターフェースを通じて同一の操作を提供し、
// サービス層はモードの違いを意識しない。
package assignment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/flowpool/internal/model"
	"github.com/hitoshi/flowpool/internal/repository"
	"github.com/hitoshi/flowpool/internal/security"
)

// Store はユーザーの現在の割り当て先コードの永続化契約。
// コードの空文字列は「未割り当て」を意味する。
type Store interface {
	// GetCurrent は指定ユーザーが現在保持しているアカウントコードを返す。
	// 未割り当ての場合は空文字列を返す。ユーザーが存在しない場合はエラーを返す。
	GetCurrent(ctx context.Context, userID string) (string, error)

	// SetCurrent は指定ユーザーの割り当て先コードを更新する。
	// codeが空文字列の場合は割り当てを解除する。
	SetCurrent(ctx context.Context, userID, code string) error
}

// --- 直接保持モード ---

// DirectStore はusersテーブルのemail_codeカラムを直接読み書きするStore実装。
// 個別のレコードライフサイクルを持たない。
type DirectStore struct {
	users repository.UserRepository
}

// NewDirectStore はDirectStoreを生成する。
func NewDirectStore(users repository.UserRepository) *DirectStore {
	return &DirectStore{users: users}
}

// GetCurrent はユーザーのemail_codeを返す。
func (s *DirectStore) GetCurrent(ctx context.Context, userID string) (string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("割り当て状態の取得に失敗しました: %w", err)
	}
	if user == nil {
		return "", model.NewUserNotFoundError(userID)
	}
	if user.EmailCode == nil {
		return "", nil
	}
	return *user.EmailCode, nil
}

// SetCurrent はユーザーのemail_codeを更新する。
func (s *DirectStore) SetCurrent(ctx context.Context, userID, code string) error {
	var value *string
	if code != "" {
		value = &code
	}
	if err := s.users.UpdateEmailCode(ctx, userID, value); err != nil {
		return fmt.Errorf("割り当て状態の更新に失敗しました: %w", err)
	}
	return nil
}

// --- 登録モード ---

// RegistrationStore はユーザーごとのregistrationsレコードを使用するStore実装。
// レコードが存在しない場合は初回のSetCurrentで暗黙的に作成する。
// 作成時のusername/emailと有効期限は以後の再割り当てで変更されない。
type RegistrationStore struct {
	regs      repository.RegistrationRepository
	users     repository.UserRepository
	sanitizer security.UsernameSanitizerService
	ttl       time.Duration
}

// NewRegistrationStore はRegistrationStoreを生成する。
// ttlは登録レコード作成時に設定する有効期間。
func NewRegistrationStore(
	regs repository.RegistrationRepository,
	users repository.UserRepository,
	sanitizer security.UsernameSanitizerService,
	ttl time.Duration,
) *RegistrationStore {
	return &RegistrationStore{
		regs:      regs,
		users:     users,
		sanitizer: sanitizer,
		ttl:       ttl,
	}
}

// GetCurrent はユーザーの最新の登録レコードからコードを返す。
// 登録レコードが存在しない場合は未割り当てとして空文字列を返すが、
// ユーザー自体が存在しない場合はエラーを返す。
func (s *RegistrationStore) GetCurrent(ctx context.Context, userID string) (string, error) {
	reg, err := s.regs.FindLatestByUserID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("割り当て状態の取得に失敗しました: %w", err)
	}
	if reg == nil {
		user, err := s.users.FindByID(ctx, userID)
		if err != nil {
			return "", fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
		}
		if user == nil {
			return "", model.NewUserNotFoundError(userID)
		}
		return "", nil
	}
	if reg.EmailCode == nil {
		return "", nil
	}
	return *reg.EmailCode, nil
}

// SetCurrent はユーザーの最新の登録レコードのコードを更新する。
// レコードが存在せずcodeが空でない場合は、デフォルトの有効期間付きで
// 新しい登録レコードを作成する。
func (s *RegistrationStore) SetCurrent(ctx context.Context, userID, code string) error {
	reg, err := s.regs.FindLatestByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("登録レコードの取得に失敗しました: %w", err)
	}

	var value *string
	if code != "" {
		value = &code
	}

	if reg != nil {
		if err := s.regs.UpdateEmailCode(ctx, reg.ID, value); err != nil {
			return fmt.Errorf("割り当て状態の更新に失敗しました: %w", err)
		}
		return nil
	}

	if code == "" {
		// 未登録ユーザーの割り当て解除は何もすることがない
		return nil
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError(userID)
	}

	now := time.Now()
	newReg := &model.Registration{
		ID:           uuid.NewString(),
		UserID:       userID,
		Username:     s.sanitizer.Sanitize(displayUsername(user)),
		Email:        user.Email,
		EmailCode:    value,
		Status:       "active",
		RegisteredAt: now,
		ExpiresAt:    now.Add(s.ttl),
	}
	if err := s.regs.Create(ctx, newReg); err != nil {
		return fmt.Errorf("登録レコードの作成に失敗しました: %w", err)
	}
	return nil
}

// displayUsername はユーザーの表示名を導出する。
// nameが空の場合はメールアドレスのローカル部を使用する。
func displayUsername(user *model.User) string {
	if user.Name != "" {
		return user.Name
	}
	if i := strings.Index(user.Email, "@"); i > 0 {
		return user.Email[:i]
	}
	return "User"
}

// compile-time interface checks
var (
	_ Store = (*DirectStore)(nil)
	_ Store = (*RegistrationStore)(nil)
)
