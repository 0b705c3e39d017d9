// Package account はプールアカウント管理のドメインロジックを提供する。
// アカウントの作成・更新・削除・一覧取得を扱う管理用のサービス層で、
// occupancyカウンタには一切触れない（カウンタの更新は割り当てドメインの
// 台帳のみが行う）。
package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/flowpool/internal/model"
	"github.com/hitoshi/flowpool/internal/repository"
)

// Service はプールアカウント管理のサービス層。
type Service struct {
	accounts        repository.AccountRepository
	defaultCapacity int
}

// NewService はServiceの新しいインスタンスを生成する。
// defaultCapacityは新規アカウントの同時利用者数上限。
func NewService(accounts repository.AccountRepository, defaultCapacity int) *Service {
	return &Service{
		accounts:        accounts,
		defaultCapacity: defaultCapacity,
	}
}

// List は全アカウントをcreated_at降順で返す。表示用の読み取り専用操作。
func (s *Service) List(ctx context.Context) ([]*model.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("アカウント一覧の取得に失敗しました: %w", err)
	}
	return accounts, nil
}

// Create は新しいプールアカウントを作成する。
// コードとメールアドレスの一意性を事前に確認し、占有数0・アクティブ状態で作成する。
func (s *Service) Create(ctx context.Context, email, password, code string) (*model.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	code = strings.TrimSpace(code)

	if email == "" || password == "" || code == "" {
		return nil, model.NewInvalidRequestError("email、password、codeはすべて必須です")
	}

	existing, err := s.accounts.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("コードの重複確認に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateCodeError(code)
	}

	existingEmail, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("メールアドレスの重複確認に失敗しました: %w", err)
	}
	if existingEmail != nil {
		return nil, model.NewDuplicateEmailError()
	}

	now := time.Now()
	account := &model.Account{
		ID:        uuid.NewString(),
		Code:      code,
		Email:     email,
		Password:  password,
		Capacity:  s.defaultCapacity,
		Occupancy: 0,
		Status:    model.AccountStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("アカウントの作成に失敗しました: %w", err)
	}

	return account, nil
}

// UpdateParams はアカウント更新の入力。nilのフィールドは変更しない。
type UpdateParams struct {
	Email    *string
	Password *string
	Status   *model.AccountStatus
}

// Update は既存アカウントのemail、password、statusを更新する。
// occupancyはこの経路では変更できない。
func (s *Service) Update(ctx context.Context, id string, params UpdateParams) (*model.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if account == nil {
		return nil, model.NewAccountNotFoundError(id)
	}

	if params.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*params.Email))
		if email == "" {
			return nil, model.NewInvalidRequestError("emailを空にすることはできません")
		}
		if email != account.Email {
			existing, err := s.accounts.FindByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("メールアドレスの重複確認に失敗しました: %w", err)
			}
			if existing != nil && existing.ID != account.ID {
				return nil, model.NewDuplicateEmailError()
			}
		}
		account.Email = email
	}
	if params.Password != nil {
		if *params.Password == "" {
			return nil, model.NewInvalidRequestError("passwordを空にすることはできません")
		}
		account.Password = *params.Password
	}
	if params.Status != nil {
		if *params.Status != model.AccountStatusActive && *params.Status != model.AccountStatusInactive {
			return nil, model.NewInvalidRequestError(fmt.Sprintf("不明なstatus: %s", *params.Status))
		}
		account.Status = *params.Status
	}

	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("アカウントの更新に失敗しました: %w", err)
	}

	return account, nil
}

// Delete は指定IDのアカウントを削除する。
// 割り当て中のユーザーの紐付けは削除されず、宙に浮いた紐付けとなる。
// この不整合の解消は管理オペレーションに委ねる（自動修復はしない）。
func (s *Service) Delete(ctx context.Context, id string) error {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if account == nil {
		return model.NewAccountNotFoundError(id)
	}

	if err := s.accounts.Delete(ctx, id); err != nil {
		return fmt.Errorf("アカウントの削除に失敗しました: %w", err)
	}
	return nil
}
