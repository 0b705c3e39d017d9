package repository

import (
	"testing"
	"time"

	"github.com/hitoshi/flowpool/internal/model"
)

// PostgresAccountRepoはAccountRepositoryインターフェースを満たすことを検証
func TestPostgresAccountRepo_ImplementsInterface(t *testing.T) {
	var _ AccountRepository = (*PostgresAccountRepo)(nil)
}

// NewPostgresAccountRepoが正しく初期化されることを検証
func TestNewPostgresAccountRepo_Initializes(t *testing.T) {
	repo := NewPostgresAccountRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// Accountモデルのフィールドが正しく構築されることを検証
func TestPostgresAccountRepo_AccountModel_Fields(t *testing.T) {
	now := time.Now()
	account := &model.Account{
		ID:        "account-id-1",
		Code:      "G1",
		Email:     "pool-g1@example.com",
		Password:  "secret",
		Capacity:  10,
		Occupancy: 3,
		Status:    model.AccountStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if account.Code != "G1" {
		t.Errorf("account.Code = %q, want %q", account.Code, "G1")
	}
	if account.Status != model.AccountStatusActive {
		t.Errorf("account.Status = %q, want %q", account.Status, model.AccountStatusActive)
	}
	if !account.IsActive() {
		t.Error("IsActive() = false, want true")
	}
	if !account.HasVacancy() {
		t.Error("HasVacancy() = false, want true (occupancy 3/10)")
	}
}

// 満席アカウントのHasVacancyがfalseになることを検証
func TestPostgresAccountRepo_AccountModel_Full(t *testing.T) {
	account := &model.Account{
		Code:      "G2",
		Capacity:  10,
		Occupancy: 10,
		Status:    model.AccountStatusActive,
	}

	if account.HasVacancy() {
		t.Error("HasVacancy() = true, want false (occupancy 10/10)")
	}
}
