// Package model はドメインモデルを定義する。
package model

import "time"

// AccountStatus はフローアカウントの状態を表す。
type AccountStatus string

const (
	// AccountStatusActive は割り当て対象として有効な状態。
	AccountStatusActive AccountStatus = "active"
	// AccountStatusInactive は割り当て対象から除外された状態。
	// 非アクティブ中はoccupancyが凍結され、台帳による増減は行われない。
	AccountStatusInactive AccountStatus = "inactive"
)

// DefaultAccountCapacity はアカウント1件あたりの同時利用者数の上限デフォルト値。
const DefaultAccountCapacity = 10

// Account は共有クレデンシャルのプールアカウントを表す。
// codeは管理画面で使用する短い一意のラベル（G1, G2, E1など）。
// 不変条件: status = active の間、常に 0 <= Occupancy <= Capacity。
type Account struct {
	ID        string
	Code      string
	Email     string
	Password  string
	Capacity  int
	Occupancy int
	Status    AccountStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive はアカウントが割り当て対象として有効かどうかを返す。
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// HasVacancy は空きスロットが存在するかどうかを返す。
func (a *Account) HasVacancy() bool {
	return a.Occupancy < a.Capacity
}

// Credentials はアカウントの接続情報（利用者に払い出す秘密情報）。
type Credentials struct {
	Code     string
	Email    string
	Password string
}

// Credentials はアカウントの払い出し用クレデンシャルを返す。
func (a *Account) Credentials() Credentials {
	return Credentials{
		Code:     a.Code,
		Email:    a.Email,
		Password: a.Password,
	}
}
