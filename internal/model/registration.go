// Package model はドメインモデルを定義する。
package model

import "time"

// RegistrationValidity は登録レコードの有効期間（初回作成時に固定され、
// 再割り当てで延長されることはない）。
const RegistrationValidity = 30 * 24 * time.Hour

// Registration は登録テナントモードにおけるユーザーごとの割り当てレコードを表す。
// 1ユーザーに複数の履歴レコードが存在しうるが、RegisteredAtが最新のものが正となる。
// Username/Emailは初回作成時にのみ設定され、以後の再割り当てでは変更しない。
type Registration struct {
	ID           string
	UserID       string
	Username     string
	Email        string
	EmailCode    *string
	Status       string
	RegisteredAt time.Time
	ExpiresAt    time.Time
}

// IsExpired は登録レコードが有効期限を過ぎているかどうかを返す。
func (r *Registration) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
