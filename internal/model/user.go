// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// レコードは決済・会員登録フローで外部から作成され、
// 本サービスはEmailCode（直接保持テナントモードの割り当て先コード）のみを更新する。
type User struct {
	ID        string
	Email     string
	Name      string
	EmailCode *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
