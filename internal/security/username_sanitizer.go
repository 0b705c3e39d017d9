// Package security はアプリケーションのセキュリティ機能を提供する。
//
// UsernameSanitizerService は登録レコードに保存する表示ユーザー名を
// サニタイズする。ユーザー名は決済フロー由来の自由入力（full_name）で、
// 管理画面にそのまま表示されるため、保存前にHTMLタグとイベント属性を
// すべて除去する。bluemondayのStrictPolicyを使用する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// usernameMaxLength は保存する表示ユーザー名の最大長（文字数）。
const usernameMaxLength = 100

// UsernameSanitizerService は表示ユーザー名のサニタイズ機能のインターフェースを定義する。
type UsernameSanitizerService interface {
	// Sanitize は表示ユーザー名からHTMLタグを除去し、前後の空白を取り除いた
	// プレーンテキストを返す。最大長を超える場合は切り詰める。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// usernameSanitizer はUsernameSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type usernameSanitizer struct {
	policy *bluemonday.Policy
}

// NewUsernameSanitizer はUsernameSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicy（全タグ除去）を使用する。登録レコードはHTMLではなく
// プレーンテキストのみを保持するため、許可リストは不要。
func NewUsernameSanitizer() *usernameSanitizer {
	return &usernameSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は表示ユーザー名をプレーンテキストにサニタイズする。
func (s *usernameSanitizer) Sanitize(raw string) string {
	cleaned := strings.TrimSpace(s.policy.Sanitize(raw))
	// バイト境界で切るとマルチバイト文字が壊れるため、文字数で切り詰める
	if runes := []rune(cleaned); len(runes) > usernameMaxLength {
		cleaned = string(runes[:usernameMaxLength])
	}
	return cleaned
}

// compile-time interface check
var _ UsernameSanitizerService = (*usernameSanitizer)(nil)
