// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, pool, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeAccountNotFound       = "ACCOUNT_NOT_FOUND"
	ErrCodeAccountInactive       = "ACCOUNT_INACTIVE"
	ErrCodeAccountFull           = "ACCOUNT_FULL"
	ErrCodePoolExhausted         = "POOL_EXHAUSTED"
	ErrCodeUserNotFound          = "USER_NOT_FOUND"
	ErrCodeAssignmentInterrupted = "ASSIGNMENT_INTERRUPTED"
	ErrCodeDuplicateCode         = "DUPLICATE_CODE"
	ErrCodeDuplicateEmail        = "DUPLICATE_EMAIL"
	ErrCodeInvalidRequest        = "INVALID_REQUEST"
	ErrCodeStoreUnavailable      = "STORE_UNAVAILABLE"
)

// NewAccountNotFoundError はフローアカウント未検出エラーを生成する。
func NewAccountNotFoundError(code string) *APIError {
	return &APIError{
		Code:     ErrCodeAccountNotFound,
		Message:  fmt.Sprintf("指定されたフローアカウントが見つかりません: %s", code),
		Category: "pool",
		Action:   "アカウントコードを確認してください。",
	}
}

// NewAccountInactiveError は非アクティブなアカウントを指定した場合のエラーを生成する。
func NewAccountInactiveError(code string) *APIError {
	return &APIError{
		Code:     ErrCodeAccountInactive,
		Message:  fmt.Sprintf("フローアカウント %s は無効化されています。", code),
		Category: "pool",
		Action:   "アカウントを有効化するか、別のアカウントを指定してください。",
	}
}

// NewAccountFullError はアカウント満席エラーを生成する。
func NewAccountFullError(code string, occupancy, capacity int) *APIError {
	return &APIError{
		Code:     ErrCodeAccountFull,
		Message:  fmt.Sprintf("フローアカウント %s は満席です（%d/%d）。", code, occupancy, capacity),
		Category: "pool",
		Action:   "別のアカウントを指定するか、自動割り当てを使用してください。",
	}
}

// NewPoolExhaustedError はプール枯渇エラーを生成する。
// アクティブかつ空きのあるアカウントが1件も存在しない場合に返す。
func NewPoolExhaustedError() *APIError {
	return &APIError{
		Code:     ErrCodePoolExhausted,
		Message:  "割り当て可能なフローアカウントがありません。",
		Category: "pool",
		Action:   "プールに新しいアカウントを追加してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError(identity string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", identity),
		Category: "validation",
		Action:   "ユーザーが決済・会員登録済みであることを確認してください。",
	}
}

// NewAssignmentInterruptedError は旧スロット解放後に新スロット確保へ失敗した場合のエラーを生成する。
// ユーザーは一時的に未割り当て状態となるが、再試行で自己修復する。
func NewAssignmentInterruptedError(code string) *APIError {
	return &APIError{
		Code:     ErrCodeAssignmentInterrupted,
		Message:  fmt.Sprintf("割り当て処理が中断されました。アカウント %s のスロットを確保できませんでした。", code),
		Category: "pool",
		Action:   "ユーザーは未割り当て状態です。もう一度割り当てを実行してください。",
	}
}

// NewDuplicateCodeError はコード重複エラーを生成する。
func NewDuplicateCodeError(code string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateCode,
		Message:  fmt.Sprintf("コード %s は既に使用されています。", code),
		Category: "validation",
		Action:   "別のコードを指定してください。",
	}
}

// NewDuplicateEmailError はメールアドレス重複エラーを生成する。
func NewDuplicateEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  "このメールアドレスは既にプールに登録されています。",
		Category: "validation",
		Action:   "別のメールアドレスを指定してください。",
	}
}

// NewInvalidRequestError はリクエスト不正エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}

// NewStoreUnavailableError はストアへの一時的なアクセス失敗エラーを生成する。
func NewStoreUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeStoreUnavailable,
		Message:  "データストアへのアクセスに失敗しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
