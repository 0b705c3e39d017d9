// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/hitoshi/flowpool/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// clientKeyContextKey はリクエストコンテキストにクライアントキーを格納するためのキー。
var clientKeyContextKey = contextKey("client_key")

// NewAPIKeyMiddleware はAuthorization: Bearerヘッダーの管理APIキーを検証する
// ミドルウェアを返す。検証はタイミング攻撃耐性のある定数時間比較で行う。
// 認証済みリクエストにはクライアントキー（APIキーのハッシュ先頭8文字）を
// コンテキストに注入し、ログとレート制限のキーとして使用する。
func NewAPIKeyMiddleware(apiKey string) func(next http.Handler) http.Handler {
	expected := []byte(apiKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. AuthorizationヘッダーからBearerトークンを取得
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeUnauthorizedResponse(w)
				return
			}

			// 2. APIキーの検証（定数時間比較）
			if subtle.ConstantTimeCompare([]byte(token), expected) != 1 {
				writeUnauthorizedResponse(w)
				return
			}

			// 3. クライアントキーをコンテキストに注入
			ctx := context.WithValue(r.Context(), clientKeyContextKey, clientKey(token))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientKeyFromContext はリクエストコンテキストからクライアントキーを取得する。
// APIキーミドルウェアを通過したリクエストでのみ有効。
func ClientKeyFromContext(ctx context.Context) (string, error) {
	key, ok := ctx.Value(clientKeyContextKey).(string)
	if !ok || key == "" {
		return "", fmt.Errorf("client key not found in context")
	}
	return key, nil
}

// ContextWithClientKey はコンテキストにクライアントキーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithClientKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, clientKeyContextKey, key)
}

// clientKey はAPIキーからログ出力用の短い識別子を導出する。
// 生のキーをログやメモリ上のマップキーとして持ち回らないためのハッシュ。
func clientKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])[:8]
}

// writeUnauthorizedResponse は401レスポンスを統一フォーマットで書き込む。
func writeUnauthorizedResponse(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "有効な管理APIキーをAuthorizationヘッダーに指定してください。",
	})
}
