// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// TenantMode は割り当て先の保存レイアウトを表す。
// デプロイメントごとに固定され、実行時に切り替わることはない。
type TenantMode string

const (
	// TenantModeDirect はusersテーブルのemail_codeカラムに直接保存するモード。
	TenantModeDirect TenantMode = "direct"
	// TenantModeRegistration はユーザーごとのregistrationsレコードに保存するモード。
	TenantModeRegistration TenantMode = "registration"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Auth
	AdminAPIKey string

	// Pool
	TenantMode      TenantMode
	AccountCapacity int
	RegistrationTTL time.Duration

	// Worker
	CleanupInterval time.Duration

	// Rate Limit
	RateLimitGeneral int
	RateLimitAssign  int

	// Server
	ServerPort string
	// MetricsPort はworkerモードが/metricsを公開するポート。
	// serveモードはAPIサーバーと同じポートで/metricsを提供する。
	MetricsPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.AdminAPIKey = os.Getenv("ADMIN_API_KEY")
	if cfg.AdminAPIKey == "" {
		missing = append(missing, "ADMIN_API_KEY")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	mode := TenantMode(getEnvString("TENANT_MODE", string(TenantModeRegistration)))
	if mode != TenantModeDirect && mode != TenantModeRegistration {
		return nil, fmt.Errorf("invalid TENANT_MODE: %q (must be %q or %q)",
			mode, TenantModeDirect, TenantModeRegistration)
	}
	cfg.TenantMode = mode

	cfg.AccountCapacity = getEnvInt("ACCOUNT_CAPACITY", 10)
	if cfg.AccountCapacity <= 0 {
		return nil, fmt.Errorf("ACCOUNT_CAPACITY must be positive, got %d", cfg.AccountCapacity)
	}

	cfg.RegistrationTTL = getEnvDuration("REGISTRATION_TTL", 720*time.Hour)
	cfg.CleanupInterval = getEnvDuration("CLEANUP_INTERVAL", 24*time.Hour)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitAssign = getEnvInt("RATE_LIMIT_ASSIGN", 30)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.MetricsPort = getEnvString("METRICS_PORT", "9090")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
