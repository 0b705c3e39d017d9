package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/flowpool/internal/middleware"
	"github.com/hitoshi/flowpool/internal/model"
)

type stubHealthChecker struct {
	err error
}

func (s *stubHealthChecker) PingContext(ctx context.Context) error { return s.err }

func newTestRouter(hc HealthChecker) http.Handler {
	svc := &mockAssignmentService{
		assignFn: func(ctx context.Context, userID, explicitCode string) (*model.Credentials, error) {
			return testCredentials(), nil
		},
	}
	acctSvc := &mockAccountService{
		listFn: func(ctx context.Context) ([]*model.Account, error) {
			return nil, nil
		},
	}
	return NewRouter(&RouterDeps{
		HealthChecker:     hc,
		AdminAPIKey:       "test-api-key",
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig()),
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
		AssignmentService: svc,
		AccountService:    acctSvc,
	})
}

// TestRouter_Health はヘルスチェックが認証なしでアクセスできることを検証する。
func TestRouter_Health(t *testing.T) {
	router := newTestRouter(&stubHealthChecker{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

// TestRouter_Health_DBDown はDB接続不能時に503が返ることを検証する。
func TestRouter_Health_DBDown(t *testing.T) {
	router := newTestRouter(&stubHealthChecker{err: errors.New("connection refused")})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

// TestRouter_Metrics はメトリクスエンドポイントが認証なしでアクセスできることを検証する。
func TestRouter_Metrics(t *testing.T) {
	router := newTestRouter(&stubHealthChecker{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

// TestRouter_APIRequiresKey はAPIキーなしのリクエストが401になることを検証する。
func TestRouter_APIRequiresKey(t *testing.T) {
	router := newTestRouter(&stubHealthChecker{})

	body := bytes.NewBufferString(`{"user_id": "user-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/assignments", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// TestRouter_APIWithKey は正しいAPIキーでリクエストが通ることを検証する。
func TestRouter_APIWithKey(t *testing.T) {
	router := newTestRouter(&stubHealthChecker{})

	body := bytes.NewBufferString(`{"user_id": "user-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/assignments", body)
	req.Header.Set("Authorization", "Bearer test-api-key")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
}

// TestRouter_WrongKey は誤ったAPIキーが401になることを検証する。
func TestRouter_WrongKey(t *testing.T) {
	router := newTestRouter(&stubHealthChecker{})

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// TestRouter_SecurityHeaders は全レスポンスにセキュリティヘッダーが付与されることを検証する。
func TestRouter_SecurityHeaders(t *testing.T) {
	router := newTestRouter(&stubHealthChecker{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}
