package assignment

import (
	"context"
	"testing"
	"time"

	"github.com/hitoshi/flowpool/internal/model"
)

type mockRegRepo struct {
	findLatestByUserIDFn  func(ctx context.Context, userID string) (*model.Registration, error)
	createFn              func(ctx context.Context, reg *model.Registration) error
	updateEmailCodeFn     func(ctx context.Context, id string, code *string) error
	listExpiredAssignedFn func(ctx context.Context, now time.Time, limit int) ([]*model.Registration, error)
}

func (m *mockRegRepo) FindLatestByUserID(ctx context.Context, userID string) (*model.Registration, error) {
	if m.findLatestByUserIDFn != nil {
		return m.findLatestByUserIDFn(ctx, userID)
	}
	return nil, nil
}
func (m *mockRegRepo) Create(ctx context.Context, reg *model.Registration) error {
	if m.createFn != nil {
		return m.createFn(ctx, reg)
	}
	return nil
}
func (m *mockRegRepo) UpdateEmailCode(ctx context.Context, id string, code *string) error {
	if m.updateEmailCodeFn != nil {
		return m.updateEmailCodeFn(ctx, id, code)
	}
	return nil
}
func (m *mockRegRepo) ListExpiredAssigned(ctx context.Context, now time.Time, limit int) ([]*model.Registration, error) {
	if m.listExpiredAssignedFn != nil {
		return m.listExpiredAssignedFn(ctx, now, limit)
	}
	return nil, nil
}

type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(input string) string { return input }

func strPtr(s string) *string { return &s }

// --- DirectStore ---

// TestDirectStore_GetCurrent はemail_codeの読み取りを検証する。
func TestDirectStore_GetCurrent(t *testing.T) {
	users := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, EmailCode: strPtr("CODE-A")}, nil
		},
	}
	store := NewDirectStore(users)

	code, err := store.GetCurrent(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetCurrent returned error: %v", err)
	}
	if code != "CODE-A" {
		t.Errorf("code = %q, want %q", code, "CODE-A")
	}
}

// TestDirectStore_GetCurrent_Unassigned はemail_codeがNULLのユーザーで
// 空文字列が返ることを検証する。
func TestDirectStore_GetCurrent_Unassigned(t *testing.T) {
	users := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
	}
	store := NewDirectStore(users)

	code, err := store.GetCurrent(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetCurrent returned error: %v", err)
	}
	if code != "" {
		t.Errorf("code = %q, want empty", code)
	}
}

// TestDirectStore_GetCurrent_UserNotFound は存在しないユーザーで
// USER_NOT_FOUNDになることを検証する。
func TestDirectStore_GetCurrent_UserNotFound(t *testing.T) {
	users := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return nil, nil
		},
	}
	store := NewDirectStore(users)

	_, err := store.GetCurrent(context.Background(), "missing")
	if apiErrCode(err) != model.ErrCodeUserNotFound {
		t.Errorf("error code = %q, want %q", apiErrCode(err), model.ErrCodeUserNotFound)
	}
}

// TestDirectStore_SetCurrent_ClearUsesNull は空文字列の書き込みがNULL更新になることを検証する。
func TestDirectStore_SetCurrent_ClearUsesNull(t *testing.T) {
	var gotCode *string
	called := false
	users := &mockUserRepo{
		updateEmailCodeFn: func(ctx context.Context, userID string, code *string) error {
			called = true
			gotCode = code
			return nil
		},
	}
	store := NewDirectStore(users)

	if err := store.SetCurrent(context.Background(), "user-1", ""); err != nil {
		t.Fatalf("SetCurrent returned error: %v", err)
	}
	if !called {
		t.Fatal("expected UpdateEmailCode to be called")
	}
	if gotCode != nil {
		t.Errorf("code = %v, want nil", *gotCode)
	}
}

// --- RegistrationStore ---

// TestRegistrationStore_GetCurrent_LatestRegistration は最新の登録レコードの
// コードが返ることを検証する。
func TestRegistrationStore_GetCurrent_LatestRegistration(t *testing.T) {
	regs := &mockRegRepo{
		findLatestByUserIDFn: func(ctx context.Context, userID string) (*model.Registration, error) {
			return &model.Registration{ID: "reg-1", UserID: userID, EmailCode: strPtr("CODE-B")}, nil
		},
	}
	store := NewRegistrationStore(regs, &mockUserRepo{}, passthroughSanitizer{}, 720*time.Hour)

	code, err := store.GetCurrent(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetCurrent returned error: %v", err)
	}
	if code != "CODE-B" {
		t.Errorf("code = %q, want %q", code, "CODE-B")
	}
}

// TestRegistrationStore_GetCurrent_NoRegistration_UserExists は登録レコードが
// ないが実在するユーザーで未割り当て扱いとなることを検証する。
func TestRegistrationStore_GetCurrent_NoRegistration_UserExists(t *testing.T) {
	users := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Email: "taro@example.com"}, nil
		},
	}
	store := NewRegistrationStore(&mockRegRepo{}, users, passthroughSanitizer{}, 720*time.Hour)

	code, err := store.GetCurrent(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetCurrent returned error: %v", err)
	}
	if code != "" {
		t.Errorf("code = %q, want empty", code)
	}
}

// TestRegistrationStore_GetCurrent_UserNotFound は登録もユーザーも存在しない場合に
// USER_NOT_FOUNDになることを検証する。
func TestRegistrationStore_GetCurrent_UserNotFound(t *testing.T) {
	store := NewRegistrationStore(&mockRegRepo{}, &mockUserRepo{}, passthroughSanitizer{}, 720*time.Hour)

	_, err := store.GetCurrent(context.Background(), "missing")
	if apiErrCode(err) != model.ErrCodeUserNotFound {
		t.Errorf("error code = %q, want %q", apiErrCode(err), model.ErrCodeUserNotFound)
	}
}

// TestRegistrationStore_SetCurrent_UpdatesExisting は既存レコードのコード更新を検証する。
// username/emailと有効期限は作成時のまま変更されない。
func TestRegistrationStore_SetCurrent_UpdatesExisting(t *testing.T) {
	var updatedID string
	var updatedCode *string
	regs := &mockRegRepo{
		findLatestByUserIDFn: func(ctx context.Context, userID string) (*model.Registration, error) {
			return &model.Registration{ID: "reg-1", UserID: userID, EmailCode: strPtr("CODE-A")}, nil
		},
		updateEmailCodeFn: func(ctx context.Context, id string, code *string) error {
			updatedID = id
			updatedCode = code
			return nil
		},
		createFn: func(ctx context.Context, reg *model.Registration) error {
			t.Error("Create should not be called")
			return nil
		},
	}
	store := NewRegistrationStore(regs, &mockUserRepo{}, passthroughSanitizer{}, 720*time.Hour)

	if err := store.SetCurrent(context.Background(), "user-1", "CODE-B"); err != nil {
		t.Fatalf("SetCurrent returned error: %v", err)
	}
	if updatedID != "reg-1" {
		t.Errorf("updated ID = %q, want %q", updatedID, "reg-1")
	}
	if updatedCode == nil || *updatedCode != "CODE-B" {
		t.Errorf("updated code = %v, want CODE-B", updatedCode)
	}
}

// TestRegistrationStore_SetCurrent_CreatesImplicitly はレコードがない場合に
// 有効期限付きで暗黙的に作成されることを検証する。
func TestRegistrationStore_SetCurrent_CreatesImplicitly(t *testing.T) {
	var created *model.Registration
	regs := &mockRegRepo{
		createFn: func(ctx context.Context, reg *model.Registration) error {
			created = reg
			return nil
		},
	}
	users := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Email: "taro@example.com", Name: "Taro"}, nil
		},
	}
	ttl := 720 * time.Hour
	store := NewRegistrationStore(regs, users, passthroughSanitizer{}, ttl)

	before := time.Now()
	if err := store.SetCurrent(context.Background(), "user-1", "CODE-A"); err != nil {
		t.Fatalf("SetCurrent returned error: %v", err)
	}
	if created == nil {
		t.Fatal("expected registration to be created")
	}
	if created.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", created.UserID, "user-1")
	}
	if created.Username != "Taro" {
		t.Errorf("Username = %q, want %q", created.Username, "Taro")
	}
	if created.Email != "taro@example.com" {
		t.Errorf("Email = %q, want %q", created.Email, "taro@example.com")
	}
	if created.EmailCode == nil || *created.EmailCode != "CODE-A" {
		t.Errorf("EmailCode = %v, want CODE-A", created.EmailCode)
	}
	wantExpiry := created.RegisteredAt.Add(ttl)
	if !created.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("ExpiresAt = %v, want %v", created.ExpiresAt, wantExpiry)
	}
	if created.RegisteredAt.Before(before.Add(-time.Second)) {
		t.Errorf("RegisteredAt = %v, too far in the past", created.RegisteredAt)
	}
}

// TestRegistrationStore_SetCurrent_UsernameFallsBackToLocalPart は表示名のない
// ユーザーでメールアドレスのローカル部がusernameになることを検証する。
func TestRegistrationStore_SetCurrent_UsernameFallsBackToLocalPart(t *testing.T) {
	var created *model.Registration
	regs := &mockRegRepo{
		createFn: func(ctx context.Context, reg *model.Registration) error {
			created = reg
			return nil
		},
	}
	users := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Email: "hanako@example.com"}, nil
		},
	}
	store := NewRegistrationStore(regs, users, passthroughSanitizer{}, 720*time.Hour)

	if err := store.SetCurrent(context.Background(), "user-1", "CODE-A"); err != nil {
		t.Fatalf("SetCurrent returned error: %v", err)
	}
	if created == nil {
		t.Fatal("expected registration to be created")
	}
	if created.Username != "hanako" {
		t.Errorf("Username = %q, want %q", created.Username, "hanako")
	}
}

// TestRegistrationStore_SetCurrent_ClearWithoutRegistration_NoOp は未登録ユーザーの
// 割り当て解除が何もしないことを検証する。
func TestRegistrationStore_SetCurrent_ClearWithoutRegistration_NoOp(t *testing.T) {
	regs := &mockRegRepo{
		createFn: func(ctx context.Context, reg *model.Registration) error {
			t.Error("Create should not be called")
			return nil
		},
		updateEmailCodeFn: func(ctx context.Context, id string, code *string) error {
			t.Error("UpdateEmailCode should not be called")
			return nil
		},
	}
	store := NewRegistrationStore(regs, &mockUserRepo{}, passthroughSanitizer{}, 720*time.Hour)

	if err := store.SetCurrent(context.Background(), "user-1", ""); err != nil {
		t.Fatalf("SetCurrent returned error: %v", err)
	}
}

// TestRegistrationStore_SetCurrent_UserNotFound は存在しないユーザーへの
// 初回割り当てがUSER_NOT_FOUNDになることを検証する。
func TestRegistrationStore_SetCurrent_UserNotFound(t *testing.T) {
	store := NewRegistrationStore(&mockRegRepo{}, &mockUserRepo{}, passthroughSanitizer{}, 720*time.Hour)

	err := store.SetCurrent(context.Background(), "missing", "CODE-A")
	if apiErrCode(err) != model.ErrCodeUserNotFound {
		t.Errorf("error code = %q, want %q", apiErrCode(err), model.ErrCodeUserNotFound)
	}
}
