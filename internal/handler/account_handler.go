package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/flowpool/internal/account"
	"github.com/hitoshi/flowpool/internal/model"
)

// AccountServiceInterface はアカウント管理ハンドラーが必要とするサービスのインターフェース。
type AccountServiceInterface interface {
	List(ctx context.Context) ([]*model.Account, error)
	Create(ctx context.Context, email, password, code string) (*model.Account, error)
	Update(ctx context.Context, id string, params account.UpdateParams) (*model.Account, error)
	Delete(ctx context.Context, id string) error
}

// AccountHandler はアカウント管理APIのハンドラー。
type AccountHandler struct {
	service AccountServiceInterface
}

// NewAccountHandler はAccountHandlerを生成する。
func NewAccountHandler(service AccountServiceInterface) *AccountHandler {
	return &AccountHandler{service: service}
}

type createAccountRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

type updateAccountRequest struct {
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Status   *string `json:"status,omitempty"`
}

type accountResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Capacity  int       `json:"capacity"`
	Occupancy int       `json:"occupancy"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toAccountResponse(a *model.Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		Code:      a.Code,
		Email:     a.Email,
		Password:  a.Password,
		Capacity:  a.Capacity,
		Occupancy: a.Occupancy,
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// List は全アカウントの一覧を返す。
// GET /api/accounts
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "アカウント一覧の取得に失敗しました")
		return
	}

	responses := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		responses = append(responses, toAccountResponse(a))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string][]accountResponse{"accounts": responses})
}

// Create は新規アカウントをプールに追加する。
// POST /api/accounts
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの形式が不正です"))
		return
	}

	created, err := h.service.Create(r.Context(), req.Email, req.Password, req.Code)
	if err != nil {
		handleServiceError(w, r, err, "アカウントの作成に失敗しました")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toAccountResponse(created))
}

// Update は既存アカウントの属性を部分更新する。
// PATCH /api/accounts/{id}
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの形式が不正です"))
		return
	}

	params := account.UpdateParams{
		Email:    req.Email,
		Password: req.Password,
	}
	if req.Status != nil {
		status := model.AccountStatus(*req.Status)
		params.Status = &status
	}

	updated, err := h.service.Update(r.Context(), id, params)
	if err != nil {
		handleServiceError(w, r, err, "アカウントの更新に失敗しました")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(toAccountResponse(updated))
}

// Delete はアカウントをプールから削除する。
// DELETE /api/accounts/{id}
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, err, "アカウントの削除に失敗しました")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
