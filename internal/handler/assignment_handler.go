package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/flowpool/internal/middleware"
	"github.com/hitoshi/flowpool/internal/model"
)

// AssignmentServiceInterface は割り当てハンドラーが必要とするサービスのインターフェース。
type AssignmentServiceInterface interface {
	Assign(ctx context.Context, userID, explicitCode string) (*model.Credentials, error)
	Release(ctx context.Context, userID string) error
	ReassignByEmail(ctx context.Context, email, code string) (*model.Credentials, error)
}

// AssignmentHandler は割り当てAPIのハンドラー。
type AssignmentHandler struct {
	service AssignmentServiceInterface
}

// NewAssignmentHandler はAssignmentHandlerを生成する。
func NewAssignmentHandler(service AssignmentServiceInterface) *AssignmentHandler {
	return &AssignmentHandler{service: service}
}

type assignRequest struct {
	UserID string `json:"user_id"`
	Code   string `json:"code,omitempty"`
}

type assignResponse struct {
	UserID   string `json:"user_id"`
	Code     string `json:"code"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type reassignByEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// reassignByEmailResponse はメールアドレス指定の再割り当て結果。
// 呼び出し側はユーザーをメールアドレスで特定しているため、user_idは含まない。
type reassignByEmailResponse struct {
	Code     string `json:"code"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Assign はユーザーにアカウントを割り当てる。
// POST /api/assignments
func (h *AssignmentHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの形式が不正です"))
		return
	}
	if req.UserID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("user_idは必須です"))
		return
	}

	creds, err := h.service.Assign(r.Context(), req.UserID, req.Code)
	if err != nil {
		handleServiceError(w, r, err, "アカウント割り当てに失敗しました")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(assignResponse{
		UserID:   req.UserID,
		Code:     creds.Code,
		Email:    creds.Email,
		Password: creds.Password,
	})
}

// Release はユーザーの割り当てを解除する。
// DELETE /api/assignments/{userID}
func (h *AssignmentHandler) Release(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("userIDは必須です"))
		return
	}

	if err := h.service.Release(r.Context(), userID); err != nil {
		handleServiceError(w, r, err, "割り当て解除に失敗しました")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReassignByEmail はメールアドレスでユーザーを特定して再割り当てする。
// POST /api/assignments/by-email
func (h *AssignmentHandler) ReassignByEmail(w http.ResponseWriter, r *http.Request) {
	var req reassignByEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの形式が不正です"))
		return
	}
	if req.Email == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("emailは必須です"))
		return
	}

	creds, err := h.service.ReassignByEmail(r.Context(), req.Email, req.Code)
	if err != nil {
		handleServiceError(w, r, err, "メールアドレス指定の再割り当てに失敗しました")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(reassignByEmailResponse{
		Code:     creds.Code,
		Email:    creds.Email,
		Password: creds.Password,
	})
}

// writeAPIErrorResponse はAPIErrorをHTTPレスポンスとして書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はサービス層のエラーを適切なHTTPステータスに変換して書き込む。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.Error(logMsg,
		slog.String("error", err.Error()),
		slog.String("path", r.URL.Path),
	)
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はエラーコードをHTTPステータスコードに変換する。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeAccountNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeAccountFull, model.ErrCodeAccountInactive,
		model.ErrCodePoolExhausted, model.ErrCodeAssignmentInterrupted,
		model.ErrCodeDuplicateCode, model.ErrCodeDuplicateEmail:
		return http.StatusConflict
	case model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
