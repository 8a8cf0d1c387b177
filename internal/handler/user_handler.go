// Package handler はHTTPハンドラを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"

	"vpn-credential-service/internal/domain"
	"vpn-credential-service/internal/middleware"
	"vpn-credential-service/internal/usecase"
	"vpn-credential-service/pkg/httputil"
)

var clientIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// UserHandler はVPNユーザー操作のHTTPハンドラを提供する。
type UserHandler struct {
	service *usecase.CredentialService
}

// NewUserHandler は新しいUserHandlerを生成する。
func NewUserHandler(service *usecase.CredentialService) *UserHandler {
	return &UserHandler{service: service}
}

func validateClientID(clientID string) error {
	if clientID == "" {
		return domain.ErrInvalidClientID
	}
	if len(clientID) > 64 {
		return domain.ErrInvalidClientID
	}
	if !clientIDRegex.MatchString(clientID) {
		return domain.ErrInvalidClientID
	}
	return nil
}

// CreateUserRequest はユーザー作成リクエストの形式。
type CreateUserRequest struct {
	ClientID string `json:"client_id"`
}

// CredentialResponse は資格情報のレスポンス形式。
type CredentialResponse struct {
	ClientID     string `json:"client_id"`
	PrivateKey   string `json:"private_key"`
	PublicKey    string `json:"public_key"`
	APIKey       string `json:"api_key,omitempty"`
	CreatedAt    string `json:"created_at"`
	Status       string `json:"status"`
	ClientConfig string `json:"client_config"`
}

// MessageResponse は操作結果メッセージのレスポンス形式。
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse はヘルスチェックのレスポンス形式。
type HealthResponse struct {
	Status    string   `json:"status"`
	Timestamp string   `json:"timestamp"`
	Services  []string `json:"services"`
}

func credentialResponse(cred *domain.ClientCredential, clientConfig string) CredentialResponse {
	return CredentialResponse{
		ClientID:     cred.ClientID,
		PrivateKey:   cred.PrivateKey,
		PublicKey:    cred.PublicKey,
		APIKey:       cred.APIKey,
		CreatedAt:    cred.CreatedAt.Format(time.RFC3339),
		Status:       string(cred.Status),
		ClientConfig: clientConfig,
	}
}

// CreateUser は新しいVPNユーザーの資格情報を作成する。
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	if err := validateClientID(req.ClientID); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_CLIENT_ID", "invalid client ID format")
		return
	}

	cred, clientConfig, err := h.service.Create(r.Context(), req.ClientID)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "CREATE_USER", req.ClientID, "FAILED")
		switch {
		case errors.Is(err, domain.ErrCredentialAlreadyExists):
			httputil.Error(w, http.StatusConflict, "USER_ALREADY_EXISTS",
				fmt.Sprintf("user %s already exists", req.ClientID))
		case errors.Is(err, domain.ErrKeyGeneration):
			httputil.Error(w, http.StatusInternalServerError, "KEY_GENERATION_FAILED", "keypair generation failed")
		default:
			httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	middleware.WriteAuditLog(r.Context(), "CREATE_USER", req.ClientID, "SUCCESS")
	httputil.JSON(w, http.StatusCreated, credentialResponse(cred, clientConfig))
}

// ListUsers は登録済みの全クライアントIDを返す。
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ids := h.service.List(r.Context())
	middleware.WriteAuditLog(r.Context(), "LIST_USERS", "", "SUCCESS")
	httputil.JSON(w, http.StatusOK, ids)
}

// GetUser は指定されたユーザーの資格情報と設定文書を返す。
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "client_id")
	if err := validateClientID(clientID); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_CLIENT_ID", "invalid client ID format")
		return
	}

	cred, clientConfig, err := h.service.Get(r.Context(), clientID)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "GET_USER", clientID, "FAILED")
		if errors.Is(err, domain.ErrCredentialNotFound) {
			httputil.Error(w, http.StatusNotFound, "USER_NOT_FOUND",
				fmt.Sprintf("user %s not found", clientID))
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	middleware.WriteAuditLog(r.Context(), "GET_USER", clientID, "SUCCESS")
	httputil.JSON(w, http.StatusOK, credentialResponse(cred, clientConfig))
}

// DeleteUser は指定されたユーザーの資格情報を削除する。
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "client_id")
	if err := validateClientID(clientID); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_CLIENT_ID", "invalid client ID format")
		return
	}

	err := h.service.Delete(r.Context(), clientID)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "DELETE_USER", clientID, "FAILED")
		if errors.Is(err, domain.ErrCredentialNotFound) {
			httputil.Error(w, http.StatusNotFound, "USER_NOT_FOUND",
				fmt.Sprintf("user %s not found", clientID))
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	middleware.WriteAuditLog(r.Context(), "DELETE_USER", clientID, "SUCCESS")
	httputil.JSON(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("User %s deleted successfully", clientID),
	})
}

// Health はヘルスチェックに応答する。認証は不要。
func (h *UserHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  []string{"api"},
	})
}
