// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"vpn-credential-service/internal/domain"
	"vpn-credential-service/pkg/httputil"
)

// AuthGate はベアラートークン検証のインターフェース。
type AuthGate interface {
	RequireMaster(ctx context.Context, token string) error
	RequireAny(ctx context.Context, token string) error
}

// RequireMaster はマスターAPIキーを要求するミドルウェアを返す。
func RequireMaster(gate AuthGate) func(http.Handler) http.Handler {
	return authMiddleware(gate.RequireMaster)
}

// RequireAny はマスターまたはクライアントのAPIキーを要求するミドルウェアを返す。
func RequireAny(gate AuthGate) func(http.Handler) http.Handler {
	return authMiddleware(gate.RequireAny)
}

func authMiddleware(check func(context.Context, string) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				httputil.Error(w, http.StatusUnauthorized, "MISSING_CREDENTIALS", "bearer token required")
				return
			}
			if err := check(r.Context(), token); err != nil {
				switch {
				case errors.Is(err, domain.ErrUnauthorized):
					httputil.Error(w, http.StatusUnauthorized, "INVALID_API_KEY", "invalid API key")
				case errors.Is(err, domain.ErrMasterKeyNotConfigured):
					httputil.Error(w, http.StatusInternalServerError, "MASTER_KEY_NOT_CONFIGURED", "master API key not configured")
				default:
					httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken はAuthorizationヘッダからベアラートークンを取り出す。
func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", false
	}
	return token, true
}
