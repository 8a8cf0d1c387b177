package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"vpn-credential-service/internal/middleware"
)

// NewRouter はルーターを生成する。
// ユーザー作成・削除はマスターキー必須、参照系は任意の有効キーで許可する。
func NewRouter(h *UserHandler, gate middleware.AuthGate) http.Handler {
	r := chi.NewRouter()

	// ミドルウェア
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)

	// ルート定義
	r.Get("/health", h.Health)
	r.Route("/users", func(r chi.Router) {
		r.With(middleware.RequireMaster(gate)).Post("/", h.CreateUser)
		r.With(middleware.RequireAny(gate)).Get("/", h.ListUsers)
		r.With(middleware.RequireAny(gate)).Get("/{client_id}", h.GetUser)
		r.With(middleware.RequireMaster(gate)).Delete("/{client_id}", h.DeleteUser)
	})

	return otelhttp.NewHandler(r, "vpn-credential-service")
}
