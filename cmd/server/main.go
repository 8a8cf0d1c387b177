// Package main はAPIサーバーのエントリポイント。
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"vpn-credential-service/config"
	"vpn-credential-service/internal/handler"
	"vpn-credential-service/internal/infra"
	"vpn-credential-service/internal/repository"
	"vpn-credential-service/internal/usecase"
)

func main() {
	ctx := context.Background()

	// .envファイルを読み込む（存在しない場合は無視）
	// 既存の環境変数は上書きしない
	_ = godotenv.Load()

	// 設定読み込み
	cfg := config.Load()

	// ログレベル設定
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "DEBUG":
		logLevel = slog.LevelDebug
	case "WARN":
		logLevel = slog.LevelWarn
	case "ERROR":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	// トレーサー初期化（ロガー設定の前に実行）
	tp, err := infra.InitTracer(ctx, cfg)
	if err != nil {
		slog.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	if tp != nil {
		defer func() {
			if err := tp.Shutdown(ctx); err != nil {
				slog.Error("failed to shutdown tracer", "error", err)
			}
		}()
	}

	// トレース情報付きロガーを設定
	infra.SetupLogger(cfg, logLevel)

	// パラメータストア初期化
	store, err := newParamStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to init parameter store", "error", err)
		os.Exit(1)
	}

	// DI
	repo := repository.NewCredentialRepository(store, cfg.SSMPrefix)
	resolver := infra.NewEndpointResolver(cfg)
	keygen := infra.NewWGKeyGenerator()
	credentialService := usecase.NewCredentialService(repo, keygen, resolver)
	authService := usecase.NewAuthService(repo)
	h := handler.NewUserHandler(credentialService)
	router := handler.NewRouter(h, authService)

	// サーバー起動
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("starting server", "port", cfg.Port, "param_store", cfg.ParamStore, "prefix", cfg.SSMPrefix)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// newParamStore は設定に応じたパラメータストア実装を生成する。
func newParamStore(ctx context.Context, cfg *config.Config) (infra.ParamStore, error) {
	switch cfg.ParamStore {
	case "local":
		return infra.NewLocalParamStore(cfg.LocalStorePath)
	default:
		return infra.NewSSMParamStore(ctx, cfg.AWSRegion)
	}
}
