package middleware

import (
	"context"
	"log/slog"
	"time"
)

// WriteAuditLog は資格情報操作の監査ログを出力する。
func WriteAuditLog(ctx context.Context, operation, clientID, result string) {
	slog.InfoContext(ctx, "credential operation completed",
		"operation", operation,
		"client_id", clientID,
		"result", result,
		"timestamp", time.Now().UTC().Format(time.RFC3339),
	)
}
