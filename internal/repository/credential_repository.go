// Package repository はパラメータストア上の資格情報レコードへのアクセスを提供する。
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"vpn-credential-service/internal/domain"
	"vpn-credential-service/internal/infra"
)

// クライアント1件を構成するパラメータのリーフ名。
const (
	leafPrivateKey = "wg-private-key"
	leafPublicKey  = "wg-public-key"
	leafAPIKey     = "api-key"
	leafCreatedAt  = "created-at"
	leafStatus     = "status"
)

// CredentialRepository はパラメータストア上の資格情報レコードを操作する。
type CredentialRepository struct {
	store  infra.ParamStore
	prefix string
}

// NewCredentialRepository は新しいCredentialRepositoryを生成する。
// prefixはストア名前空間のルート（例: /ephem-vpn）。
func NewCredentialRepository(store infra.ParamStore, prefix string) *CredentialRepository {
	return &CredentialRepository{
		store:  store,
		prefix: strings.TrimSuffix(prefix, "/"),
	}
}

func (r *CredentialRepository) masterKeyName() string {
	return r.prefix + "/master-api-key"
}

func (r *CredentialRepository) serverPublicKeyName() string {
	return r.prefix + "/wg/server-public-key"
}

func (r *CredentialRepository) usersPrefix() string {
	return r.prefix + "/users/"
}

func (r *CredentialRepository) userParamName(clientID, leaf string) string {
	return r.usersPrefix() + clientID + "/" + leaf
}

// Exists は指定されたクライアントの資格情報が存在するか確認する。
// 秘密鍵パラメータの有無を存在判定に使う（復号は不要）。
func (r *CredentialRepository) Exists(ctx context.Context, clientID string) (bool, error) {
	_, err := r.store.Get(ctx, r.userParamName(clientID, leafPrivateKey), false)
	if err != nil {
		if errors.Is(err, infra.ErrParameterNotFound) {
			return false, nil
		}
		slog.ErrorContext(ctx, "failed to check credential existence",
			"operation", "exists",
			"client_id", clientID,
			"error", err,
		)
		return false, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return true, nil
}

// Create は資格情報を構成する全パラメータを1つの論理単位として書き込む。
// 先頭の秘密鍵パラメータは上書き禁止で書き込み、ストア側でも二重作成を
// 拒否させる（同一クライアントの同時作成に対する条件付き書き込み）。
// 途中で失敗した場合は書き込み済みパラメータを削除して巻き戻す。
func (r *CredentialRepository) Create(ctx context.Context, cred *domain.ClientCredential) error {
	params := []infra.Parameter{
		{Name: r.userParamName(cred.ClientID, leafPrivateKey), Value: cred.PrivateKey, Secure: true},
		{Name: r.userParamName(cred.ClientID, leafPublicKey), Value: cred.PublicKey, Secure: false},
		{Name: r.userParamName(cred.ClientID, leafAPIKey), Value: cred.APIKey, Secure: true},
		{Name: r.userParamName(cred.ClientID, leafCreatedAt), Value: cred.CreatedAt.UTC().Format(time.RFC3339), Secure: false},
		{Name: r.userParamName(cred.ClientID, leafStatus), Value: string(cred.Status), Secure: false},
	}

	var written []string
	for i, p := range params {
		overwrite := i > 0
		if err := r.store.Put(ctx, p, overwrite); err != nil {
			if errors.Is(err, infra.ErrParameterAlreadyExists) {
				return domain.ErrCredentialAlreadyExists
			}
			slog.ErrorContext(ctx, "failed to write credential parameter, rolling back",
				"operation", "create",
				"client_id", cred.ClientID,
				"parameter", p.Name,
				"error", err,
			)
			r.rollback(ctx, written)
			return fmt.Errorf("%w: writing %s: %v", domain.ErrStoreUnavailable, p.Name, err)
		}
		written = append(written, p.Name)
	}
	return nil
}

// rollback は部分的に書き込まれたパラメータを削除する。
// 見かけ上「存在する」状態の不完全なレコードを残さないための補償処理。
func (r *CredentialRepository) rollback(ctx context.Context, names []string) {
	for _, name := range names {
		if err := r.store.Delete(ctx, name); err != nil && !errors.Is(err, infra.ErrParameterNotFound) {
			slog.ErrorContext(ctx, "rollback failed, partial credential record may remain",
				"operation", "create",
				"parameter", name,
				"error", err,
			)
		}
	}
}

// Find は指定されたクライアントの資格情報を取得する。
// 秘密鍵・公開鍵のどちらかが欠けていればレコードなしとしてnilを返す。
// メタデータ（api-key / created-at / status）の読み取りはベストエフォートで、
// 欠落していてもゼロ値のまま返す（補完は呼び出し側の責務）。
func (r *CredentialRepository) Find(ctx context.Context, clientID string) (*domain.ClientCredential, error) {
	privateKey, err := r.store.Get(ctx, r.userParamName(clientID, leafPrivateKey), true)
	if err != nil {
		if errors.Is(err, infra.ErrParameterNotFound) {
			return nil, nil
		}
		slog.ErrorContext(ctx, "failed to read private key",
			"operation", "find",
			"client_id", clientID,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	publicKey, err := r.store.Get(ctx, r.userParamName(clientID, leafPublicKey), false)
	if err != nil {
		if errors.Is(err, infra.ErrParameterNotFound) {
			return nil, nil
		}
		slog.ErrorContext(ctx, "failed to read public key",
			"operation", "find",
			"client_id", clientID,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	cred := &domain.ClientCredential{
		ClientID:   clientID,
		PrivateKey: privateKey,
		PublicKey:  publicKey,
	}

	if apiKey, err := r.store.Get(ctx, r.userParamName(clientID, leafAPIKey), true); err == nil {
		cred.APIKey = apiKey
	}
	if createdAt, err := r.store.Get(ctx, r.userParamName(clientID, leafCreatedAt), false); err == nil {
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			cred.CreatedAt = t
		}
	}
	if status, err := r.store.Get(ctx, r.userParamName(clientID, leafStatus), false); err == nil {
		cred.Status = domain.CredentialStatus(status)
	}

	return cred, nil
}

// ListClientIDs は登録済みの全クライアントIDを返す。
// パラメータ名のクライアントIDセグメントを抽出し、重複を除いてソートして返す。
func (r *CredentialRepository) ListClientIDs(ctx context.Context) ([]string, error) {
	names, err := r.store.ListNames(ctx, r.usersPrefix())
	if err != nil {
		slog.ErrorContext(ctx, "failed to list credential parameters",
			"operation", "list_client_ids",
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	seen := make(map[string]bool)
	var ids []string
	for _, name := range names {
		rest := strings.TrimPrefix(name, r.usersPrefix())
		if rest == name {
			continue
		}
		clientID, _, ok := strings.Cut(rest, "/")
		if !ok || clientID == "" || seen[clientID] {
			continue
		}
		seen[clientID] = true
		ids = append(ids, clientID)
	}
	return ids, nil
}

// Delete は指定されたクライアントの全パラメータを削除する。
// 一部のパラメータが既に存在しなくても冪等に成功する。
func (r *CredentialRepository) Delete(ctx context.Context, clientID string) error {
	leaves := []string{leafPrivateKey, leafPublicKey, leafAPIKey, leafCreatedAt, leafStatus}
	for _, leaf := range leaves {
		name := r.userParamName(clientID, leaf)
		if err := r.store.Delete(ctx, name); err != nil && !errors.Is(err, infra.ErrParameterNotFound) {
			slog.ErrorContext(ctx, "failed to delete credential parameter",
				"operation", "delete",
				"client_id", clientID,
				"parameter", name,
				"error", err,
			)
			return fmt.Errorf("%w: deleting %s: %v", domain.ErrStoreUnavailable, name, err)
		}
	}
	return nil
}

// MasterKey はマスターAPIキーを取得する。
// 未設定の場合はErrMasterKeyNotConfiguredを返す（運用者エラー）。
func (r *CredentialRepository) MasterKey(ctx context.Context) (string, error) {
	key, err := r.store.Get(ctx, r.masterKeyName(), true)
	if err != nil {
		if errors.Is(err, infra.ErrParameterNotFound) {
			return "", domain.ErrMasterKeyNotConfigured
		}
		slog.ErrorContext(ctx, "failed to read master api key",
			"operation", "master_key",
			"error", err,
		)
		return "", fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return key, nil
}

// SetMasterKey はマスターAPIキーを保存する。
// overwriteがfalseで既に設定済みの場合はErrParameterAlreadyExistsを返す。
func (r *CredentialRepository) SetMasterKey(ctx context.Context, key string, overwrite bool) error {
	return r.store.Put(ctx, infra.Parameter{
		Name:   r.masterKeyName(),
		Value:  key,
		Secure: true,
	}, overwrite)
}

// SetServerPublicKey はサーバーのWireGuard公開鍵を保存する。
func (r *CredentialRepository) SetServerPublicKey(ctx context.Context, key string) error {
	return r.store.Put(ctx, infra.Parameter{
		Name:   r.serverPublicKeyName(),
		Value:  strings.TrimSpace(key),
		Secure: true,
	}, true)
}

// ServerPublicKey はサーバーのWireGuard公開鍵を取得する。
func (r *CredentialRepository) ServerPublicKey(ctx context.Context) (string, error) {
	key, err := r.store.Get(ctx, r.serverPublicKeyName(), true)
	if err != nil {
		if errors.Is(err, infra.ErrParameterNotFound) {
			return "", domain.ErrServerKeyNotConfigured
		}
		return "", fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return strings.TrimSpace(key), nil
}

// ClientBearerKey は指定されたクライアントのAPI認証用シークレットを返す。
// 専用のapi-keyを持たない旧レコードは保存済み公開鍵にフォールバックする。
func (r *CredentialRepository) ClientBearerKey(ctx context.Context, clientID string) (string, error) {
	key, err := r.store.Get(ctx, r.userParamName(clientID, leafAPIKey), true)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, infra.ErrParameterNotFound) {
		return "", fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	key, err = r.store.Get(ctx, r.userParamName(clientID, leafPublicKey), false)
	if err != nil {
		if errors.Is(err, infra.ErrParameterNotFound) {
			return "", domain.ErrCredentialNotFound
		}
		return "", fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return key, nil
}
