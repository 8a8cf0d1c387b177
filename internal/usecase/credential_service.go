// Package usecase はアプリケーションのユースケースを実装する。
package usecase

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"vpn-credential-service/internal/domain"
)

const apiKeySize = 32

// serverKeyPlaceholder はサーバー公開鍵が未設定の場合に設定文書へ埋め込む値。
// 設定文書は人手で修正できるため、鍵が未設定でもエラーにはしない。
const serverKeyPlaceholder = "SERVER_PUBLIC_KEY_PLACEHOLDER"

const clientConfigTemplate = `# WireGuard VPN Client Configuration for %s
# Save this as %s.conf and use with: wg-quick up %s.conf

[Interface]
PrivateKey = %s
Address = 10.0.0.%d/24
DNS = 8.8.8.8, 8.8.4.4

[Peer]
PublicKey = %s
Endpoint = %s
AllowedIPs = 0.0.0.0/0
PersistentKeepalive = 25

# To connect:
# 1. Install WireGuard: https://www.wireguard.com/install/
# 2. Save this config as %s.conf
# 3. Run: wg-quick up %s.conf
# 4. To disconnect: wg-quick down %s.conf
`

// CredentialRepository は資格情報レコードへのデータアクセスのインターフェース。
type CredentialRepository interface {
	Exists(ctx context.Context, clientID string) (bool, error)
	Create(ctx context.Context, cred *domain.ClientCredential) error
	Find(ctx context.Context, clientID string) (*domain.ClientCredential, error)
	ListClientIDs(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, clientID string) error
	ServerPublicKey(ctx context.Context) (string, error)
}

// KeypairGenerator はWireGuard鍵ペア生成のインターフェース。
type KeypairGenerator interface {
	Generate() (privateKey, publicKey string, err error)
}

// EndpointResolver はサーバーエンドポイント解決のインターフェース。
type EndpointResolver interface {
	Resolve(ctx context.Context) string
}

// CredentialService はクライアント資格情報のライフサイクルを管理する。
type CredentialService struct {
	repo     CredentialRepository
	keygen   KeypairGenerator
	endpoint EndpointResolver

	// 同一クライアントIDの同時作成を直列化するロック。
	// 存在確認と書き込みの間の競合をプロセス内で閉じる
	// （ストア側の条件付き書き込みが最終防衛線）。
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCredentialService は新しいCredentialServiceを生成する。
func NewCredentialService(repo CredentialRepository, keygen KeypairGenerator, endpoint EndpointResolver) *CredentialService {
	return &CredentialService{
		repo:     repo,
		keygen:   keygen,
		endpoint: endpoint,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *CredentialService) clientLock(clientID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[clientID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[clientID] = l
	}
	return l
}

// newAPIKey はAPI認証用のベアラーシークレットを生成する。
func newAPIKey() (string, error) {
	buf := make([]byte, apiKeySize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating api key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Create は新しいクライアント資格情報を生成して保存する。
// 鍵生成に失敗した場合はErrKeyGenerationを返し、ストアには何も書き込まない。
// 返り値は保存した資格情報と描画済みのクライアント設定文書。
func (s *CredentialService) Create(ctx context.Context, clientID string) (*domain.ClientCredential, string, error) {
	lock := s.clientLock(clientID)
	lock.Lock()
	defer lock.Unlock()

	exists, err := s.repo.Exists(ctx, clientID)
	if err != nil {
		return nil, "", fmt.Errorf("checking existing credential: %w", err)
	}
	if exists {
		return nil, "", domain.ErrCredentialAlreadyExists
	}

	privateKey, publicKey, err := s.keygen.Generate()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrKeyGeneration, err)
	}

	apiKey, err := newAPIKey()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrKeyGeneration, err)
	}

	cred := &domain.ClientCredential{
		ClientID:   clientID,
		PrivateKey: privateKey,
		PublicKey:  publicKey,
		APIKey:     apiKey,
		CreatedAt:  time.Now().UTC(),
		Status:     domain.CredentialStatusActive,
	}
	if err := s.repo.Create(ctx, cred); err != nil {
		return nil, "", err
	}

	return cred, s.RenderConfig(ctx, clientID, privateKey), nil
}

// Get は指定されたクライアントの資格情報と設定文書を取得する。
// 鍵ペアが欠けていればErrCredentialNotFoundを返す。
// created-at/statusの欠落は過去の不完全レコードの修復として
// 現在時刻/activeで補完する（エラー隠蔽ではなくデータ修復）。
func (s *CredentialService) Get(ctx context.Context, clientID string) (*domain.ClientCredential, string, error) {
	cred, err := s.repo.Find(ctx, clientID)
	if err != nil {
		return nil, "", fmt.Errorf("finding credential: %w", err)
	}
	if cred == nil {
		return nil, "", domain.ErrCredentialNotFound
	}

	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now().UTC()
	}
	if cred.Status == "" {
		cred.Status = domain.CredentialStatusActive
	}

	return cred, s.RenderConfig(ctx, clientID, cred.PrivateKey), nil
}

// List は登録済みの全クライアントIDを返す。
// 列挙失敗は「クライアントなし」として空リストに落とす。
// 強い一貫性が必要な監査用途には使えない。
func (s *CredentialService) List(ctx context.Context) []string {
	ids, err := s.repo.ListClientIDs(ctx)
	if err != nil {
		slog.WarnContext(ctx, "listing credentials failed, returning empty list", "error", err)
		return []string{}
	}
	if ids == nil {
		ids = []string{}
	}
	return ids
}

// Delete は指定されたクライアントの資格情報を削除する。
// 存在しない場合はErrCredentialNotFoundを返す。
// 一部パラメータが欠けたレコードの削除は冪等に成功する。
func (s *CredentialService) Delete(ctx context.Context, clientID string) error {
	exists, err := s.repo.Exists(ctx, clientID)
	if err != nil {
		return fmt.Errorf("checking existing credential: %w", err)
	}
	if !exists {
		return domain.ErrCredentialNotFound
	}

	if err := s.repo.Delete(ctx, clientID); err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	return nil
}

// RenderConfig はクライアント設定文書を描画する。
// サーバー公開鍵の取得失敗はプレースホルダで置き換え、決してエラーにしない。
func (s *CredentialService) RenderConfig(ctx context.Context, clientID, privateKey string) string {
	serverKey, err := s.repo.ServerPublicKey(ctx)
	if err != nil || serverKey == "" {
		serverKey = serverKeyPlaceholder
	}

	endpoint := s.endpoint.Resolve(ctx)
	suffix := AssignAddressSuffix(clientID)

	return fmt.Sprintf(clientConfigTemplate,
		clientID, clientID, clientID,
		privateKey, suffix,
		serverKey, endpoint,
		clientID, clientID, clientID,
	)
}
