package usecase

import (
	"context"
	"errors"
	"testing"

	"vpn-credential-service/internal/domain"
)

// mockAuthRepository はテスト用のモック認証リポジトリ。
type mockAuthRepository struct {
	masterKey    string
	masterKeyErr error
	clientIDs    []string
	listErr      error
	bearerKeys   map[string]string
}

func (m *mockAuthRepository) MasterKey(ctx context.Context) (string, error) {
	if m.masterKeyErr != nil {
		return "", m.masterKeyErr
	}
	return m.masterKey, nil
}

func (m *mockAuthRepository) ListClientIDs(ctx context.Context) ([]string, error) {
	return m.clientIDs, m.listErr
}

func (m *mockAuthRepository) ClientBearerKey(ctx context.Context, clientID string) (string, error) {
	key, ok := m.bearerKeys[clientID]
	if !ok {
		return "", domain.ErrCredentialNotFound
	}
	return key, nil
}

func TestAuthService_RequireMaster_Success(t *testing.T) {
	repo := &mockAuthRepository{masterKey: "master-secret"}
	svc := NewAuthService(repo)

	if err := svc.RequireMaster(context.Background(), "master-secret"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAuthService_RequireMaster_Rejects(t *testing.T) {
	repo := &mockAuthRepository{masterKey: "master-secret"}
	svc := NewAuthService(repo)

	// マスターキー以外はすべて拒否する（空文字・クライアント鍵を含む）
	for _, token := range []string{"wrong", "", "client-api-key", "master-secret "} {
		err := svc.RequireMaster(context.Background(), token)
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("token %q: want ErrUnauthorized, got %v", token, err)
		}
	}
}

func TestAuthService_RequireMaster_NotConfigured(t *testing.T) {
	repo := &mockAuthRepository{masterKeyErr: domain.ErrMasterKeyNotConfigured}
	svc := NewAuthService(repo)

	err := svc.RequireMaster(context.Background(), "anything")
	if !errors.Is(err, domain.ErrMasterKeyNotConfigured) {
		t.Errorf("want ErrMasterKeyNotConfigured, got %v", err)
	}
	if errors.Is(err, domain.ErrUnauthorized) {
		t.Error("NotConfigured must be distinct from Unauthorized")
	}
}

func TestAuthService_RequireAny_MasterKey(t *testing.T) {
	repo := &mockAuthRepository{masterKey: "master-secret"}
	svc := NewAuthService(repo)

	if err := svc.RequireAny(context.Background(), "master-secret"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAuthService_RequireAny_ClientKey(t *testing.T) {
	repo := &mockAuthRepository{
		masterKey: "master-secret",
		clientIDs: []string{"alice", "bob"},
		bearerKeys: map[string]string{
			"alice": "alice-api-key",
			"bob":   "bob-api-key",
		},
	}
	svc := NewAuthService(repo)

	if err := svc.RequireAny(context.Background(), "bob-api-key"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestAuthService_RequireAny_MasterKeyNotConfigured はマスターキー未設定でも
// クライアント鍵の照合に進むことを確認する。
func TestAuthService_RequireAny_MasterKeyNotConfigured(t *testing.T) {
	repo := &mockAuthRepository{
		masterKeyErr: domain.ErrMasterKeyNotConfigured,
		clientIDs:    []string{"alice"},
		bearerKeys:   map[string]string{"alice": "alice-api-key"},
	}
	svc := NewAuthService(repo)

	if err := svc.RequireAny(context.Background(), "alice-api-key"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAuthService_RequireAny_NoMatch(t *testing.T) {
	repo := &mockAuthRepository{
		masterKey:  "master-secret",
		clientIDs:  []string{"alice"},
		bearerKeys: map[string]string{"alice": "alice-api-key"},
	}
	svc := NewAuthService(repo)

	err := svc.RequireAny(context.Background(), "unknown-token")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("want ErrUnauthorized, got %v", err)
	}
}

// TestAuthService_RequireAny_SkipsUnreadableClients は鍵が読めないクライアントを
// 読み飛ばして残りを照合することを確認する。
func TestAuthService_RequireAny_SkipsUnreadableClients(t *testing.T) {
	repo := &mockAuthRepository{
		masterKey:  "master-secret",
		clientIDs:  []string{"ghost", "alice"},
		bearerKeys: map[string]string{"alice": "alice-api-key"},
	}
	svc := NewAuthService(repo)

	if err := svc.RequireAny(context.Background(), "alice-api-key"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
