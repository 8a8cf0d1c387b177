package usecase

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"

	"vpn-credential-service/internal/domain"
)

// AuthRepository は認証に必要なデータアクセスのインターフェース。
type AuthRepository interface {
	MasterKey(ctx context.Context) (string, error)
	ListClientIDs(ctx context.Context) ([]string, error)
	ClientBearerKey(ctx context.Context, clientID string) (string, error)
}

// AuthService はベアラートークンの認証を提供する。
type AuthService struct {
	repo AuthRepository
}

// NewAuthService は新しいAuthServiceを生成する。
func NewAuthService(repo AuthRepository) *AuthService {
	return &AuthService{repo: repo}
}

// secureCompare はタイミング攻撃に耐性のある文字列比較を行う。
// 長さの違いも漏らさないよう、ダイジェスト同士を定数時間で比較する。
func secureCompare(a, b string) bool {
	ah := sha256.Sum256([]byte(a))
	bh := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ah[:], bh[:]) == 1
}

// RequireMaster はトークンがマスターAPIキーと一致するか検証する。
// マスターキー未設定はErrMasterKeyNotConfiguredとして呼び出し側の
// 認証失敗と区別する（運用者が対処すべきエラー）。
func (s *AuthService) RequireMaster(ctx context.Context, token string) error {
	masterKey, err := s.repo.MasterKey(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrMasterKeyNotConfigured) {
			return err
		}
		return fmt.Errorf("reading master key: %w", err)
	}
	if !secureCompare(token, masterKey) {
		return domain.ErrUnauthorized
	}
	return nil
}

// RequireAny はトークンがマスターキーまたはいずれかのクライアントの
// ベアラーシークレットと一致するか検証する。
// マスターキー未設定はここでは不一致として扱い、クライアント鍵の照合に進む。
// クライアント数に比例する線形走査だが、比較自体は定数時間で行う。
func (s *AuthService) RequireAny(ctx context.Context, token string) error {
	masterKey, err := s.repo.MasterKey(ctx)
	if err == nil && secureCompare(token, masterKey) {
		return nil
	}
	if err != nil && !errors.Is(err, domain.ErrMasterKeyNotConfigured) {
		return fmt.Errorf("reading master key: %w", err)
	}

	clientIDs, err := s.repo.ListClientIDs(ctx)
	if err != nil {
		return fmt.Errorf("listing clients: %w", err)
	}

	for _, clientID := range clientIDs {
		key, err := s.repo.ClientBearerKey(ctx, clientID)
		if err != nil {
			// 削除競合等で鍵が取れないクライアントは読み飛ばす
			continue
		}
		if secureCompare(token, key) {
			return nil
		}
	}
	return domain.ErrUnauthorized
}
