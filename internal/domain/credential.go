// Package domain はドメインモデルとビジネスルールを定義する。
package domain

import "time"

// CredentialStatus はクライアント資格情報のステータスを表す。
type CredentialStatus string

const (
	// CredentialStatusActive は有効な資格情報を表す。
	CredentialStatusActive CredentialStatus = "active"
)

// ClientCredential はクライアント1件分のWireGuard資格情報を表す。
// PrivateKeyとAPIKeyは機密値であり、ストアでは暗号化パラメータとして保持される。
type ClientCredential struct {
	ClientID   string
	PrivateKey string
	PublicKey  string
	// APIKey はAPI認証用のベアラーシークレット。
	// 公開鍵をベアラートークンとして流用しない専用シークレット。
	APIKey    string
	CreatedAt time.Time
	Status    CredentialStatus
}
