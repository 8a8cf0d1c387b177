package infra

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/curve25519"
)

// WGKeyGenerator はWireGuard用のCurve25519鍵ペアを生成する。
type WGKeyGenerator struct{}

// NewWGKeyGenerator は新しいWGKeyGeneratorを生成する。
func NewWGKeyGenerator() *WGKeyGenerator {
	return &WGKeyGenerator{}
}

// Generate は新しい秘密鍵・公開鍵ペアを生成する。
// 鍵はWireGuard設定ファイルと同じbase64形式で返す。
func (g *WGKeyGenerator) Generate() (privateKey, publicKey string, err error) {
	var private [32]byte
	if _, err := rand.Read(private[:]); err != nil {
		return "", "", fmt.Errorf("generating private key: %w", err)
	}

	public, err := curve25519.X25519(private[:], curve25519.Basepoint)
	if err != nil {
		return "", "", fmt.Errorf("deriving public key: %w", err)
	}

	return base64.StdEncoding.EncodeToString(private[:]),
		base64.StdEncoding.EncodeToString(public), nil
}
