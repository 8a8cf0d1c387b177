package infra

import (
	"encoding/base64"
	"testing"
)

func TestWGKeyGenerator_Generate(t *testing.T) {
	gen := NewWGKeyGenerator()

	privateKey, publicKey, err := gen.Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	// WireGuardの鍵は32バイトのbase64表現
	for name, key := range map[string]string{"private": privateKey, "public": publicKey} {
		raw, err := base64.StdEncoding.DecodeString(key)
		if err != nil {
			t.Errorf("%s key is not valid base64: %v", name, err)
			continue
		}
		if len(raw) != 32 {
			t.Errorf("%s key: want 32 bytes, got %d", name, len(raw))
		}
	}
	if privateKey == publicKey {
		t.Error("private and public keys must differ")
	}
}

func TestWGKeyGenerator_Generate_Unique(t *testing.T) {
	gen := NewWGKeyGenerator()

	seen := make(map[string]bool)
	for i := 0; i < 16; i++ {
		privateKey, _, err := gen.Generate()
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if seen[privateKey] {
			t.Fatal("duplicate private key generated")
		}
		seen[privateKey] = true
	}
}
