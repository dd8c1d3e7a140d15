package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestGenerateKey(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}

	if len(key.PublicKey()) != 33 {
		t.Errorf("PublicKey() length = %d, want 33", len(key.PublicKey()))
	}
	if len(key.Serialize()) != 32 {
		t.Errorf("Serialize() length = %d, want 32", len(key.Serialize()))
	}
	if key.Address() != AddressFromPubKey(key.PublicKey()) {
		t.Error("Address() should derive from the compressed public key")
	}
}

func TestPrivateKeyFromHex(t *testing.T) {
	original, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}

	restored, err := PrivateKeyFromHex(hex.EncodeToString(original.Serialize()) + "\n")
	if err != nil {
		t.Fatalf("PrivateKeyFromHex() error: %v", err)
	}
	if !bytes.Equal(original.PublicKey(), restored.PublicKey()) {
		t.Error("restored key should have same public key")
	}

	for _, bad := range []string{"", "zz", hex.EncodeToString(make([]byte, 16))} {
		if _, err := PrivateKeyFromHex(bad); err == nil {
			t.Errorf("PrivateKeyFromHex(%q) should fail", bad)
		}
	}
}

func TestSign_Verify(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}

	hash := Hash([]byte("test message"))
	sig, err := key.Sign(hash[:])
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	if len(sig) != 64 {
		t.Errorf("signature length = %d, want 64", len(sig))
	}
	if !VerifySignature(hash[:], sig, key.PublicKey()) {
		t.Error("signature should verify against the correct key and hash")
	}

	if _, err := key.Sign([]byte("too short")); err == nil {
		t.Error("Sign() should reject non-32-byte hash")
	}
}

func TestSignMessage_VerifyMessage(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	other, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}

	payload := []byte(`{"transfer":{"token_id":"coin"}}`)
	sig, err := key.SignMessage("ledger_execute", payload)
	if err != nil {
		t.Fatalf("SignMessage() error: %v", err)
	}

	addr, ok := VerifyMessage("ledger_execute", payload, sig, key.PublicKey())
	if !ok {
		t.Fatal("VerifyMessage() rejected a valid signature")
	}
	if addr != key.Address() {
		t.Errorf("VerifyMessage() address = %s, want %s", addr, key.Address())
	}

	if _, ok := VerifyMessage("ledger_query", payload, sig, key.PublicKey()); ok {
		t.Error("signature must not verify under another domain")
	}
	if _, ok := VerifyMessage("ledger_execute", append(payload, ' '), sig, key.PublicKey()); ok {
		t.Error("signature must not verify over modified payload")
	}
	if _, ok := VerifyMessage("ledger_execute", payload, sig, other.PublicKey()); ok {
		t.Error("signature must not verify with another key")
	}
}

func TestVerify_InvalidInputs(t *testing.T) {
	tests := []struct {
		name      string
		hash      []byte
		signature []byte
		publicKey []byte
	}{
		{"nil hash", nil, make([]byte, 64), make([]byte, 33)},
		{"empty signature", make([]byte, 32), nil, make([]byte, 33)},
		{"empty public key", make([]byte, 32), make([]byte, 64), nil},
		{"short signature", make([]byte, 32), make([]byte, 10), make([]byte, 33)},
		{"garbage public key", make([]byte, 32), make([]byte, 64), []byte("bad")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if VerifySignature(tt.hash, tt.signature, tt.publicKey) {
				t.Error("should return false for invalid inputs")
			}
		})
	}
}

func TestPrivateKey_Zero(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	key.Zero()

	for _, b := range key.Serialize() {
		if b != 0 {
			t.Fatal("Serialize() should return zeros after Zero()")
		}
	}
}
