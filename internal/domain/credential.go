package domain

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Credential is one signing identity: a ledger account id plus its ed25519
// keypair.
type Credential struct {
	AccountID string
	PublicKey ed25519.PublicKey
	SecretKey ed25519.PrivateKey
}

// ParseCredential decodes base64-encoded key material into a Credential. The
// secret key may be either a 32-byte seed or a full 64-byte private key.
func ParseCredential(accountID, secretKeyB64 string) (Credential, error) {
	raw, err := base64.StdEncoding.DecodeString(secretKeyB64)
	if err != nil {
		return Credential{}, fmt.Errorf("domain: credential %s: decode secret key: %w", accountID, err)
	}

	var priv ed25519.PrivateKey
	switch len(raw) {
	case ed25519.SeedSize:
		priv = ed25519.NewKeyFromSeed(raw)
	case ed25519.PrivateKeySize:
		priv = ed25519.PrivateKey(raw)
	default:
		return Credential{}, fmt.Errorf("domain: credential %s: secret key must be %d or %d bytes, got %d",
			accountID, ed25519.SeedSize, ed25519.PrivateKeySize, len(raw))
	}

	return Credential{
		AccountID: accountID,
		PublicKey: priv.Public().(ed25519.PublicKey),
		SecretKey: priv,
	}, nil
}

// GenerateCredential creates a fresh ed25519 keypair for a new test account.
func GenerateCredential(accountID string) (Credential, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Credential{}, fmt.Errorf("domain: generate credential for %s: %w", accountID, err)
	}
	return Credential{AccountID: accountID, PublicKey: pub, SecretKey: priv}, nil
}

// PublicKeyString returns the base64 wire encoding of the public key, as
// passed to create_account.
func (c Credential) PublicKeyString() string {
	return "ed25519:" + base64.StdEncoding.EncodeToString(c.PublicKey)
}
