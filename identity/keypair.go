package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"
)

// KeyPair holds an ed25519 key pair and its derived Identity.
type KeyPair struct {
	private  ed25519.PrivateKey
	identity Identity
}

// GenerateKeyPair creates a key pair from crypto/rand.
func GenerateKeyPair() (*KeyPair, error) {
	return GenerateKeyPairFrom(rand.Reader)
}

// GenerateKeyPairFrom creates a key pair reading entropy from r.
func GenerateKeyPairFrom(r io.Reader) (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(r)
	if err != nil {
		return nil, fmt.Errorf("identity: generate key pair: %w", err)
	}
	id, err := FromPublicKey(pub)
	if err != nil {
		return nil, err
	}
	return &KeyPair{private: priv, identity: id}, nil
}

// KeyPairFromSeed rebuilds a key pair from a 32-byte seed.
func KeyPairFromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("identity: seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	id, err := FromPublicKey(priv.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	return &KeyPair{private: priv, identity: id}, nil
}

// KeyPairFromPrivateKey copies a 64-byte ed25519 private key.
func KeyPairFromPrivateKey(priv ed25519.PrivateKey) (*KeyPair, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("identity: private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(priv))
	}
	return KeyPairFromSeed(priv.Seed())
}

// Identity returns the public identity.
func (k *KeyPair) Identity() Identity { return k.identity }

// Seed returns the 32-byte private seed.
func (k *KeyPair) Seed() []byte { return k.private.Seed() }

// Sign signs msg and returns a 64-byte signature.
func (k *KeyPair) Sign(msg []byte) []byte {
	return ed25519.Sign(k.private, msg)
}
