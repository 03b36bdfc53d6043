package main

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"

	"github.com/xraph/custody/identity"
)

// Key files hold the 64-byte ed25519 private key (seed followed by public
// key) as a JSON array of integers.

func readKeyFile(path string) (*identity.KeyPair, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	var ints []int
	if err := json.Unmarshal(raw, &ints); err != nil {
		return nil, fmt.Errorf("parse key file %s: %w", path, err)
	}
	priv := make(ed25519.PrivateKey, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("parse key file %s: byte %d out of range", path, i)
		}
		priv[i] = byte(v)
	}
	kp, err := identity.KeyPairFromPrivateKey(priv)
	if err != nil {
		return nil, err
	}
	if !kp.Identity().Equal(identity.Identity(priv[ed25519.SeedSize:])) {
		return nil, fmt.Errorf("key file %s: public key does not match seed", path)
	}
	return kp, nil
}

func writeKeyFile(path string, kp *identity.KeyPair) error {
	priv := append(kp.Seed(), kp.Identity().Bytes()...)
	ints := make([]int, len(priv))
	for i, b := range priv {
		ints[i] = int(b)
	}
	raw, err := json.Marshal(ints)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	return nil
}
