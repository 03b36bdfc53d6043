package identity

import "crypto/ed25519"

// Verifier checks that signature was produced over msg by the holder of id.
type Verifier interface {
	Verify(id Identity, msg, signature []byte) bool
}

// VerifierFunc adapts a plain function to a Verifier.
type VerifierFunc func(id Identity, msg, signature []byte) bool

// Verify implements Verifier.
func (f VerifierFunc) Verify(id Identity, msg, signature []byte) bool {
	return f(id, msg, signature)
}

// Ed25519 is the default Verifier.
var Ed25519 Verifier = VerifierFunc(verifyEd25519)

func verifyEd25519(id Identity, msg, signature []byte) bool {
	if len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(id.PublicKey(), msg, signature)
}
