package custody

import (
	"github.com/xraph/custody/address"
	"github.com/xraph/custody/identity"
	"github.com/xraph/custody/types"
)

// Re-export common types for convenience so users don't have to import the
// leaf packages.

// Identity is re-exported from the identity package.
type Identity = identity.Identity

// KeyPair is re-exported from the identity package.
type KeyPair = identity.KeyPair

// Address is re-exported from the address package.
type Address = address.Address

// Amount is re-exported from the types package.
type Amount = types.Amount

// Re-export constructors
var (
	GenerateKeyPair = identity.GenerateKeyPair
	ParseIdentity   = identity.Parse
	ParseAddress    = address.Parse
	ParseAmount     = types.ParseAmount
)
