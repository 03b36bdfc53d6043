package custody

import "github.com/xraph/custody/address"

// Debit exposes the sealed vault debit to tests.
var Debit = debit

// SetStateDerivation swaps the state address derivation until the returned
// func is called.
func SetStateDerivation(fn func(programID address.Address) (address.Address, uint8, error)) (restore func()) {
	prev := deriveState
	deriveState = fn
	return func() { deriveState = prev }
}
