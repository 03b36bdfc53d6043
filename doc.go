// Package custody provides a custodial payment ledger for Go applications.
//
// A single deployment holds one ledger state (an authority identity and a
// payment counter) and one custody vault. Payers move funds into the vault
// and get an immutable, sequentially numbered receipt. Only the current
// authority can drain the vault or hand authority to someone else.
//
// Records are not linked by reference. Each is located by deriving its
// address from fixed seeds and the program identity:
//
//	state    ["payment_state"]
//	vault    ["vault", state]
//	receipt  ["payment", le64(payment_id)]
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/custody"
//	    "github.com/xraph/custody/instruction"
//	    "github.com/xraph/custody/store/memory"
//	)
//
//	l := custody.New(memory.New())
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
//	owner, _ := custody.GenerateKeyPair()
//	caller, _ := l.Sign(ctx, owner, instruction.Initialize(owner.Identity()))
//	if _, err := l.Initialize(ctx, caller, owner.Identity()); err != nil {
//	    log.Fatal(err)
//	}
//
// # Operations
//
// Every operation is signed. Sign binds the instruction to the current
// payment counter, so a signature is good for one ledger version only.
// Each operation runs under a lock on the state address inside one store
// transaction; a failed operation leaves no trace. Errors are returned as
// *OperationError wrapping a sentinel such as ErrUnauthorized.
//
// # Stores
//
// Stores live under store/: memory, sqlite, postgres and mongo. All of them
// pass the store/storetest conformance suite.
//
// # Plugins
//
// Plugins receive typed events after commit. See the plugin, audit_hook,
// observability and kafka_hook packages.
package custody
