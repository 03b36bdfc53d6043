// Package event defines the typed events the custody ledger emits after a
// state transition commits, and after an operation is rejected.
package event

import (
	"time"

	"github.com/xraph/custody/address"
	"github.com/xraph/custody/id"
	"github.com/xraph/custody/identity"
	"github.com/xraph/custody/types"
)

// Kind names an event type. It doubles as the Kafka message key suffix and
// the audit action.
type Kind string

// Event kinds.
const (
	KindInitialized          Kind = "custody.initialized"
	KindPaymentReceived      Kind = "custody.payment_received"
	KindWithdrawn            Kind = "custody.withdrawn"
	KindOwnershipTransferred Kind = "custody.ownership_transferred"
	KindRejected             Kind = "custody.rejected"
)

// Header is common to every event.
type Header struct {
	ID         id.ID           `json:"id"`
	Kind       Kind            `json:"kind"`
	ProgramID  address.Address `json:"program_id"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Event is implemented by every event type.
type Event interface {
	EventHeader() Header
}

// EventHeader implements Event.
func (h Header) EventHeader() Header { return h }

// NewHeader stamps a header for kind.
func NewHeader(kind Kind, program address.Address, at time.Time) Header {
	return Header{
		ID:         id.New(prefixFor(kind)),
		Kind:       kind,
		ProgramID:  program,
		OccurredAt: at.UTC(),
	}
}

func prefixFor(kind Kind) id.Prefix {
	switch kind {
	case KindInitialized:
		return id.PrefixInitialized
	case KindPaymentReceived:
		return id.PrefixPayment
	case KindWithdrawn:
		return id.PrefixWithdrawal
	case KindOwnershipTransferred:
		return id.PrefixOwnership
	default:
		return id.PrefixRejection
	}
}

// Initialized is emitted once, when the ledger state is created.
type Initialized struct {
	Header
	Authority identity.Identity `json:"authority"`
	Payer     identity.Identity `json:"payer"`
	State     address.Address   `json:"state"`
	StateBump uint8             `json:"state_bump"`
	Vault     address.Address   `json:"vault"`
	VaultBump uint8             `json:"vault_bump"`
}

// PaymentReceived is emitted for every receipt, including zero-amount
// receipts when they are allowed.
type PaymentReceived struct {
	Header
	PaymentID    uint64            `json:"payment_id"`
	Payer        identity.Identity `json:"payer"`
	Amount       types.Amount      `json:"amount"`
	Timestamp    int64             `json:"timestamp"`
	Record       address.Address   `json:"record"`
	VaultBalance types.Amount      `json:"vault_balance"`
}

// Withdrawn is emitted when the vault is drained to the authority.
type Withdrawn struct {
	Header
	Authority identity.Identity `json:"authority"`
	Amount    types.Amount      `json:"amount"`
	Vault     address.Address   `json:"vault"`
}

// OwnershipTransferred is emitted when the authority changes.
type OwnershipTransferred struct {
	Header
	Previous identity.Identity `json:"previous"`
	Next     identity.Identity `json:"next"`
}

// Rejected is emitted when an operation fails. Nothing was written.
type Rejected struct {
	Header
	Op     string            `json:"op"`
	Caller identity.Identity `json:"caller"`
	Reason string            `json:"reason"`
	Err    error             `json:"-"`
}
