package audithook

// Action constants for audit events.
const (
	// Lifecycle actions
	ActionLedgerInitialized = "ledger.initialized"

	// Funds actions
	ActionPaymentReceived = "payment.received"
	ActionVaultWithdrawn  = "vault.withdrawn"

	// Authority actions
	ActionOwnershipTransferred = "ownership.transferred"

	// Rejections
	ActionOperationRejected = "operation.rejected"
)

// Resource constants for audit events.
const (
	ResourceLedger  = "ledger"
	ResourcePayment = "payment"
	ResourceVault   = "vault"
)

// Category constants for audit events.
const (
	CategoryCustody = "custody"
	CategoryPayment = "payment"
	CategoryAccess  = "access"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
