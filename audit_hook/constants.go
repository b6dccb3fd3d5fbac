package audithook

// Action constants for audit events.
const (
	// Ledger actions
	ActionPriceOverridden = "price.overridden"
	ActionPaymentRecorded = "payment.recorded"
	ActionPaymentRefunded = "payment.refunded"

	// Failure actions
	ActionCalculationImpossible = "price.calculation_impossible"
	ActionInvalidLedgerState    = "ledger.invalid_state"
)

// Resource constants for audit events.
const (
	ResourcePaymentEvent = "payment_event"
	ResourceSubject      = "subject"
	ResourceLedger       = "ledger"
)

// Category constants for audit events.
const (
	CategoryPricing   = "pricing"
	CategoryPayment   = "payment"
	CategoryIntegrity = "integrity"
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
