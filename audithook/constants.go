package audithook

// Action constants for audit events.
const (
	// Service actions
	ActionServiceCreated  = "service.created"
	ActionPriceChanged    = "service.price_changed"
	ActionServicePaused   = "service.paused"
	ActionServiceUnpaused = "service.unpaused"

	// Subscription actions
	ActionSubscribed = "subscription.subscribed"

	// Earnings actions
	ActionEarningsWithdrawn = "earnings.withdrawn"
)

// Resource constants for audit events.
const (
	ResourceService      = "service"
	ResourceSubscription = "subscription"
	ResourceEarnings     = "earnings"
)

// Category constants for audit events.
const (
	CategoryCatalog      = "catalog"
	CategorySubscription = "subscription"
	CategoryPayment      = "payment"
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
