// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication / capabilities
	KeyAuthRequired     = "auth.required"
	KeyAuthInvalidToken = "auth.invalid_token"
	KeyAuthTokenExpired = "auth.token_expired"
	KeyCapabilityDenied = "capability.denied"

	// Products
	KeyProductCreated  = "product.created"
	KeyProductNotFound = "product.not_found"
	KeyProductClosed   = "product.closed"

	// Bids
	KeyBidPlaced    = "bid.placed"
	KeyBidSelected  = "bid.selected"
	KeyBidNotFound  = "bid.not_found"
	KeyBidDuplicate = "bid.duplicate"

	// Orders
	KeyOrderSubmitted = "order.submitted"
	KeyOrderConfirmed = "order.confirmed"

	// Complaints
	KeyComplaintFiled    = "complaint.filed"
	KeyComplaintNotFound = "complaint.not_found"
	KeyComplaintResolved = "complaint.resolved"

	// Accounts
	KeyAccountNotFound = "account.not_found"
	KeyAccountCredited = "account.credited"

	// Validation
	KeyValidationInvalid = "validation.invalid"
)
