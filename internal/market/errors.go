// internal/market/errors.go
package market

import "errors"

// Error is a lifecycle precondition failure. Every transition rejects with one
// of these; the code is stable and surfaced verbatim to API callers, the
// message is the default English rendering. No transition leaves partial
// effects behind a returned Error.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	// Authorization
	ErrInvalidCapability = &Error{"INVALID_CAPABILITY", "capability does not match this product"}
	ErrWrongAddress      = &Error{"WRONG_ADDRESS", "only the selected consumer may submit the order"}
	ErrUnauthorizedParty = &Error{"UNAUTHORIZED_PARTY", "only the supplier or the selected consumer may file a complaint"}

	// State
	ErrOutOfStock         = &Error{"OUT_OF_STOCK", "a consumer has already been chosen for this product"}
	ErrDuplicateBid       = &Error{"DUPLICATE_BID", "principal already has a pending bid on this product"}
	ErrNoSuchBid          = &Error{"NO_SUCH_BID", "no pending bid exists for the chosen principal"}
	ErrOrderNotSubmitted  = &Error{"ORDER_NOT_SUBMITTED", "the selected consumer has not submitted the order"}
	ErrDisputeFalse       = &Error{"DISPUTE_FALSE", "no dispute is open against this product"}
	ErrDisputePending     = &Error{"DISPUTE_PENDING", "a complaint is already open against this product"}
	ErrNoConsumerSelected = &Error{"NO_CONSUMER_SELECTED", "no consumer was selected for this product"}
	ErrComplaintResolved  = &Error{"COMPLAINT_RESOLVED", "this complaint has already been arbitrated"}
	ErrEscrowEmpty        = &Error{"ESCROW_EMPTY", "the escrow balance has already been withdrawn"}
	ErrProductMismatch    = &Error{"PRODUCT_MISMATCH", "bid references a different product"}

	// Timing
	ErrDeadlineExpired    = &Error{"DEADLINE_EXPIRED", "the fulfillment deadline has passed"}
	ErrDeadlineNotReached = &Error{"DEADLINE_NOT_REACHED", "complaints open only after the fulfillment deadline"}

	// Value
	ErrInsufficientFunds    = &Error{"INSUFFICIENT_FUNDS", "payment is below the listed price"}
	ErrRequirementsNotMet   = &Error{"REQUIREMENTS_NOT_MET", "bid requirements are not satisfied by this product"}
	ErrInvalidQuality       = &Error{"INVALID_QUALITY", "quality must be between 0 and 100"}
	ErrInvalidPrice         = &Error{"INVALID_PRICE", "price must be positive"}
	ErrInvalidDuration      = &Error{"INVALID_DURATION", "duration must be positive"}
	ErrInsufficientBalance  = &Error{"INSUFFICIENT_BALANCE", "account balance cannot cover the payment"}
)

// CodeOf extracts the stable code from a lifecycle error, or "" when err is
// not a market error.
func CodeOf(err error) string {
	var me *Error
	if errors.As(err, &me) {
		return me.Code
	}
	return ""
}
