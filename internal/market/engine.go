// internal/market/engine.go
//
// The product lifecycle state machine. Every function here is a pure
// transition over in-memory records: it checks its preconditions, mutates the
// passed structs, and returns a typed Error on rejection without touching
// anything. Persistence, locking and fund transfers are the caller's job
// (services run each transition inside one row-locked database transaction),
// which keeps the check-then-mutate pairs atomic under concurrent callers.
//
// Lifecycle: Listed -> BiddingOpen -> Selected (escrow locked) ->
// {Submitted -> Confirmed (escrow released)} | {Disputed -> resolved for
// consumer or supplier}. The escrow balance is filled exactly once at
// selection and drained exactly once at confirmation or resolution.
package market

import (
	"time"

	"github.com/google/uuid"

	"github.com/openlot/openlot-backend/internal/models"
)

// Payout instructs the caller to deliver a withdrawn escrow balance to a
// principal. Transitions that drain the escrow return one; the caller credits
// the recipient inside the same transaction that persists the drained product.
type Payout struct {
	Recipient uuid.UUID
	Amount    int64
}

// ValidateQuality bounds the quality score to [0,100]. Listing is the only
// place the bound is enforced; the requirement policy itself tolerates any
// score.
func ValidateQuality(quality int) error {
	if quality < 0 || quality > 100 {
		return ErrInvalidQuality
	}
	return nil
}

// NewProduct allocates a product and the capability token bound to it. The
// deadline is now+duration; the bid table starts empty and the escrow at
// zero. The capability secret is assigned by the caller before the token is
// persisted.
func NewProduct(now int64, supplier uuid.UUID, description string, quality int, price, duration int64) (*models.Product, *models.ProductCap, error) {
	if err := ValidateQuality(quality); err != nil {
		return nil, nil, err
	}
	if price <= 0 {
		return nil, nil, ErrInvalidPrice
	}
	if duration <= 0 {
		return nil, nil, ErrInvalidDuration
	}
	product := &models.Product{
		BaseModel:   models.BaseModel{ID: uuid.New(), CreatedAt: time.Unix(now, 0).UTC()},
		SupplierID:  supplier,
		Description: description,
		Quality:     quality,
		Price:       price,
		Deadline:    now + duration,
	}
	cap := &models.ProductCap{
		BaseModel: models.BaseModel{ID: uuid.New()},
		ProductID: product.ID,
		HolderID:  supplier,
	}
	return product, cap, nil
}

// NewBid constructs a consumer profile against a product. Pure construction:
// the product is untouched until PlaceBid. Duplicate requirement tags are
// collapsed, order preserved.
func NewBid(productID, bidder uuid.UUID, description string, requirements []string) *models.Bid {
	return &models.Bid{
		BaseModel:    models.BaseModel{ID: uuid.New()},
		ProductID:    productID,
		BidderID:     bidder,
		Description:  description,
		Requirements: dedupeTags(requirements),
	}
}

// PlaceBid inserts a bid into the product's bid table. Bidding must still be
// open, the requirements must hold against the product's quality, and the
// bidder must not already have a pending bid.
func PlaceBid(product *models.Product, bid *models.Bid) error {
	if bid.ProductID != product.ID {
		return ErrProductMismatch
	}
	if product.Chosen {
		return ErrOutOfStock
	}
	if err := CheckRequirements(product.Quality, bid.Requirements); err != nil {
		return err
	}
	if product.BidFor(bid.BidderID) != nil {
		return ErrDuplicateBid
	}
	product.Bids = append(product.Bids, *bid)
	return nil
}

// ChooseConsumer is the supplier's one-time, irreversible selection: it
// removes the winning bid from the table, merges the entire supplied payment
// into the escrow, closes bidding and records the chosen principal. The
// removed bid is returned to the caller. Requirements are re-validated here
// even though PlaceBid already checked them.
func ChooseConsumer(cap *models.ProductCap, product *models.Product, payment int64, chosen uuid.UUID) (*models.Bid, error) {
	if cap == nil || cap.ProductID != product.ID {
		return nil, ErrInvalidCapability
	}
	if product.Chosen {
		return nil, ErrOutOfStock
	}
	if payment < product.Price {
		return nil, ErrInsufficientFunds
	}
	idx := -1
	for i := range product.Bids {
		if product.Bids[i].BidderID == chosen {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrNoSuchBid
	}
	winner := product.Bids[idx]
	if err := CheckRequirements(product.Quality, winner.Requirements); err != nil {
		return nil, err
	}

	product.Bids = append(product.Bids[:idx], product.Bids[idx+1:]...)
	product.Payment += payment
	product.Chosen = true
	product.ConsumerID = &chosen
	return &winner, nil
}

// SubmitOrder marks the selected consumer's intent to proceed. Only the
// chosen consumer may submit, and only before the deadline. Re-submitting
// passes the same guards and is otherwise a no-op.
func SubmitOrder(product *models.Product, caller uuid.UUID, now int64) error {
	if now >= product.Deadline {
		return ErrDeadlineExpired
	}
	if product.ConsumerID == nil || *product.ConsumerID != caller {
		return ErrWrongAddress
	}
	product.OrderSubmitted = true
	return nil
}

// ConfirmOrder releases the entire escrow to the selected consumer. The
// withdrawal is single-use: once the balance is drained a second confirmation
// fails on the empty escrow.
func ConfirmOrder(cap *models.ProductCap, product *models.Product, now int64) (*Payout, error) {
	if cap == nil || cap.ProductID != product.ID {
		return nil, ErrInvalidCapability
	}
	if !product.OrderSubmitted {
		return nil, ErrOrderNotSubmitted
	}
	if now >= product.Deadline {
		return nil, ErrDeadlineExpired
	}
	if product.Payment == 0 {
		return nil, ErrEscrowEmpty
	}
	payout := &Payout{Recipient: *product.ConsumerID, Amount: product.Payment}
	product.Payment = 0
	return payout, nil
}

// FileComplaint opens a dispute against the product. Complaints exist only
// after the fulfillment window closed, only from one of the two parties, and
// only one at a time. The escrow is untouched; it stays locked until an
// arbitrator resolves the dispute.
func FileComplaint(product *models.Product, caller uuid.UUID, now int64, reason string) (*models.Complaint, error) {
	if now <= product.Deadline {
		return nil, ErrDeadlineNotReached
	}
	if product.ConsumerID == nil {
		return nil, ErrNoConsumerSelected
	}
	if caller != product.SupplierID && caller != *product.ConsumerID {
		return nil, ErrUnauthorizedParty
	}
	if product.Dispute {
		return nil, ErrDisputePending
	}
	product.Dispute = true
	return &models.Complaint{
		BaseModel:  models.BaseModel{ID: uuid.New()},
		ProductID:  product.ID,
		ConsumerID: *product.ConsumerID,
		SupplierID: product.SupplierID,
		FiledBy:    caller,
		Reason:     reason,
	}, nil
}

// ResolveForConsumer settles an open dispute in the complainant consumer's
// favor: the full escrow goes to the consumer, the dispute closes and the
// decision flag flips to true. Terminal for this dispute.
func ResolveForConsumer(admin *models.AdminCap, product *models.Product, complaint *models.Complaint) (*Payout, error) {
	return resolve(admin, product, complaint, true)
}

// ResolveForSupplier settles an open dispute in the supplier's favor: the
// full escrow returns to the supplier and the decision flag stays false.
// Terminal for this dispute.
func ResolveForSupplier(admin *models.AdminCap, product *models.Product, complaint *models.Complaint) (*Payout, error) {
	return resolve(admin, product, complaint, false)
}

func resolve(admin *models.AdminCap, product *models.Product, complaint *models.Complaint, forConsumer bool) (*Payout, error) {
	if admin == nil {
		return nil, ErrInvalidCapability
	}
	if complaint.Resolved {
		return nil, ErrComplaintResolved
	}
	if !product.Dispute {
		return nil, ErrDisputeFalse
	}
	if product.Payment == 0 {
		return nil, ErrEscrowEmpty
	}

	recipient := complaint.SupplierID
	if forConsumer {
		recipient = complaint.ConsumerID
	}
	payout := &Payout{Recipient: recipient, Amount: product.Payment}
	product.Payment = 0
	product.Dispute = false
	complaint.Decision = forConsumer
	complaint.Resolved = true
	resolvedBy := admin.HolderID
	complaint.ResolvedBy = &resolvedBy
	return payout, nil
}
