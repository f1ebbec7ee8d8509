// internal/models/product.go
package models

import (
	"github.com/google/uuid"
)

// Product is one listed lot. It is the shared record every lifecycle
// transition operates on: the bid table hangs off it, the escrowed payment
// lives in it, and the status flags gate which transitions are legal.
//
// Amounts are integer minor units. Deadline is an absolute unix timestamp;
// the fulfillment window is strictly before it, the complaint window strictly
// after.
type Product struct {
	BaseModel
	SupplierID  uuid.UUID `json:"supplier_id" gorm:"type:uuid;not null;index"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Quality     int       `json:"quality" gorm:"not null"`
	Price       int64     `json:"price" gorm:"not null"`
	Deadline    int64     `json:"deadline" gorm:"not null;index"`

	// Chosen reports whether a consumer has been selected and bidding is
	// closed. Payment is the escrowed balance: zero until selection, filled
	// exactly once by ChooseConsumer, drained exactly once by ConfirmOrder or
	// a dispute resolution.
	Chosen         bool       `json:"chosen" gorm:"not null;default:false;index"`
	ConsumerID     *uuid.UUID `json:"consumer_id" gorm:"type:uuid;index"`
	OrderSubmitted bool       `json:"order_submitted" gorm:"not null;default:false"`
	Dispute        bool       `json:"dispute" gorm:"not null;default:false;index"`
	Payment        int64      `json:"payment" gorm:"not null;default:0"`

	// Relationships
	Bids       []Bid       `json:"bids,omitempty" gorm:"foreignKey:ProductID"`
	Complaints []Complaint `json:"complaints,omitempty" gorm:"foreignKey:ProductID"`
}

func (Product) TableName() string {
	return "products"
}

// BidFor returns the pending bid by the given principal, or nil.
func (p *Product) BidFor(bidder uuid.UUID) *Bid {
	for i := range p.Bids {
		if p.Bids[i].BidderID == bidder {
			return &p.Bids[i]
		}
	}
	return nil
}
