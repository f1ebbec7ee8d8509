// internal/models/bid.go
package models

import (
	"database/sql/driver"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// TagList is a requirement tag list. It maps to a native text[] column on
// Postgres; other dialects store the same array literal in a text column.
type TagList pq.StringArray

func (TagList) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

func (t TagList) Value() (driver.Value, error) {
	return pq.StringArray(t).Value()
}

func (t *TagList) Scan(src interface{}) error {
	return (*pq.StringArray)(t).Scan(src)
}

// Bid is a consumer profile submitted against a product: who is bidding and
// what they require of the lot. While pending it is owned by the product's bid
// table; selection removes the row and hands the record back to the caller.
//
// The (product_id, bidder_id) pair is unique: a principal holds at most one
// pending bid per product.
type Bid struct {
	BaseModel
	ProductID    uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_bids_product_bidder"`
	BidderID     uuid.UUID `json:"bidder_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_bids_product_bidder"`
	Description  string    `json:"description" gorm:"type:text"`
	Requirements TagList   `json:"requirements"`

	// Relationships
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (Bid) TableName() string {
	return "bids"
}
