// internal/models/complaint.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Complaint is a dispute ticket linking a product and its two parties. It can
// only exist once the product's deadline has passed, and at most one complaint
// is open per product at a time.
//
// Decision starts false (the against-complainant default) and only gains
// meaning once Resolved is set: true means the escrow went to the consumer,
// false means it went back to the supplier.
type Complaint struct {
	BaseModel
	ProductID  uuid.UUID  `json:"product_id" gorm:"type:uuid;not null;index"`
	ConsumerID uuid.UUID  `json:"consumer_id" gorm:"type:uuid;not null;index"`
	SupplierID uuid.UUID  `json:"supplier_id" gorm:"type:uuid;not null;index"`
	FiledBy    uuid.UUID  `json:"filed_by" gorm:"type:uuid;not null"`
	Reason     string     `json:"reason" gorm:"type:text;not null"`
	Decision   bool       `json:"decision" gorm:"not null;default:false"`
	Resolved   bool       `json:"resolved" gorm:"not null;default:false;index"`
	ResolvedBy *uuid.UUID `json:"resolved_by,omitempty" gorm:"type:uuid"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`

	// Relationships
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (Complaint) TableName() string {
	return "complaints"
}
