// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns an identifier when the caller did not set one. IDs are
// generated application-side so the same models run on Postgres and on the
// sqlite test driver.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums

type PrincipalRole string

const (
	PrincipalRoleSupplier PrincipalRole = "supplier"
	PrincipalRoleConsumer PrincipalRole = "consumer"
	PrincipalRoleAdmin    PrincipalRole = "admin"
)

type NotificationType string

const (
	NotificationTypeBidPlaced       NotificationType = "bid_placed"
	NotificationTypeBidSelected     NotificationType = "bid_selected"
	NotificationTypeOrderSubmitted  NotificationType = "order_submitted"
	NotificationTypeOrderConfirmed  NotificationType = "order_confirmed"
	NotificationTypeComplaintFiled  NotificationType = "complaint_filed"
	NotificationTypeDisputeResolved NotificationType = "dispute_resolved"
	NotificationTypeAccountCredited NotificationType = "account_credited"
)

type NotificationStatus string

const (
	NotificationStatusUnread NotificationStatus = "unread"
	NotificationStatusRead   NotificationStatus = "read"
)
