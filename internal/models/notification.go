// internal/models/notification.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	BaseModel
	RecipientID uuid.UUID          `json:"recipient_id" gorm:"type:uuid;not null;index"`
	Type        NotificationType   `json:"type" gorm:"type:varchar(50);not null;index"`
	Title       string             `json:"title" gorm:"size:255;not null"`
	Message     string             `json:"message" gorm:"type:text;not null"`
	Status      NotificationStatus `json:"status" gorm:"type:varchar(20);default:'unread';index"`
	ProductID   *uuid.UUID         `json:"product_id,omitempty" gorm:"type:uuid;index"`
	ReadAt      *time.Time         `json:"read_at,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}

type AuditLog struct {
	BaseModel
	PrincipalID  *uuid.UUID `json:"principal_id" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:100;not null;index"`
	ResourceType string     `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID   *uuid.UUID `json:"resource_id" gorm:"type:uuid;index"`
	RequestData  JSONB      `json:"request_data" gorm:"type:jsonb"`
	IPAddress    string     `json:"ip_address" gorm:"size:45"`
	UserAgent    string     `json:"user_agent" gorm:"type:text"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
