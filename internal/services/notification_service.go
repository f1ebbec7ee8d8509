// internal/services/notification_service.go
package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/openlot/openlot-backend/internal/models"
	"github.com/openlot/openlot-backend/internal/utils"
)

type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// Notify writes a notification row. Failures are logged, never propagated:
// notifications are best-effort and must not fail a lifecycle transition.
func (s *NotificationService) Notify(recipient uuid.UUID, ntype models.NotificationType, productID *uuid.UUID, title, message string) {
	notification := &models.Notification{
		RecipientID: recipient,
		Type:        ntype,
		Title:       title,
		Message:     message,
		Status:      models.NotificationStatusUnread,
		ProductID:   productID,
	}

	if err := s.db.Create(notification).Error; err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"recipient": recipient,
			"type":      ntype,
		}).Error("Failed to create notification")
	}
}

func (s *NotificationService) ListForRecipient(recipient uuid.UUID, params utils.PaginationParams) ([]models.Notification, int64, error) {
	query := s.db.Model(&models.Notification{}).Where("recipient_id = ?", recipient)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "status"})
	query = utils.ApplyPagination(query, params)

	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	return notifications, total, nil
}

func (s *NotificationService) MarkRead(recipient, id uuid.UUID) error {
	now := time.Now()
	result := s.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipient).
		Updates(map[string]interface{}{
			"status":  models.NotificationStatusRead,
			"read_at": &now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
