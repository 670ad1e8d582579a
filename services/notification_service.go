package services

import (
	"errors"
	"fmt"
	"lawconnect/models"
	"log"

	"gorm.io/gorm"
)

// NotifyUser stores a notification and pushes it to the user's live connections
func NotifyUser(db *gorm.DB, userID, notifType, title, content, relatedID string) (*models.Notification, error) {
	n := &models.Notification{
		UserID:    userID,
		Type:      notifType,
		Title:     title,
		Content:   content,
		RelatedID: relatedID,
	}
	if err := db.Create(n).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	Realtime.Publish(UserTopic(userID), Event{Type: EventNotification, Payload: n})
	return n, nil
}

// notify is NotifyUser for side effects that must not fail the main action
func notify(db *gorm.DB, userID, notifType, title, content, relatedID string) {
	if _, err := NotifyUser(db, userID, notifType, title, content, relatedID); err != nil {
		log.Printf("[WARNING] %v", err)
	}
}

// ListNotifications returns the user's notifications, newest first
func ListNotifications(db *gorm.DB, userID string, unreadOnly bool) ([]models.Notification, error) {
	var notifications []models.Notification
	q := db.Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	if err := q.Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// UnreadNotificationCount counts unread notifications for the navbar badge
func UnreadNotificationCount(db *gorm.DB, userID string) (int64, error) {
	var count int64
	err := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkNotificationRead marks one of the user's notifications as read
func MarkNotificationRead(db *gorm.DB, userID, notificationID string) (*models.Notification, error) {
	var n models.Notification
	if err := db.Where("id = ? AND user_id = ?", notificationID, userID).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := db.Model(&n).Update("is_read", true).Error; err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	n.IsRead = true
	return &n, nil
}

// MarkAllNotificationsRead marks every unread notification of the user as read
func MarkAllNotificationsRead(db *gorm.DB, userID string) (int64, error) {
	result := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

// DeleteNotification removes one of the user's notifications
func DeleteNotification(db *gorm.DB, userID, notificationID string) error {
	result := db.Where("id = ? AND user_id = ?", notificationID, userID).Delete(&models.Notification{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
