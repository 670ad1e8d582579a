package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification types
const (
	NotificationTypeMessage     = "message"
	NotificationTypeAppointment = "appointment"
	NotificationTypeDocument    = "document"
	NotificationTypeCase        = "case"
	NotificationTypeInvoice     = "invoice"
)

type Notification struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	UserID    string `gorm:"type:uuid;not null;index" json:"user_id"`
	Type      string `gorm:"not null" json:"type"`
	Title     string `gorm:"not null" json:"title"`
	Content   string `gorm:"type:text" json:"content"`
	IsRead    bool   `gorm:"not null;default:false;index" json:"is_read"`
	RelatedID string `json:"related_id,omitempty"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

func (Notification) TableName() string {
	return "notifications"
}

// IsValidNotificationType checks the type tag
func IsValidNotificationType(t string) bool {
	switch t {
	case NotificationTypeMessage, NotificationTypeAppointment, NotificationTypeDocument, NotificationTypeCase, NotificationTypeInvoice:
		return true
	}
	return false
}
