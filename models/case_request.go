package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Request status
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// CaseRequest is a client asking a specific lawyer to take a case
type CaseRequest struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CaseID   string `gorm:"type:uuid;not null;index" json:"case"`
	Case     *Case  `gorm:"foreignKey:CaseID" json:"case_detail,omitempty"`
	ClientID string `gorm:"type:uuid;not null;index" json:"client"`
	Client   *User  `gorm:"foreignKey:ClientID" json:"-"`
	LawyerID string `gorm:"type:uuid;not null;index" json:"lawyer"`
	Lawyer   *User  `gorm:"foreignKey:LawyerID" json:"-"`

	Message     string     `gorm:"type:text" json:"message,omitempty"`
	Status      string     `gorm:"not null;default:pending;index" json:"status"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`

	ClientName string `gorm:"-" json:"client_name,omitempty"`
	LawyerName string `gorm:"-" json:"lawyer_name,omitempty"`
}

// BeforeCreate hook to generate UUID
func (cr *CaseRequest) BeforeCreate(tx *gorm.DB) error {
	if cr.ID == "" {
		cr.ID = uuid.New().String()
	}
	if cr.Status == "" {
		cr.Status = StatusPending
	}
	return nil
}

// AfterFind fills the display names when the relations were preloaded
func (cr *CaseRequest) AfterFind(tx *gorm.DB) error {
	if cr.Client != nil {
		cr.ClientName = cr.Client.Name
	}
	if cr.Lawyer != nil {
		cr.LawyerName = cr.Lawyer.Name
	}
	return nil
}

// TableName specifies the table name for CaseRequest model
func (CaseRequest) TableName() string {
	return "case_requests"
}

// IsValidStatus checks if the status is valid
func IsValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}
