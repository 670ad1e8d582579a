package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Case status constants
const (
	CaseStatusOpen     = "open"
	CaseStatusInReview = "in_review"
	CaseStatusClosed   = "closed"
)

// Case represents a legal matter opened by a client
type Case struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`
	Type        string `gorm:"size:50" json:"type"`
	Status      string `gorm:"not null;default:open;index" json:"status"`

	// Client relationship (User with role 'client')
	ClientID string `gorm:"type:uuid;not null;index" json:"client_id"`
	Client   *User  `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	// Assigned lawyer
	LawyerID *string `gorm:"type:uuid;index" json:"lawyer_id,omitempty"`
	Lawyer   *User   `gorm:"foreignKey:LawyerID" json:"lawyer,omitempty"`

	AcceptedByLawyerID *string    `gorm:"type:uuid" json:"accepted_by_lawyer_id,omitempty"`
	AcceptedAt         *time.Time `json:"accepted_at,omitempty"`

	Updates []CaseUpdate `gorm:"foreignKey:CaseID" json:"updates,omitempty"`
}

// BeforeCreate hook to generate UUID
func (c *Case) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = CaseStatusOpen
	}
	return nil
}

// TableName specifies the table name for Case model
func (Case) TableName() string {
	return "cases"
}

// IsAccepted reports whether a lawyer took the case, which unlocks messaging
func (c *Case) IsAccepted() bool {
	return c.AcceptedByLawyerID != nil && *c.AcceptedByLawyerID != ""
}

// IsAcceptable reports whether a lawyer can still accept the case
func (c *Case) IsAcceptable() bool {
	return c.Status == CaseStatusOpen && (c.LawyerID == nil || *c.LawyerID == "")
}

// InvolvesUser reports whether the user is the client or the assigned lawyer
func (c *Case) InvolvesUser(userID string) bool {
	if c.ClientID == userID {
		return true
	}
	return c.LawyerID != nil && *c.LawyerID == userID
}

// IsValidCaseStatus checks if the status is valid
func IsValidCaseStatus(status string) bool {
	switch status {
	case CaseStatusOpen, CaseStatusInReview, CaseStatusClosed:
		return true
	}
	return false
}

// CaseUpdate is a timeline note on a case
type CaseUpdate struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	CaseID      string `gorm:"type:uuid;not null;index" json:"case_id"`
	Message     string `gorm:"type:text;not null" json:"message"`
	CreatedByID string `gorm:"type:uuid;not null" json:"created_by"`
	CreatedBy   *User  `gorm:"foreignKey:CreatedByID" json:"author,omitempty"`
}

func (u *CaseUpdate) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

func (CaseUpdate) TableName() string {
	return "case_updates"
}
