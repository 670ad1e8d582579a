package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invoice status constants
const (
	InvoiceStatusPending = "pending"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusOverdue = "overdue"
)

// Invoice is a bill from a lawyer to a client for a case. Amounts are in cents.
type Invoice struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CaseID   string `gorm:"type:uuid;not null;index" json:"case"`
	Case     *Case  `gorm:"foreignKey:CaseID" json:"-"`
	ClientID string `gorm:"type:uuid;not null;index" json:"client"`
	Client   *User  `gorm:"foreignKey:ClientID" json:"-"`
	LawyerID string `gorm:"type:uuid;not null;index" json:"lawyer"`
	Lawyer   *User  `gorm:"foreignKey:LawyerID" json:"-"`

	Amount      int64      `gorm:"not null" json:"amount"`
	Status      string     `gorm:"not null;default:pending;index" json:"status"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	DueDate     time.Time  `gorm:"index" json:"due_date"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	if i.Status == "" {
		i.Status = InvoiceStatusPending
	}
	return nil
}

func (Invoice) TableName() string {
	return "invoices"
}

// Number is the short human-facing invoice reference
func (i *Invoice) Number() string {
	if len(i.ID) < 8 {
		return i.ID
	}
	return "INV-" + i.ID[:8]
}

// IsPayable reports whether the invoice can still be marked paid
func (i *Invoice) IsPayable() bool {
	return i.Status == InvoiceStatusPending || i.Status == InvoiceStatusOverdue
}

// IsValidInvoiceStatus checks if the status is valid
func IsValidInvoiceStatus(status string) bool {
	switch status {
	case InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusOverdue:
		return true
	}
	return false
}
