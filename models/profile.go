package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LawyerProfile holds the professional details of a lawyer
type LawyerProfile struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID         string `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Specialization string `gorm:"index" json:"specialization"`
	License        string `json:"license"`
	Firm           string `json:"firm"`
	Bio            string `gorm:"type:text" json:"bio,omitempty"`
	Approved       bool   `gorm:"not null;default:false" json:"approved"`
	// PerCaseCharge is expressed in cents
	PerCaseCharge int64 `gorm:"not null;default:0" json:"per_case_charge"`
}

func (p *LawyerProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

func (LawyerProfile) TableName() string {
	return "lawyer_profiles"
}

// MarshalJSON writes per_case_charge in dollars, like invoice amounts
func (p LawyerProfile) MarshalJSON() ([]byte, error) {
	type profile LawyerProfile
	return json.Marshal(struct {
		profile
		PerCaseCharge string `json:"per_case_charge"`
	}{profile(p), FormatDecimal(p.PerCaseCharge)})
}

// ClientProfile marks a user as a client
type ClientProfile struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID string `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
}

func (p *ClientProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

func (ClientProfile) TableName() string {
	return "client_profiles"
}
