package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Thread is a conversation between two participants, optionally tied to a case
type Thread struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CaseID       *string `gorm:"type:uuid;index" json:"case,omitempty"`
	Case         *Case   `gorm:"foreignKey:CaseID" json:"-"`
	Participants []User  `gorm:"many2many:thread_participants;" json:"-"`

	// View fields resolved for the requesting user
	ParticipantIDs []string `gorm:"-" json:"participants"`
	Participant    *User    `gorm:"-" json:"participant,omitempty"`
	CaseAccepted   bool     `gorm:"-" json:"case_accepted"`
	LastMessage    *Message `gorm:"-" json:"last_message,omitempty"`
}

func (t *Thread) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

func (Thread) TableName() string {
	return "threads"
}

// HasParticipant reports whether the user belongs to the preloaded participants
func (t *Thread) HasParticipant(userID string) bool {
	for _, p := range t.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// Other returns the participant that is not userID
func (t *Thread) Other(userID string) *User {
	for i := range t.Participants {
		if t.Participants[i].ID != userID {
			return &t.Participants[i]
		}
	}
	return nil
}

// Message is a single chat message inside a thread
type Message struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	ThreadID   string  `gorm:"type:uuid;not null;index" json:"thread"`
	CaseID     *string `gorm:"type:uuid" json:"case,omitempty"`
	SenderID   string  `gorm:"type:uuid;not null" json:"sender_id"`
	Sender     *User   `gorm:"foreignKey:SenderID" json:"-"`
	ReceiverID string  `gorm:"type:uuid;not null;index" json:"receiver"`
	Content    string  `gorm:"type:text;not null" json:"content"`
	IsRead     bool    `gorm:"not null;default:false" json:"is_read"`

	SenderName string `gorm:"-" json:"sender,omitempty"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// AfterFind fills the sender display name when preloaded
func (m *Message) AfterFind(tx *gorm.DB) error {
	if m.Sender != nil {
		m.SenderName = m.Sender.Name
	}
	return nil
}

func (Message) TableName() string {
	return "messages"
}
