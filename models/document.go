package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Folder groups a user's documents
type Folder struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Name    string `gorm:"size:100;not null" json:"name"`
	OwnerID string `gorm:"type:uuid;not null;index" json:"-"`
	Count   int64  `gorm:"-" json:"count"`
}

func (f *Folder) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}

func (Folder) TableName() string {
	return "folders"
}

// Document is an uploaded file owned by a user
type Document struct {
	ID         string         `gorm:"type:uuid;primarykey" json:"id"`
	UploadedAt time.Time      `gorm:"autoCreateTime" json:"uploaded_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	Name       string  `gorm:"not null" json:"name"`
	StorageKey string  `gorm:"not null" json:"-"`
	FileSize   int64   `json:"file_size"`
	MimeType   string  `json:"mime_type"`
	IsShared   bool    `gorm:"not null;default:false" json:"is_shared"`
	OwnerID    string  `gorm:"type:uuid;not null;index" json:"owner"`
	FolderID   *string `gorm:"type:uuid;index" json:"folder,omitempty"`
	Folder     *Folder `gorm:"foreignKey:FolderID" json:"-"`
	CaseID     *string `gorm:"type:uuid;index" json:"case,omitempty"`

	URL string `gorm:"-" json:"url,omitempty"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

func (Document) TableName() string {
	return "documents"
}
