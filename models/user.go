package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles
const (
	RoleClient = "client"
	RoleLawyer = "lawyer"
	RoleAdmin  = "admin"
)

type User struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name        string     `gorm:"not null" json:"name"`
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"not null" json:"-"`
	Phone       string     `json:"phone,omitempty"`
	AvatarKey   string     `json:"-"`
	AvatarURL   string     `gorm:"-" json:"avatar,omitempty"`
	Role        string     `gorm:"not null;default:client;index" json:"role"` // client, lawyer, admin
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	// Login protection
	FailedLoginAttempts int        `gorm:"not null;default:0" json:"-"`
	LockoutUntil        *time.Time `json:"-"`

	// Two-factor
	TOTPSecret  string `json:"-"`
	TOTPEnabled bool   `gorm:"not null;default:false" json:"totp_enabled"`

	// Preferences
	NotifyEmail bool `gorm:"not null;default:true" json:"notify_email"`
	NotifySMS   bool `gorm:"not null;default:false" json:"notify_sms"`
	NotifyPush  bool `gorm:"not null;default:true" json:"notify_push"`
	ShowProfile bool `gorm:"not null;default:true" json:"show_profile"`
	ShareData   bool `gorm:"not null;default:false" json:"share_data"`

	// Relationships
	LawyerProfile *LawyerProfile `gorm:"foreignKey:UserID" json:"lawyer_profile,omitempty"`
	ClientProfile *ClientProfile `gorm:"foreignKey:UserID" json:"-"`
}

// BeforeCreate hook to generate UUID
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

func (u *User) IsLawyer() bool {
	return u.Role == RoleLawyer
}

func (u *User) IsClient() bool {
	return u.Role == RoleClient
}

// IsLocked reports whether the account is inside a lockout window
func (u *User) IsLocked(now time.Time) bool {
	return u.LockoutUntil != nil && now.Before(*u.LockoutUntil)
}

// DashboardPath returns the landing page for the user's role
func (u *User) DashboardPath() string {
	if u.Role == RoleLawyer {
		return "/lawyer/dashboard"
	}
	return "/client/dashboard"
}

// Initials returns up to two upper-case initials for avatars
func (u *User) Initials() string {
	return Initials(u.Name)
}

// IsValidRole checks if the role can be chosen at registration
func IsValidRole(role string) bool {
	return role == RoleClient || role == RoleLawyer
}
