package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"lawconnect/models"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10
	// SessionTokenLength is the length of the session token in bytes (64 chars hex)
	SessionTokenLength = 32
	// DefaultSessionDuration is the default session duration (7 days)
	DefaultSessionDuration = 7 * 24 * time.Hour
	// MaxFailedLogins locks the account once reached
	MaxFailedLogins = 5
	// LockoutDuration is how long a locked account stays locked
	LockoutDuration = 15 * time.Minute
)

// dummyHash keeps the not-found path as slow as a real comparison
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy_password_for_timing_mitigation"), BcryptCost)

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// VerifyPassword verifies a password against a bcrypt hash
func VerifyPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// GenerateSessionToken generates a cryptographically secure random token
func GenerateSessionToken() (string, error) {
	bytes := make([]byte, SessionTokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// LoginInput is what a login form or API call submits
type LoginInput struct {
	Email     string
	Password  string
	Code      string
	IPAddress string
	UserAgent string
}

// Authenticate checks the credentials, enforces lockout and two-factor, and
// opens a session. Unknown email and wrong password both yield ErrInvalidCredentials.
func Authenticate(db *gorm.DB, in LoginInput) (*models.User, *models.Session, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, nil, NewValidationError("Both email and password are required.")
	}

	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		VerifyPassword(string(dummyHash), in.Password)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			Monitor.TrackFailedLogin(in.IPAddress)
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}

	now := time.Now()
	if user.IsLocked(now) {
		LogSecurityEvent("LOGIN_LOCKED", user.ID, "login attempt while locked")
		return nil, nil, ErrAccountLocked
	}

	if !VerifyPassword(user.Password, in.Password) {
		recordFailedLogin(db, &user, now, in.IPAddress)
		return nil, nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, nil, ErrAccountInactive
	}

	if user.TOTPEnabled {
		if strings.TrimSpace(in.Code) == "" {
			return nil, nil, ErrTOTPRequired
		}
		if !checkUserTOTP(&user, in.Code) {
			LogSecurityEvent("TOTP_FAILED", user.ID, "invalid two-factor code")
			recordFailedLogin(db, &user, now, in.IPAddress)
			return nil, nil, ErrInvalidTOTP
		}
	}

	session, err := CreateSession(db, user.ID, in.IPAddress, in.UserAgent)
	if err != nil {
		return nil, nil, err
	}

	if err := db.Model(&user).Updates(map[string]interface{}{
		"failed_login_attempts": 0,
		"lockout_until":         nil,
		"last_login_at":         now,
	}).Error; err != nil {
		log.Printf("[WARNING] failed to record login for %s: %v", user.ID, err)
	}
	user.FailedLoginAttempts = 0
	user.LockoutUntil = nil
	user.LastLoginAt = &now

	return &user, session, nil
}

// recordFailedLogin counts a wrong password or two-factor code and locks
// the account once MaxFailedLogins is reached.
func recordFailedLogin(db *gorm.DB, user *models.User, now time.Time, ip string) {
	user.FailedLoginAttempts++
	updates := map[string]interface{}{"failed_login_attempts": user.FailedLoginAttempts}
	if user.FailedLoginAttempts >= MaxFailedLogins {
		lockout := now.Add(LockoutDuration)
		updates["lockout_until"] = &lockout
		updates["failed_login_attempts"] = 0
		user.LockoutUntil = &lockout
		user.FailedLoginAttempts = 0
		LogSecurityEvent("ACCOUNT_LOCKED", user.ID, fmt.Sprintf("locked until %s", lockout.Format(time.RFC3339)))
	}
	if err := db.Model(user).Updates(updates).Error; err != nil {
		log.Printf("[WARNING] failed to record failed login for %s: %v", user.ID, err)
	}
	Monitor.TrackFailedLogin(ip)
}

// CreateSession creates a new session for a user
func CreateSession(db *gorm.DB, userID, ipAddress, userAgent string) (*models.Session, error) {
	token, err := GenerateSessionToken()
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(DefaultSessionDuration),
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}

	if err := db.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// ValidateSession validates a session token and returns the session if valid
func ValidateSession(db *gorm.DB, token string) (*models.Session, error) {
	if token == "" {
		return nil, fmt.Errorf("session not found")
	}

	var session models.Session
	err := db.Preload("User.LawyerProfile").
		Where("token = ?", token).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session not found")
		}
		return nil, fmt.Errorf("failed to validate session: %w", err)
	}

	if session.IsExpired() {
		db.Delete(&session)
		return nil, fmt.Errorf("session expired")
	}

	return &session, nil
}

// DeleteSession deletes a session (logout)
func DeleteSession(db *gorm.DB, token string) error {
	result := db.Where("token = ?", token).Delete(&models.Session{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete session: %w", result.Error)
	}
	return nil
}

// CleanupExpiredSessions removes all expired sessions from the database
func CleanupExpiredSessions(db *gorm.DB) (int64, error) {
	result := db.Where("expires_at < ?", time.Now()).Delete(&models.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to cleanup expired sessions: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		log.Printf("[INFO] Cleaned up %d expired sessions", result.RowsAffected)
	}
	return result.RowsAffected, nil
}

// DeleteAllUserSessions deletes all sessions for a specific user except keepToken
func DeleteAllUserSessions(db *gorm.DB, userID, keepToken string) error {
	q := db.Where("user_id = ?", userID)
	if keepToken != "" {
		q = q.Where("token <> ?", keepToken)
	}
	result := q.Delete(&models.Session{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete user sessions: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		log.Printf("[SECURITY] Deleted %d sessions for user %s (password change)", result.RowsAffected, userID)
	}
	return nil
}

// LogSecurityEvent logs security-related events
func LogSecurityEvent(eventType, userID, details string) {
	log.Printf("[SECURITY] %s | User: %s | Details: %s", eventType, userID, details)
}
