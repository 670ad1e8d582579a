package services

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"lawconnect/models"
	"log"
	"strings"

	"github.com/pquerna/otp/totp"
	"gorm.io/gorm"
)

// QRCodeSize is the width and height of the setup QR image in pixels
const QRCodeSize = 256

// TwoFactorSetup is returned when a user starts enrolling an authenticator app
type TwoFactorSetup struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
	QRCode []byte `json:"-"`
}

// SetupTwoFactor generates a new TOTP secret for the user and stores it
// disabled until a code is verified.
func SetupTwoFactor(db *gorm.DB, user *models.User, issuer string) (*TwoFactorSetup, error) {
	if issuer == "" {
		issuer = "LawConnect"
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: user.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate totp key: %w", err)
	}

	img, err := key.Image(QRCodeSize, QRCodeSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render qr code: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}

	stored, err := sealSecret(key.Secret())
	if err != nil {
		return nil, fmt.Errorf("failed to seal totp secret: %w", err)
	}
	if err := db.Model(user).Updates(map[string]interface{}{
		"totp_secret":  stored,
		"totp_enabled": false,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to store totp secret: %w", err)
	}
	user.TOTPSecret = stored
	user.TOTPEnabled = false

	log.Printf("[INFO] 2FA setup QR generated for %s", user.Email)
	return &TwoFactorSetup{Secret: key.Secret(), URL: key.URL(), QRCode: buf.Bytes()}, nil
}

// VerifyTwoFactor enables two-factor once the user proves the app works
func VerifyTwoFactor(db *gorm.DB, user *models.User, code string) error {
	if user.TOTPSecret == "" {
		return NewValidationError("2FA not set up")
	}
	if !checkUserTOTP(user, code) {
		log.Printf("[WARNING] Invalid 2FA code for %s", user.Email)
		return ErrInvalidTOTP
	}
	if err := db.Model(user).Update("totp_enabled", true).Error; err != nil {
		return fmt.Errorf("failed to enable 2fa: %w", err)
	}
	user.TOTPEnabled = true
	LogSecurityEvent("2FA_ENABLED", user.ID, "two-factor enabled")
	return nil
}

// DisableTwoFactor turns two-factor off after checking password and code
func DisableTwoFactor(db *gorm.DB, user *models.User, password, code string) error {
	if !VerifyPassword(user.Password, password) {
		return ErrInvalidCredentials
	}
	if user.TOTPEnabled && !checkUserTOTP(user, code) {
		return ErrInvalidTOTP
	}
	if err := db.Model(user).Updates(map[string]interface{}{
		"totp_secret":  "",
		"totp_enabled": false,
	}).Error; err != nil {
		return fmt.Errorf("failed to disable 2fa: %w", err)
	}
	user.TOTPSecret = ""
	user.TOTPEnabled = false
	LogSecurityEvent("2FA_DISABLED", user.ID, "two-factor disabled")
	return nil
}

// checkUserTOTP validates code against the user's stored, possibly sealed, secret
func checkUserTOTP(user *models.User, code string) bool {
	secret, err := openSecret(user.TOTPSecret)
	if err != nil {
		log.Printf("[WARNING] Cannot open 2FA secret of %s: %v", user.ID, err)
		return false
	}
	return ValidateTOTP(secret, code)
}

// ValidateTOTP checks a 6 digit code against the secret
func ValidateTOTP(secret, code string) bool {
	code = strings.ReplaceAll(strings.TrimSpace(code), " ", "")
	if secret == "" || code == "" {
		return false
	}
	return totp.Validate(code, secret)
}

// IsTwoFactorError reports whether err asks the caller for a (valid) code
func IsTwoFactorError(err error) bool {
	return errors.Is(err, ErrTOTPRequired) || errors.Is(err, ErrInvalidTOTP)
}
