package services

import (
	"bytes"
	"image/png"
	"lawconnect/models"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwoFactorFlow(t *testing.T) {
	db := setupTestDB(t)
	user := newClient(t, db, "Totp Client")

	setup, err := SetupTwoFactor(db, user, "")
	require.NoError(t, err)
	assert.NotEmpty(t, setup.Secret)
	assert.Contains(t, setup.URL, "otpauth://totp/LawConnect")

	img, err := png.Decode(bytes.NewReader(setup.QRCode))
	require.NoError(t, err)
	assert.Equal(t, QRCodeSize, img.Bounds().Dx())

	var stored models.User
	db.First(&stored, "id = ?", user.ID)
	assert.Equal(t, setup.Secret, stored.TOTPSecret)
	assert.False(t, stored.TOTPEnabled, "setup alone must not enable 2FA")

	assert.ErrorIs(t, VerifyTwoFactor(db, user, "123"), ErrInvalidTOTP)

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, VerifyTwoFactor(db, user, code))
	db.First(&stored, "id = ?", user.ID)
	assert.True(t, stored.TOTPEnabled)

	t.Run("Disable needs password", func(t *testing.T) {
		err := DisableTwoFactor(db, user, "wrong", code)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Disable needs code", func(t *testing.T) {
		err := DisableTwoFactor(db, user, testPassword, "")
		assert.ErrorIs(t, err, ErrInvalidTOTP)
	})

	t.Run("Disable", func(t *testing.T) {
		code, _ := totp.GenerateCode(setup.Secret, time.Now())
		require.NoError(t, DisableTwoFactor(db, user, testPassword, code))
		db.First(&stored, "id = ?", user.ID)
		assert.False(t, stored.TOTPEnabled)
		assert.Empty(t, stored.TOTPSecret)
	})
}

func TestVerifyTwoFactorWithoutSetup(t *testing.T) {
	db := setupTestDB(t)
	user := newClient(t, db, "No Setup")
	err := VerifyTwoFactor(db, user, "123456")
	assert.True(t, IsValidationError(err))
}

func TestValidateTOTP(t *testing.T) {
	key, err := totp.Generate(totp.GenerateOpts{Issuer: "Test", AccountName: "a@example.com"})
	require.NoError(t, err)
	code, _ := totp.GenerateCode(key.Secret(), time.Now())

	assert.True(t, ValidateTOTP(key.Secret(), code))
	assert.True(t, ValidateTOTP(key.Secret(), " "+code[:3]+" "+code[3:]))
	assert.False(t, ValidateTOTP("", code))
	assert.False(t, ValidateTOTP(key.Secret(), ""))
}

func TestTwoFactorSecretSealedAtRest(t *testing.T) {
	key, err := GenerateEncryptionKey()
	require.NoError(t, err)
	t.Setenv("DATA_ENCRYPTION_KEY", key)

	db := setupTestDB(t)
	user := newClient(t, db, "Sealed Client")

	setup, err := SetupTwoFactor(db, user, "")
	require.NoError(t, err)

	var stored models.User
	db.First(&stored, "id = ?", user.ID)
	assert.NotContains(t, stored.TOTPSecret, setup.Secret)
	assert.True(t, strings.HasPrefix(stored.TOTPSecret, sealedPrefix))

	code, _ := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, VerifyTwoFactor(db, &stored, code))

	_, _, err = Authenticate(db, LoginInput{Email: stored.Email, Password: testPassword, Code: code})
	assert.NoError(t, err)
}
