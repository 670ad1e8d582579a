package services

import (
	"context"
	"lawconnect/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := RegistrationInput{
		Username:        "Maria Lopez",
		Email:           "Maria@Example.com",
		Password:        testPassword,
		ConfirmPassword: testPassword,
		Role:            models.RoleClient,
	}

	t.Run("Password mismatch is blocked", func(t *testing.T) {
		in := base
		in.ConfirmPassword = "something-else-entirely"
		_, err := RegisterUser(ctx, db, in)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
		assert.Equal(t, "Passwords do not match.", err.Error())

		var count int64
		db.Model(&models.User{}).Count(&count)
		assert.Zero(t, count)
	})

	t.Run("Lawyer needs specialization and license", func(t *testing.T) {
		in := base
		in.Email = "lawyer@example.com"
		in.Role = models.RoleLawyer
		in.Specialization = "Tax"
		_, err := RegisterUser(ctx, db, in)
		require.Error(t, err)
		assert.Equal(t, "Specialization and license are required for lawyers.", err.Error())
	})

	t.Run("Unknown role", func(t *testing.T) {
		in := base
		in.Role = "admin"
		_, err := RegisterUser(ctx, db, in)
		assert.True(t, IsValidationError(err))
	})

	t.Run("Weak password", func(t *testing.T) {
		in := base
		in.Password, in.ConfirmPassword = "12345678", "12345678"
		_, err := RegisterUser(ctx, db, in)
		assert.True(t, IsValidationError(err))
	})

	t.Run("Client registration", func(t *testing.T) {
		user, err := RegisterUser(ctx, db, base)
		require.NoError(t, err)
		assert.Equal(t, "maria@example.com", user.Email)
		assert.True(t, user.IsClient())
		assert.NotNil(t, user.ClientProfile)
		assert.True(t, VerifyPassword(user.Password, testPassword))
	})

	t.Run("Duplicate email", func(t *testing.T) {
		_, err := RegisterUser(ctx, db, base)
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("Lawyer registration with avatar", func(t *testing.T) {
		png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
		user, err := RegisterUser(ctx, db, RegistrationInput{
			Username:        "Carlos Ruiz",
			Email:           "carlos@example.com",
			Password:        testPassword,
			ConfirmPassword: testPassword,
			Role:            models.RoleLawyer,
			Specialization:  "Criminal Law",
			License:         "BAR-991",
			Firm:            "Ruiz Legal",
			Avatar:          createMockFileHeader("me.png", png),
		})
		require.NoError(t, err)
		require.NotNil(t, user.LawyerProfile)
		assert.Equal(t, "Ruiz Legal", user.LawyerProfile.Firm)
		assert.NotEmpty(t, user.AvatarKey)

		got, err := GetLawyer(db, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "/media/avatars/"+user.ID, got.AvatarURL)
	})
}

func TestLawyerDirectory(t *testing.T) {
	db := setupTestDB(t)
	newLawyer(t, db, "Ana Family", 0)
	tax := newLawyer(t, db, "Ben Tax", 0)
	hidden := newLawyer(t, db, "Cid Hidden", 0)
	newClient(t, db, "Dora Client")

	spec := "Tax Law"
	_, err := UpdateLawyerProfile(db, tax, LawyerProfileInput{Specialization: &spec})
	require.NoError(t, err)
	db.Model(hidden).Update("show_profile", false)

	all, err := ListLawyers(db, DirectoryFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byName, err := ListLawyers(db, DirectoryFilter{Query: "ana"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Ana Family", byName[0].Name)

	bySpec, err := ListLawyers(db, DirectoryFilter{Query: "tax law"})
	require.NoError(t, err)
	require.Len(t, bySpec, 1)
	assert.Equal(t, tax.ID, bySpec[0].ID)
	require.NotNil(t, bySpec[0].LawyerProfile)

	exact, err := ListLawyers(db, DirectoryFilter{Specialization: "Family Law"})
	require.NoError(t, err)
	assert.Len(t, exact, 1)

	specs, err := ListSpecializations(db)
	require.NoError(t, err)
	assert.Equal(t, []string{"Family Law", "Tax Law"}, specs)

	clients, err := ListClients(db, "dora")
	require.NoError(t, err)
	assert.Len(t, clients, 1)

	_, err = GetClient(db, tax.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = GetLawyer(db, clients[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateUser(t *testing.T) {
	db := setupTestDB(t)
	user := newClient(t, db, "Edit Me")
	other := newClient(t, db, "Other One")

	name := "Edited Name"
	off := false
	require.NoError(t, UpdateUser(db, user, UpdateUserInput{Name: &name, NotifyEmail: &off}))
	assert.Equal(t, "Edited Name", user.Name)
	assert.False(t, user.NotifyEmail)

	taken := other.Email
	assert.ErrorIs(t, UpdateUser(db, user, UpdateUserInput{Email: &taken}), ErrEmailTaken)

	bad := "not-an-email"
	assert.True(t, IsValidationError(UpdateUser(db, user, UpdateUserInput{Email: &bad})))

	pw := "N3w-Passw0rd-Here"
	require.NoError(t, UpdateUser(db, user, UpdateUserInput{Password: &pw}))
	assert.True(t, VerifyPassword(user.Password, pw))
}

func TestUpdateLawyerProfile(t *testing.T) {
	db := setupTestDB(t)
	lawyer := newLawyer(t, db, "Profile Lawyer", 0)
	client := newClient(t, db, "Profile Client")

	charge := int64(25000)
	firm := "New Firm"
	profile, err := UpdateLawyerProfile(db, lawyer, LawyerProfileInput{PerCaseCharge: &charge, Firm: &firm})
	require.NoError(t, err)
	assert.Equal(t, int64(25000), profile.PerCaseCharge)
	assert.Equal(t, "New Firm", profile.Firm)

	negative := int64(-1)
	_, err = UpdateLawyerProfile(db, lawyer, LawyerProfileInput{PerCaseCharge: &negative})
	assert.True(t, IsValidationError(err))

	_, err = UpdateLawyerProfile(db, client, LawyerProfileInput{Firm: &firm})
	assert.ErrorIs(t, err, ErrForbidden)
}
