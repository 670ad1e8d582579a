package services

import (
	"context"
	"lawconnect/models"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSeedAdminFromEnv(t *testing.T) {
	t.Run("Creates admin when env vars are set", func(t *testing.T) {
		db := setupTestDB(t)
		t.Setenv("ADMIN_EMAIL", "Admin@Test.com")
		t.Setenv("ADMIN_PASSWORD", testPassword)
		t.Setenv("ADMIN_NAME", "Test Admin")

		require.NoError(t, SeedAdminFromEnv(db))

		var user models.User
		require.NoError(t, db.Where("email = ?", "admin@test.com").First(&user).Error)
		assert.Equal(t, models.RoleAdmin, user.Role)
		assert.Equal(t, "Test Admin", user.Name)
		assert.True(t, VerifyPassword(user.Password, testPassword))

		// second run is a no-op
		require.NoError(t, SeedAdminFromEnv(db))
		var count int64
		db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("Skips when env vars are missing", func(t *testing.T) {
		db := setupTestDB(t)
		t.Setenv("ADMIN_EMAIL", "")
		t.Setenv("ADMIN_PASSWORD", "")

		require.NoError(t, SeedAdminFromEnv(db))
		var count int64
		db.Model(&models.User{}).Count(&count)
		assert.Zero(t, count)
	})

	t.Run("Skips when email is registered", func(t *testing.T) {
		db := setupTestDB(t)
		existing := newClient(t, db, "Taken Email")
		t.Setenv("ADMIN_EMAIL", existing.Email)
		t.Setenv("ADMIN_PASSWORD", testPassword)

		require.NoError(t, SeedAdminFromEnv(db))
		var count int64
		db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count)
		assert.Zero(t, count)
	})
}

const fixtureYAML = `
users:
  - name: Maria Lopez
    email: maria@example.com
    password: Corr3ct-Horse-Battery
    role: client
  - name: Carlos Ruiz
    email: carlos@example.com
    password: Corr3ct-Horse-Battery
    role: lawyer
    specialization: Criminal Law
    license: BAR-991
    per_case_charge: "1,500.00"
cases:
  - title: Lease dispute
    description: Landlord kept the deposit
    client: maria@example.com
  - title: Traffic ticket
    description: Contesting a speeding ticket
    client: maria@example.com
    lawyer: carlos@example.com
`

func TestLoadFixtures(t *testing.T) {
	f, err := LoadFixtures(strings.NewReader(fixtureYAML))
	require.NoError(t, err)
	require.Len(t, f.Users, 2)
	require.Len(t, f.Cases, 2)
	assert.Equal(t, "1,500.00", f.Users[1].PerCaseCharge)
	assert.Equal(t, "carlos@example.com", f.Cases[1].Lawyer)

	_, err = LoadFixtures(strings.NewReader("users:\n  - nickname: x\n"))
	assert.Error(t, err, "unknown fields are rejected")

	empty, err := LoadFixtures(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty.Users)
}

func TestSeedFixtures(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f, err := LoadFixtures(strings.NewReader(fixtureYAML))
	require.NoError(t, err)

	res, err := SeedFixtures(ctx, db, f)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Users: 2, Cases: 2}, res)

	lawyer, err := GetLawyer(db, mustUserID(t, db, "carlos@example.com"))
	require.NoError(t, err)
	assert.Equal(t, int64(150000), lawyer.LawyerProfile.PerCaseCharge)

	var accepted models.Case
	require.NoError(t, db.Where("title = ?", "Traffic ticket").First(&accepted).Error)
	assert.True(t, accepted.IsAccepted())
	var threads int64
	db.Model(&models.Thread{}).Where("case_id = ?", accepted.ID).Count(&threads)
	assert.Equal(t, int64(1), threads)

	t.Run("Existing users are skipped", func(t *testing.T) {
		again, err := SeedFixtures(ctx, db, &Fixtures{Users: f.Users})
		require.NoError(t, err)
		assert.Equal(t, 2, again.Skipped)
		assert.Zero(t, again.Users)
	})

	t.Run("Unknown case client", func(t *testing.T) {
		_, err := SeedFixtures(ctx, db, &Fixtures{Cases: []CaseFixture{{Title: "Orphan", Description: "x", Client: "ghost@example.com"}}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ghost@example.com")
	})
}

func mustUserID(t *testing.T, db *gorm.DB, email string) string {
	t.Helper()
	var u models.User
	require.NoError(t, db.Where("email = ?", email).First(&u).Error)
	return u.ID
}
