package services

import (
	"bytes"
	"context"
	"lawconnect/models"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "Corr3ct-Horse-Battery"

// setupTestDB opens an isolated in-memory database with every table and a
// local storage rooted in a temp dir.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbName := "mem_" + uuid.New().String()
	db, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared&_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	Storage = NewLocalStorage(t.TempDir())
	return db
}

func newClient(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	u, err := RegisterUser(context.Background(), db, RegistrationInput{
		Username:        name,
		Email:           strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Password:        testPassword,
		ConfirmPassword: testPassword,
		Role:            models.RoleClient,
	})
	require.NoError(t, err)
	return u
}

func newLawyer(t *testing.T, db *gorm.DB, name string, perCaseCharge int64) *models.User {
	t.Helper()
	u, err := RegisterUser(context.Background(), db, RegistrationInput{
		Username:        name,
		Email:           strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Password:        testPassword,
		ConfirmPassword: testPassword,
		Role:            models.RoleLawyer,
		Specialization:  "Family Law",
		License:         "LIC-" + name,
	})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.LawyerProfile{}).Where("user_id = ?", u.ID).
		Update("per_case_charge", perCaseCharge).Error)
	return u
}

func newCase(t *testing.T, db *gorm.DB, client *models.User, title string) *models.Case {
	t.Helper()
	c, err := CreateCase(db, client, CaseInput{Title: title, Description: "Details of " + title, Type: "civil"})
	require.NoError(t, err)
	return c
}

// newAcceptedCase creates a case for client and has lawyer accept it
func newAcceptedCase(t *testing.T, db *gorm.DB, client, lawyer *models.User, title string) *AcceptCaseResult {
	t.Helper()
	c := newCase(t, db, client, title)
	res, err := AcceptCase(db, lawyer, c.ID)
	require.NoError(t, err)
	return res
}

func createMockFileHeader(filename string, content []byte) *multipart.FileHeader {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("file", filename)
	part.Write(content)
	writer.Close()

	reader := multipart.NewReader(body, writer.Boundary())
	form, _ := reader.ReadForm(32 * 1024 * 1024)
	return form.File["file"][0]
}

func pdfBytes() []byte {
	return append([]byte("%PDF-1.4\n"), make([]byte, 100)...)
}
