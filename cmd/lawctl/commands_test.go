package main

import (
	"bytes"
	"context"
	"lawconnect/db"
	"lawconnect/models"
	"lawconnect/services"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := gorm.Open(sqlite.Open("file:mem_"+uuid.New().String()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, testDB.AutoMigrate(models.AllModels()...))
	services.Storage = services.NewLocalStorage(t.TempDir())
	db.DB = testDB
	return testDB
}

const fixtures = `
users:
  - name: Ada Client
    email: ada@example.com
    password: Corr3ct-Horse-Battery
    role: client
  - name: Ben Counsel
    email: ben@example.com
    password: Corr3ct-Horse-Battery
    role: lawyer
    specialization: Tax
    license: TX-9
    per_case_charge: "100"
cases:
  - title: Audit defense
    description: Notice from the tax office
    type: tax
    client: ada@example.com
    lawyer: ben@example.com
`

func TestExportInvoices(t *testing.T) {
	database := setupTestDB(t)
	f, err := services.LoadFixtures(strings.NewReader(fixtures))
	require.NoError(t, err)
	_, err = services.SeedFixtures(context.Background(), database, f)
	require.NoError(t, err)

	var lawyer models.User
	require.NoError(t, database.First(&lawyer, "email = ?", "ben@example.com").Error)
	var k models.Case
	require.NoError(t, database.First(&k).Error)
	_, err = services.CreateInvoice(database, &lawyer, services.InvoiceInput{CaseID: k.ID, Amount: 2500}, 30)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, exportInvoices(database, "BEN@example.com", path, ""))

	book, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows(book.GetSheetName(0))
	require.NoError(t, err)
	assert.Len(t, rows, 2, "header plus one invoice")

	err = exportInvoices(database, "ada@example.com", path, "")
	assert.Error(t, err, "clients have no invoices to export")
}

func TestRootCommandLists(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--help"})
	require.NoError(t, root.Execute())
	for _, name := range []string{"create-user", "seed", "cleanup", "export-invoices"} {
		assert.Contains(t, out.String(), name)
	}

	root.SetArgs([]string{"seed"})
	assert.Error(t, root.Execute(), "seed needs a file")
}
