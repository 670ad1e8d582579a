package services

import (
	"bytes"
	"lawconnect/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestInvoiceStatusFor(t *testing.T) {
	assert.Equal(t, models.InvoiceStatusPaid, InvoiceStatusFor(50000, 50000))
	assert.Equal(t, models.InvoiceStatusPaid, InvoiceStatusFor(60000, 50000))
	assert.Equal(t, models.InvoiceStatusPending, InvoiceStatusFor(49999, 50000))
	assert.Equal(t, models.InvoiceStatusPaid, InvoiceStatusFor(1, 0))
}

func TestCreateInvoice(t *testing.T) {
	db := setupTestDB(t)
	client := newClient(t, db, "Billed Client")
	lawyer := newLawyer(t, db, "Billing Lawyer", 50000)
	outsider := newLawyer(t, db, "Outsider Lawyer", 0)
	accepted := newAcceptedCase(t, db, client, lawyer, "Billable")

	t.Run("Below per case charge is pending", func(t *testing.T) {
		inv, err := CreateInvoice(db, lawyer, InvoiceInput{CaseID: accepted.Case.ID, Amount: 20000, Description: "Retainer"}, 30)
		require.NoError(t, err)
		assert.Equal(t, models.InvoiceStatusPending, inv.Status)
		assert.Nil(t, inv.PaidAt)
		assert.Equal(t, client.ID, inv.ClientID)
		assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), inv.DueDate, time.Minute)

		var n models.Notification
		require.NoError(t, db.Where("user_id = ? AND type = ?", client.ID, models.NotificationTypeInvoice).First(&n).Error)
		assert.Equal(t, inv.ID, n.RelatedID)
		assert.Contains(t, n.Content, "$200.00")
	})

	t.Run("Covering the charge is paid", func(t *testing.T) {
		inv, err := CreateInvoice(db, lawyer, InvoiceInput{CaseID: accepted.Case.ID, Amount: 50000}, 0)
		require.NoError(t, err)
		assert.Equal(t, models.InvoiceStatusPaid, inv.Status)
		assert.NotNil(t, inv.PaidAt)
		assert.WithinDuration(t, time.Now().AddDate(0, 0, DefaultInvoiceDueDays), inv.DueDate, time.Minute)
	})

	t.Run("Explicit due date", func(t *testing.T) {
		due := time.Date(2030, 1, 15, 0, 0, 0, 0, time.UTC)
		inv, err := CreateInvoice(db, lawyer, InvoiceInput{CaseID: accepted.Case.ID, Amount: 100, DueDate: &due}, 30)
		require.NoError(t, err)
		assert.True(t, due.Equal(inv.DueDate))
	})

	t.Run("Rejected inputs", func(t *testing.T) {
		_, err := CreateInvoice(db, lawyer, InvoiceInput{CaseID: accepted.Case.ID, Amount: 0}, 30)
		assert.True(t, IsValidationError(err))

		_, err = CreateInvoice(db, lawyer, InvoiceInput{Amount: 100}, 30)
		assert.True(t, IsValidationError(err))

		_, err = CreateInvoice(db, outsider, InvoiceInput{CaseID: accepted.Case.ID, Amount: 100}, 30)
		assert.ErrorIs(t, err, ErrForbidden)

		_, err = CreateInvoice(db, client, InvoiceInput{CaseID: accepted.Case.ID, Amount: 100}, 30)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestPayInvoice(t *testing.T) {
	db := setupTestDB(t)
	client := newClient(t, db, "Paying Client")
	stranger := newClient(t, db, "Stranger")
	lawyer := newLawyer(t, db, "Paid Lawyer", 50000)
	accepted := newAcceptedCase(t, db, client, lawyer, "Pay me")

	inv, err := CreateInvoice(db, lawyer, InvoiceInput{CaseID: accepted.Case.ID, Amount: 100}, 30)
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusPending, inv.Status)

	_, err = PayInvoice(db, stranger, inv.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	paid, err := PayInvoice(db, client, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	stored, err := GetInvoiceForUser(db, lawyer, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, stored.Status)
	assert.NotNil(t, stored.PaidAt)

	_, err = PayInvoice(db, client, inv.ID)
	assert.ErrorIs(t, err, ErrInvoiceNotPayable)

	var n models.Notification
	require.NoError(t, db.Where("user_id = ? AND title = ?", lawyer.ID, "Payment").First(&n).Error)

	_, err = PayInvoice(db, client, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMarkOverdueInvoices(t *testing.T) {
	db := setupTestDB(t)
	client := newClient(t, db, "Late Payer")
	lawyer := newLawyer(t, db, "Sweep Lawyer", 100000)
	accepted := newAcceptedCase(t, db, client, lawyer, "Overdue")

	past := time.Now().Add(-48 * time.Hour)
	future := time.Now().Add(48 * time.Hour)
	pastDue, err := CreateInvoice(db, lawyer, InvoiceInput{CaseID: accepted.Case.ID, Amount: 100, DueDate: &past}, 0)
	require.NoError(t, err)
	notDue, err := CreateInvoice(db, lawyer, InvoiceInput{CaseID: accepted.Case.ID, Amount: 100, DueDate: &future}, 0)
	require.NoError(t, err)
	paidPast, err := CreateInvoice(db, lawyer, InvoiceInput{CaseID: accepted.Case.ID, Amount: 100000, DueDate: &past}, 0)
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusPaid, paidPast.Status)

	n, err := MarkOverdueInvoices(db, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	status := func(id string) string {
		var inv models.Invoice
		db.First(&inv, "id = ?", id)
		return inv.Status
	}
	assert.Equal(t, models.InvoiceStatusOverdue, status(pastDue.ID))
	assert.Equal(t, models.InvoiceStatusPending, status(notDue.ID))
	assert.Equal(t, models.InvoiceStatusPaid, status(paidPast.ID))

	// overdue invoices can still be paid
	_, err = PayInvoice(db, client, pastDue.ID)
	assert.NoError(t, err)

	n, err = MarkOverdueInvoices(db, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdateAndDeleteInvoice(t *testing.T) {
	db := setupTestDB(t)
	client := newClient(t, db, "Edit Client")
	lawyer := newLawyer(t, db, "Edit Lawyer", 100000)
	accepted := newAcceptedCase(t, db, client, lawyer, "Edits")

	inv, err := CreateInvoice(db, lawyer, InvoiceInput{CaseID: accepted.Case.ID, Amount: 100}, 30)
	require.NoError(t, err)

	updated, err := UpdateInvoice(db, lawyer, inv.ID, InvoiceInput{Amount: 250, Description: "Adjusted"})
	require.NoError(t, err)
	assert.Equal(t, int64(250), updated.Amount)
	assert.Equal(t, "Adjusted", updated.Description)

	_, err = UpdateInvoice(db, client, inv.ID, InvoiceInput{Amount: 1})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, DeleteInvoice(db, client, inv.ID), ErrForbidden)

	_, err = PayInvoice(db, client, inv.ID)
	require.NoError(t, err)
	assert.True(t, IsValidationError(DeleteInvoice(db, lawyer, inv.ID)))

	other, _ := CreateInvoice(db, lawyer, InvoiceInput{CaseID: accepted.Case.ID, Amount: 100}, 30)
	require.NoError(t, DeleteInvoice(db, lawyer, other.ID))
	_, err = GetInvoiceForUser(db, lawyer, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAndSumInvoices(t *testing.T) {
	db := setupTestDB(t)
	client := newClient(t, db, "Sum Client")
	lawyer := newLawyer(t, db, "Sum Lawyer", 10000)
	accepted := newAcceptedCase(t, db, client, lawyer, "Totals")

	CreateInvoice(db, lawyer, InvoiceInput{CaseID: accepted.Case.ID, Amount: 10000, Description: "Full fee"}, 30)
	CreateInvoice(db, lawyer, InvoiceInput{CaseID: accepted.Case.ID, Amount: 2500, Description: "Filing costs"}, 30)
	CreateInvoice(db, lawyer, InvoiceInput{CaseID: accepted.Case.ID, Amount: 500, Description: "Copies"}, 30)

	all, err := ListInvoices(db, client, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	pending, err := ListInvoices(db, lawyer, ListFilter{Status: models.InvoiceStatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	searched, err := ListInvoices(db, lawyer, ListFilter{Query: "filing"})
	require.NoError(t, err)
	require.Len(t, searched, 1)
	require.NotNil(t, searched[0].Case)
	assert.Equal(t, "Totals", searched[0].Case.Title)

	totals, err := SumInvoices(db, lawyer)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), totals.Paid)
	assert.Equal(t, int64(3000), totals.Pending)
	assert.Equal(t, int64(3000), totals.Outstanding())
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "$0.00", FormatCents(0))
	assert.Equal(t, "$0.05", FormatCents(5))
	assert.Equal(t, "$150.00", FormatCents(15000))
	assert.Equal(t, "$1,234.56", FormatCents(123456))
	assert.Equal(t, "$1,000,000.00", FormatCents(100000000))
	assert.Equal(t, "-$12.30", FormatCents(-1230))
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"150", 15000},
		{"150.5", 15050},
		{"$1,250.75", 125075},
		{".99", 99},
		{" 0.01 ", 1},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "abc", "1.234", "-5", "1.x", "1.-5", "+3", ".", "1e3", "184467440737095517", "99999999999999999999"} {
		got, err := ParseAmount(bad)
		assert.True(t, IsValidationError(err), bad)
		assert.Zero(t, got, bad)
	}

	max, err := ParseAmount("92233720368547757.99")
	require.NoError(t, err)
	assert.Equal(t, int64(9223372036854775799), max)
}

func TestExportInvoicesXLSX(t *testing.T) {
	paid := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	invoices := []models.Invoice{
		{
			ID: "aaaaaaaa-1111", Amount: 125050, Status: models.InvoiceStatusPaid, PaidAt: &paid,
			Description: "Hearing", Case: &models.Case{Title: "Lease"},
			Client: &models.User{Name: "Ana"}, Lawyer: &models.User{Name: "Luis"},
		},
		{ID: "bbbbbbbb-2222", Amount: 500, Status: models.InvoiceStatusPending},
	}

	var buf bytes.Buffer
	require.NoError(t, ExportInvoicesXLSX(&buf, invoices))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(invoiceSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, invoiceExportHeaders, rows[0])
	assert.Equal(t, "INV-aaaaaaaa", rows[1][0])
	assert.Equal(t, "Lease", rows[1][1])
	assert.Equal(t, "Ana", rows[1][2])
	assert.Equal(t, "2026-02-02", rows[1][9])
	assert.Equal(t, "Total", rows[3][4])

	raw, err := f.GetCellValue(invoiceSheet, "F4", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "1255.5", raw)
}
