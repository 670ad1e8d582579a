package services

import (
	"errors"
	"fmt"
	"lawconnect/models"
	"math"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// DefaultInvoiceDueDays is used when no due date is given and the config has none
const DefaultInvoiceDueDays = 14

// InvoiceInput is the lawyer's invoice form. Amount is in cents.
type InvoiceInput struct {
	CaseID      string
	Amount      int64
	Description string
	DueDate     *time.Time
}

// InvoiceStatusFor applies the billing rule: an invoice that covers the
// lawyer's per case charge counts as paid, anything less stays pending.
func InvoiceStatusFor(amount, perCaseCharge int64) string {
	if amount >= perCaseCharge {
		return models.InvoiceStatusPaid
	}
	return models.InvoiceStatusPending
}

// CreateInvoice bills the client of a case assigned to the lawyer
func CreateInvoice(db *gorm.DB, lawyer *models.User, in InvoiceInput, dueDays int) (*models.Invoice, error) {
	if !lawyer.IsLawyer() {
		return nil, ErrForbidden
	}
	if in.Amount <= 0 {
		return nil, NewValidationError("Amount must be greater than zero.")
	}
	if in.CaseID == "" {
		return nil, NewValidationError("Case is required.")
	}

	var c models.Case
	if err := db.Preload("Client").First(&c, "id = ?", in.CaseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewValidationError("Case not found.")
		}
		return nil, err
	}
	if c.LawyerID == nil || *c.LawyerID != lawyer.ID {
		return nil, ErrForbidden
	}

	var profile models.LawyerProfile
	if err := db.Where("user_id = ?", lawyer.ID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewValidationError("Complete your lawyer profile before invoicing.")
		}
		return nil, err
	}

	if dueDays <= 0 {
		dueDays = DefaultInvoiceDueDays
	}
	now := time.Now()
	due := now.AddDate(0, 0, dueDays)
	if in.DueDate != nil {
		due = *in.DueDate
	}

	inv := &models.Invoice{
		CaseID:      c.ID,
		ClientID:    c.ClientID,
		LawyerID:    lawyer.ID,
		Amount:      in.Amount,
		Description: SanitizeText(in.Description),
		DueDate:     due,
		Status:      InvoiceStatusFor(in.Amount, profile.PerCaseCharge),
	}
	if inv.Status == models.InvoiceStatusPaid {
		inv.PaidAt = &now
	}
	if err := db.Create(inv).Error; err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	inv.Case = &c
	inv.Client = c.Client
	inv.Lawyer = lawyer

	notify(db, c.ClientID, models.NotificationTypeInvoice, "New Invoice",
		fmt.Sprintf("%s sent invoice %s for %s.", lawyer.Name, inv.Number(), FormatCents(inv.Amount)), inv.ID)
	return inv, nil
}

// ListInvoices returns the invoices the user issued (lawyer) or received (client)
func ListInvoices(db *gorm.DB, user *models.User, f ListFilter) ([]models.Invoice, error) {
	q := db.Preload("Case").Preload("Client").Preload("Lawyer")
	if user.IsLawyer() {
		q = q.Where("lawyer_id = ?", user.ID)
	} else {
		q = q.Where("client_id = ?", user.ID)
	}
	if f.Status != "" && models.IsValidInvoiceStatus(f.Status) {
		q = q.Where("status = ?", f.Status)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(description) LIKE ? OR LOWER(id) LIKE ?)", like, like)
	}

	var invoices []models.Invoice
	if err := q.Order("created_at DESC").Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, nil
}

// GetInvoiceForUser loads an invoice issued by or addressed to the user
func GetInvoiceForUser(db *gorm.DB, user *models.User, id string) (*models.Invoice, error) {
	var inv models.Invoice
	if err := db.Preload("Case").Preload("Client").Preload("Lawyer.LawyerProfile").First(&inv, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if inv.ClientID != user.ID && inv.LawyerID != user.ID {
		return nil, ErrForbidden
	}
	return &inv, nil
}

// PayInvoice marks a pending or overdue invoice as paid
func PayInvoice(db *gorm.DB, user *models.User, id string) (*models.Invoice, error) {
	inv, err := GetInvoiceForUser(db, user, id)
	if err != nil {
		return nil, err
	}
	if !inv.IsPayable() {
		return nil, ErrInvoiceNotPayable
	}

	now := time.Now()
	res := db.Model(&models.Invoice{}).
		Where("id = ? AND status IN (?)", inv.ID, []string{models.InvoiceStatusPending, models.InvoiceStatusOverdue}).
		Updates(map[string]interface{}{"status": models.InvoiceStatusPaid, "paid_at": now})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to pay invoice: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvoiceNotPayable
	}
	inv.Status = models.InvoiceStatusPaid
	inv.PaidAt = &now

	recipient := inv.LawyerID
	if user.ID == inv.LawyerID {
		recipient = inv.ClientID
	}
	notify(db, recipient, models.NotificationTypeInvoice, "Payment",
		fmt.Sprintf("Invoice %s was paid.", inv.Number()), inv.ID)
	return inv, nil
}

// UpdateInvoice edits an unpaid invoice issued by the lawyer
func UpdateInvoice(db *gorm.DB, lawyer *models.User, id string, in InvoiceInput) (*models.Invoice, error) {
	inv, err := GetInvoiceForUser(db, lawyer, id)
	if err != nil {
		return nil, err
	}
	if inv.LawyerID != lawyer.ID {
		return nil, ErrForbidden
	}
	if inv.Status == models.InvoiceStatusPaid {
		return nil, ErrInvoiceNotPayable
	}

	updates := map[string]interface{}{}
	if in.Amount > 0 {
		updates["amount"] = in.Amount
	}
	if in.Description != "" {
		updates["description"] = SanitizeText(in.Description)
	}
	if in.DueDate != nil {
		updates["due_date"] = *in.DueDate
		if inv.Status == models.InvoiceStatusOverdue && in.DueDate.After(time.Now()) {
			updates["status"] = models.InvoiceStatusPending
		}
	}
	if len(updates) > 0 {
		if err := db.Model(inv).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update invoice: %w", err)
		}
	}
	return GetInvoiceForUser(db, lawyer, id)
}

// DeleteInvoice removes an unpaid invoice issued by the lawyer
func DeleteInvoice(db *gorm.DB, lawyer *models.User, id string) error {
	inv, err := GetInvoiceForUser(db, lawyer, id)
	if err != nil {
		return err
	}
	if inv.LawyerID != lawyer.ID {
		return ErrForbidden
	}
	if inv.Status == models.InvoiceStatusPaid {
		return NewValidationError("Paid invoices cannot be deleted.")
	}
	return db.Delete(inv).Error
}

// MarkOverdueInvoices flips pending invoices whose due date has passed
func MarkOverdueInvoices(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Model(&models.Invoice{}).
		Where("status = ? AND due_date < ?", models.InvoiceStatusPending, now).
		Update("status", models.InvoiceStatusOverdue)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark overdue invoices: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// InvoiceTotals sums amounts per status, in cents
type InvoiceTotals struct {
	Pending int64 `json:"pending"`
	Paid    int64 `json:"paid"`
	Overdue int64 `json:"overdue"`
}

// Outstanding is what is still owed
func (t InvoiceTotals) Outstanding() int64 {
	return t.Pending + t.Overdue
}

// SumInvoices computes totals for the user's invoices
func SumInvoices(db *gorm.DB, user *models.User) (InvoiceTotals, error) {
	type row struct {
		Status string
		Total  int64
	}
	var rows []row
	q := db.Model(&models.Invoice{}).Select("status, COALESCE(SUM(amount), 0) AS total")
	if user.IsLawyer() {
		q = q.Where("lawyer_id = ?", user.ID)
	} else {
		q = q.Where("client_id = ?", user.ID)
	}
	if err := q.Group("status").Scan(&rows).Error; err != nil {
		return InvoiceTotals{}, err
	}

	var totals InvoiceTotals
	for _, r := range rows {
		switch r.Status {
		case models.InvoiceStatusPending:
			totals.Pending = r.Total
		case models.InvoiceStatusPaid:
			totals.Paid = r.Total
		case models.InvoiceStatusOverdue:
			totals.Overdue = r.Total
		}
	}
	return totals, nil
}

// FormatCents renders an amount in cents as dollars, e.g. 123456 -> "$1,234.56"
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := strconv.FormatInt(cents/100, 10)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s$%s.%02d", sign, b.String(), cents%100)
}

// ParseAmount reads a decimal amount such as "150", "150.5" or "1,250.75" into cents
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(s), "$"), ",", ""))
	if s == "" {
		return 0, NewValidationError("Amount is required.")
	}
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 2 {
		return 0, NewValidationError("Amount can have at most two decimals.")
	}
	if (whole == "" && frac == "") || !isDigits(whole) || !isDigits(frac) {
		return 0, NewValidationError("Enter a valid amount.")
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || w > (math.MaxInt64-99)/100 {
		return 0, NewValidationError("Amount is too large.")
	}
	f, _ := strconv.ParseInt(frac, 10, 64)
	return w*100 + f, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
