package handlers

import (
	"encoding/json"
	"fmt"
	"lawconnect/db"
	"lawconnect/middleware"
	"lawconnect/models"
	"lawconnect/services"
	"lawconnect/templates/pages"
	"lawconnect/templates/partials"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// amountValue accepts a JSON number or string. Both are read as dollars.
type amountValue string

func (a *amountValue) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*a = amountValue(n.String())
	return nil
}

type invoiceForm struct {
	CaseID      string      `json:"case" form:"case_id"`
	Amount      amountValue `json:"amount" form:"amount"`
	Description string `json:"description" form:"description"`
	DueDate     string `json:"due_date" form:"due_date"`
}

func (f invoiceForm) input() (services.InvoiceInput, error) {
	amount, err := services.ParseAmount(string(f.Amount))
	if err != nil {
		return services.InvoiceInput{}, err
	}
	in := services.InvoiceInput{CaseID: f.CaseID, Amount: amount, Description: f.Description}
	if s := strings.TrimSpace(f.DueDate); s != "" {
		due, err := services.ParseDate(s)
		if err != nil {
			return services.InvoiceInput{}, err
		}
		in.DueDate = &due
	}
	return in, nil
}

// InvoicesHandler renders the invoice table with totals
func InvoicesHandler(c echo.Context) error {
	user := mustUser(c)
	filter := listFilter(c)
	data := pages.InvoicesPage{
		Shell:  shell(c, "Invoices", "invoices"),
		Filter: filter,
		Error:  c.QueryParam("error"),
	}

	invoices, err := services.ListInvoices(db.DB, user, filter)
	if err != nil {
		log.Printf("[WARNING] list invoices for %s: %v", user.ID, err)
	}
	for i := range invoices {
		data.Rows = append(data.Rows, partials.InvoiceRow{Invoice: &invoices[i], Viewer: user, CSRF: data.CSRF})
	}
	if data.Totals, err = services.SumInvoices(db.DB, user); err != nil {
		log.Printf("[WARNING] invoice totals for %s: %v", user.ID, err)
	}
	if user.IsLawyer() {
		data.Cases, _ = services.ListAssignedCases(db.DB, user.ID, "")
	}
	return renderPage(c, "invoices", data)
}

// CreateInvoiceHandler bills the client of one of the lawyer's cases
func CreateInvoiceHandler(c echo.Context) error {
	var form invoiceForm
	if err := c.Bind(&form); err != nil {
		return fail(c, services.NewValidationError("Invalid form."), "/lawyer/invoices")
	}
	if _, err := createInvoice(c, form); err != nil {
		return fail(c, err, "/lawyer/invoices")
	}
	return done(c, "/lawyer/invoices")
}

func createInvoice(c echo.Context, form invoiceForm) (*models.Invoice, error) {
	in, err := form.input()
	if err != nil {
		return nil, err
	}
	cfg := appConfig(c)
	inv, err := services.CreateInvoice(db.DB, mustUser(c), in, cfg.InvoiceDueDays)
	if err != nil {
		return nil, err
	}

	if client := inv.Client; client != nil && client.NotifyEmail {
		services.SendEmailAsync(cfg, services.BuildInvoiceCreatedEmail(cfg.AppURL, client.Email, services.InvoiceEmailData{
			ClientName:  client.Name,
			LawyerName:  inv.Lawyer.Name,
			Number:      inv.Number(),
			Amount:      services.FormatCents(inv.Amount),
			Status:      inv.Status,
			DueDate:     inv.DueDate.Format("Jan 2, 2006"),
			InvoicesURL: cfg.AppURL + "/client/invoices",
		}))
	}
	return inv, nil
}

// PayInvoiceHandler marks the invoice paid and returns the updated row
func PayInvoiceHandler(c echo.Context) error {
	user := mustUser(c)
	inv, err := services.PayInvoice(db.DB, user, c.Param("id"))
	if err != nil {
		return fail(c, err, area(c)+"/invoices")
	}
	if !isHTMX(c) {
		return done(c, area(c)+"/invoices")
	}
	return render(c, http.StatusOK, partials.InvoiceRowView(partials.InvoiceRow{
		Invoice: inv,
		Viewer:  user,
		CSRF:    middleware.GetCSRFToken(c),
	}))
}

// DeleteInvoiceHandler removes an unpaid invoice. HTMX callers get an
// empty body so the row disappears.
func DeleteInvoiceHandler(c echo.Context) error {
	if err := services.DeleteInvoice(db.DB, mustUser(c), c.Param("id")); err != nil {
		return fail(c, err, "/lawyer/invoices")
	}
	if isHTMX(c) {
		return c.String(http.StatusOK, "")
	}
	return done(c, "/lawyer/invoices")
}

// InvoicePDFHandler renders the invoice to PDF with headless Chrome
func InvoicePDFHandler(c echo.Context) error {
	inv, err := services.GetInvoiceForUser(db.DB, mustUser(c), c.Param("id"))
	if err != nil {
		return apiOrPageError(c, err)
	}
	pdf, err := services.GenerateInvoicePDF(c.Request().Context(), inv)
	if err != nil {
		log.Printf("[WARNING] invoice pdf %s: %v", inv.ID, err)
		// without Chrome the printable HTML is the fallback
		html, herr := services.RenderInvoiceHTML(inv)
		if herr != nil {
			return apiOrPageError(c, herr)
		}
		return c.HTML(http.StatusOK, html)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s.pdf"`, inv.Number()))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

// ExportInvoicesHandler downloads the user's invoices as a spreadsheet
func ExportInvoicesHandler(c echo.Context) error {
	invoices, err := services.ListInvoices(db.DB, mustUser(c), listFilter(c))
	if err != nil {
		return apiOrPageError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="invoices-%s.xlsx"`, time.Now().Format("2006-01-02")))
	c.Response().WriteHeader(http.StatusOK)
	return services.ExportInvoicesXLSX(c.Response(), invoices)
}

func apiOrPageError(c echo.Context, err error) error {
	if strings.HasPrefix(c.Path(), "/api/") {
		return apiError(c, err)
	}
	return pageError(c, err)
}

// API

// invoiceJSON is the API shape of an invoice. Amounts are decimal dollars,
// the same unit the create and update endpoints accept.
type invoiceJSON struct {
	*models.Invoice
	Amount string `json:"amount"`
}

func toInvoiceJSON(inv *models.Invoice) invoiceJSON {
	return invoiceJSON{Invoice: inv, Amount: models.FormatDecimal(inv.Amount)}
}

func toInvoicesJSON(invoices []models.Invoice) []invoiceJSON {
	out := make([]invoiceJSON, len(invoices))
	for i := range invoices {
		out[i] = toInvoiceJSON(&invoices[i])
	}
	return out
}

func APIListInvoicesHandler(c echo.Context) error {
	invoices, err := services.ListInvoices(db.DB, mustUser(c), listFilter(c))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, toInvoicesJSON(invoices))
}

func APIGetInvoiceHandler(c echo.Context) error {
	inv, err := services.GetInvoiceForUser(db.DB, mustUser(c), c.Param("id"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, toInvoiceJSON(inv))
}

func APICreateInvoiceHandler(c echo.Context) error {
	var form invoiceForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	inv, err := createInvoice(c, form)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusCreated, toInvoiceJSON(inv))
}

func APIUpdateInvoiceHandler(c echo.Context) error {
	var form invoiceForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(string(form.Amount)) == "" {
		// zero leaves the amount unchanged
		form.Amount = "0"
	}
	in, err := form.input()
	if err != nil {
		return apiError(c, err)
	}
	inv, err := services.UpdateInvoice(db.DB, mustUser(c), c.Param("id"), in)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, toInvoiceJSON(inv))
}

func APIPayInvoiceHandler(c echo.Context) error {
	inv, err := services.PayInvoice(db.DB, mustUser(c), c.Param("id"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, toInvoiceJSON(inv))
}

func APIDeleteInvoiceHandler(c echo.Context) error {
	if err := services.DeleteInvoice(db.DB, mustUser(c), c.Param("id")); err != nil {
		return apiError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
