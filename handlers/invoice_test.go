package handlers

import (
	"encoding/json"
	"lawconnect/db"
	"lawconnect/models"
	"net/http"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// billedCase returns an accepted case whose lawyer charges 500.00 per case
func billedCase(t *testing.T) (client, lawyer *models.User, caseID string) {
	t.Helper()
	client = newUser(t, "Billed Client", models.RoleClient)
	lawyer = newUser(t, "Billing Lawyer", models.RoleLawyer)
	require.NoError(t, db.DB.Model(&models.LawyerProfile{}).Where("user_id = ?", lawyer.ID).
		Update("per_case_charge", 50000).Error)
	res := newAcceptedCase(t, client, lawyer, "Billable")
	return client, lawyer, res.Case.ID
}

func TestCreateInvoiceHandler(t *testing.T) {
	setupTestDB(t)
	client, lawyer, caseID := billedCase(t)

	c, rec := formRequest("/lawyer/invoices", url.Values{"case_id": {caseID}, "amount": {"150.00"}, "due_date": {"2030-01-31"}})
	require.NoError(t, CreateInvoiceHandler(asUser(c, lawyer)))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/lawyer/invoices", rec.Header().Get("Location"))

	var inv models.Invoice
	require.NoError(t, db.DB.First(&inv, "case_id = ?", caseID).Error)
	assert.Equal(t, int64(15000), inv.Amount)
	assert.Equal(t, client.ID, inv.ClientID)
	assert.Equal(t, models.InvoiceStatusPending, inv.Status)

	t.Run("bad amount", func(t *testing.T) {
		c, rec := formRequest("/lawyer/invoices", url.Values{"case_id": {caseID}, "amount": {"abc"}})
		require.NoError(t, CreateInvoiceHandler(htmx(asUser(c, lawyer))))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("clients cannot bill", func(t *testing.T) {
		c, _ := jsonRequest(http.MethodPost, "/api/invoices", `{"case":"`+caseID+`","amount":"10"}`)
		assert.Equal(t, http.StatusForbidden, statusOf(t, APICreateInvoiceHandler(asUser(c, client))))
	})
}

func TestAPIInvoiceAmountRoundTrip(t *testing.T) {
	setupTestDB(t)
	_, lawyer, caseID := billedCase(t)

	c, rec := jsonRequest(http.MethodPost, "/api/law/invoices", `{"case":"`+caseID+`","amount":150,"description":"Consultation"}`)
	require.NoError(t, APICreateInvoiceHandler(asUser(c, lawyer)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "150.00", created["amount"])
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	stored := func() models.Invoice {
		var inv models.Invoice
		require.NoError(t, db.DB.First(&inv, "id = ?", id).Error)
		return inv
	}
	assert.Equal(t, int64(15000), stored().Amount)

	// sending back what the API returned leaves the amount alone
	c, rec = jsonRequest(http.MethodPut, "/api/law/invoices/"+id, rec.Body.String())
	require.NoError(t, APIUpdateInvoiceHandler(withParam(asUser(c, lawyer), "id", id)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(15000), stored().Amount)
	assert.Equal(t, "Consultation", stored().Description)

	c, rec = jsonRequest(http.MethodPut, "/api/law/invoices/"+id, `{"amount":200.5}`)
	require.NoError(t, APIUpdateInvoiceHandler(withParam(asUser(c, lawyer), "id", id)))
	require.Equal(t, http.StatusOK, rec.Code)
	var updated map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "200.50", updated["amount"])
	assert.Equal(t, int64(20050), stored().Amount)

	for _, body := range []string{`{"amount":true}`, `{"amount":-3}`, `{"amount":"1.-5"}`} {
		c, _ = jsonRequest(http.MethodPut, "/api/law/invoices/"+id, body)
		assert.Equal(t, http.StatusBadRequest, statusOf(t, APIUpdateInvoiceHandler(withParam(asUser(c, lawyer), "id", id))), body)
	}
	assert.Equal(t, int64(20050), stored().Amount)
}

func TestPayInvoiceHandler(t *testing.T) {
	setupTestDB(t)
	client, lawyer, caseID := billedCase(t)

	c, _ := formRequest("/lawyer/invoices", url.Values{"case_id": {caseID}, "amount": {"100"}})
	require.NoError(t, CreateInvoiceHandler(asUser(c, lawyer)))
	var inv models.Invoice
	require.NoError(t, db.DB.First(&inv, "case_id = ?", caseID).Error)
	require.Equal(t, models.InvoiceStatusPending, inv.Status)

	_, c, rec := setupEcho(http.MethodGet, "/client/invoices", nil)
	require.NoError(t, InvoicesHandler(asUser(c, client)))
	assert.Contains(t, rec.Body.String(), `data-status="pending"`)

	c, rec = formRequest("/client/invoices/"+inv.ID+"/pay", url.Values{})
	require.NoError(t, PayInvoiceHandler(htmx(withParam(asUser(c, client), "id", inv.ID))))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="invoice-`+inv.ID+`"`)
	assert.Contains(t, body, `data-status="paid"`)
	assert.NotContains(t, body, "/pay")

	c, _ = jsonRequest(http.MethodPost, "/api/invoices/"+inv.ID+"/pay", "")
	assert.Equal(t, http.StatusConflict, statusOf(t, APIPayInvoiceHandler(withParam(asUser(c, client), "id", inv.ID))))
}

func TestExportInvoicesHandler(t *testing.T) {
	setupTestDB(t)
	_, lawyer, _ := billedCase(t)

	_, c, rec := setupEcho(http.MethodGet, "/lawyer/invoices/export", nil)
	require.NoError(t, ExportInvoicesHandler(asUser(c, lawyer)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), ".xlsx")
	// xlsx files are zip archives
	assert.Equal(t, "PK", rec.Body.String()[:2])
}
