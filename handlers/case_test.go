package handlers

import (
	"lawconnect/db"
	"lawconnect/models"
	"lawconnect/services"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCaseHandler(t *testing.T) {
	setupTestDB(t)
	client := newUser(t, "Case Client", models.RoleClient)

	c, rec := formRequest("/client/cases", url.Values{"title": {"Lease dispute"}, "description": {"Landlord kept deposit"}, "type": {"civil"}})
	require.NoError(t, CreateCaseHandler(asUser(c, client)))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/client/cases/"))

	var k models.Case
	require.NoError(t, db.DB.First(&k, "client_id = ?", client.ID).Error)
	assert.Equal(t, models.CaseStatusOpen, k.Status)

	t.Run("missing title", func(t *testing.T) {
		c, rec := formRequest("/client/cases", url.Values{"description": {"no title"}})
		require.NoError(t, CreateCaseHandler(htmx(asUser(c, client))))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "alert-error")
	})
}

func TestCasesHandlerByRole(t *testing.T) {
	setupTestDB(t)
	client := newUser(t, "List Client", models.RoleClient)
	lawyer := newUser(t, "List Lawyer", models.RoleLawyer)
	_, err := services.CreateCase(db.DB, client, services.CaseInput{Title: "Unclaimed matter", Description: "d", Type: "civil"})
	require.NoError(t, err)

	_, c, rec := setupEcho(http.MethodGet, "/lawyer/cases", nil)
	require.NoError(t, CasesHandler(asUser(c, lawyer)))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Unclaimed matter")
	assert.Contains(t, body, "/accept")

	_, c, rec = setupEcho(http.MethodGet, "/client/cases", nil)
	require.NoError(t, CasesHandler(asUser(c, client)))
	assert.Contains(t, rec.Body.String(), `action="/client/cases"`)
}

func TestAcceptCaseHandler(t *testing.T) {
	setupTestDB(t)
	client := newUser(t, "Accept Client", models.RoleClient)
	first := newUser(t, "First Counsel", models.RoleLawyer)
	second := newUser(t, "Second Counsel", models.RoleLawyer)
	k, err := services.CreateCase(db.DB, client, services.CaseInput{Title: "Custody", Description: "d", Type: "family"})
	require.NoError(t, err)

	c, rec := formRequest("/lawyer/cases/"+k.ID+"/accept", url.Values{})
	require.NoError(t, AcceptCaseHandler(withParam(asUser(c, first), "id", k.ID)))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/lawyer/messages/"))

	t.Run("second acceptance conflicts", func(t *testing.T) {
		c, _ := jsonRequest(http.MethodPost, "/api/cases/"+k.ID+"/accept", "")
		err := APIAcceptCaseHandler(withParam(asUser(c, second), "id", k.ID))
		assert.Equal(t, http.StatusConflict, statusOf(t, err))

		var reloaded models.Case
		require.NoError(t, db.DB.First(&reloaded, "id = ?", k.ID).Error)
		assert.Equal(t, first.ID, *reloaded.LawyerID)
	})

	t.Run("clients cannot accept", func(t *testing.T) {
		other, err := services.CreateCase(db.DB, client, services.CaseInput{Title: "Other", Description: "d", Type: "civil"})
		require.NoError(t, err)
		c, _ := jsonRequest(http.MethodPost, "/api/cases/"+other.ID+"/accept", "")
		err = APIAcceptCaseHandler(withParam(asUser(c, client), "id", other.ID))
		assert.Equal(t, http.StatusForbidden, statusOf(t, err))
	})
}

func TestCaseDetailHandlerHidesOthersCases(t *testing.T) {
	setupTestDB(t)
	owner := newUser(t, "Owner Client", models.RoleClient)
	stranger := newUser(t, "Stranger Client", models.RoleClient)
	k, err := services.CreateCase(db.DB, owner, services.CaseInput{Title: "Private", Description: "d", Type: "civil"})
	require.NoError(t, err)

	_, c, rec := setupEcho(http.MethodGet, "/client/cases/"+k.ID, nil)
	require.NoError(t, CaseDetailHandler(withParam(asUser(c, stranger), "id", k.ID)))
	assert.Contains(t, []int{http.StatusForbidden, http.StatusNotFound}, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Private")
}

func TestAddCaseUpdateHandler(t *testing.T) {
	setupTestDB(t)
	client := newUser(t, "Timeline Client", models.RoleClient)
	lawyer := newUser(t, "Timeline Lawyer", models.RoleLawyer)
	res := newAcceptedCase(t, client, lawyer, "Timeline")

	c, rec := formRequest("/lawyer/cases/"+res.Case.ID+"/updates", url.Values{"message": {"Filed the motion"}})
	require.NoError(t, AddCaseUpdateHandler(htmx(withParam(asUser(c, lawyer), "id", res.Case.ID))))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Filed the motion")
}

func TestCaseRequestFlow(t *testing.T) {
	setupTestDB(t)
	client := newUser(t, "Request Client", models.RoleClient)
	lawyer := newUser(t, "Request Lawyer", models.RoleLawyer)
	k, err := services.CreateCase(db.DB, client, services.CaseInput{Title: "Needs counsel", Description: "d", Type: "civil"})
	require.NoError(t, err)

	c, rec := formRequest("/client/requests", url.Values{"case_id": {k.ID}, "lawyer_id": {lawyer.ID}, "message": {"Please help"}})
	require.NoError(t, CreateCaseRequestHandler(asUser(c, client)))
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	var req models.CaseRequest
	require.NoError(t, db.DB.First(&req, "case_id = ?", k.ID).Error)

	c, rec = formRequest("/lawyer/requests/"+req.ID+"/respond", url.Values{"decision": {"accepted"}})
	require.NoError(t, RespondCaseRequestHandler(withParam(asUser(c, lawyer), "id", req.ID)))
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	var reloaded models.Case
	require.NoError(t, db.DB.First(&reloaded, "id = ?", k.ID).Error)
	require.NotNil(t, reloaded.LawyerID)
	assert.Equal(t, lawyer.ID, *reloaded.LawyerID)

	c, _ = jsonRequest(http.MethodPost, "/api/case-requests/"+req.ID+"/respond", `{"status":"rejected"}`)
	err = APIRespondCaseRequestHandler(withParam(asUser(c, lawyer), "id", req.ID))
	assert.Equal(t, http.StatusConflict, statusOf(t, err))
}
