package handlers

import (
	"encoding/json"
	"lawconnect/models"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLawyersHandler(t *testing.T) {
	setupTestDB(t)
	client := newUser(t, "Searching Client", models.RoleClient)
	newUser(t, "Alpha Counsel", models.RoleLawyer)
	newUser(t, "Beta Counsel", models.RoleLawyer)

	_, c, rec := setupEcho(http.MethodGet, "/client/lawyers?q=alpha", nil)
	require.NoError(t, LawyersHandler(asUser(c, client)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Alpha Counsel")
	assert.NotContains(t, rec.Body.String(), "Beta Counsel")

	c, rec = jsonRequest(http.MethodGet, "/api/lawyers", "")
	require.NoError(t, APIListLawyersHandler(asUser(c, client)))
	var lawyers []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lawyers))
	require.Len(t, lawyers, 2)
	profile, ok := lawyers[0]["lawyer_profile"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "0.00", profile["per_case_charge"])
}

func TestLawyerDetailHandlerOffersOpenCases(t *testing.T) {
	setupTestDB(t)
	client := newUser(t, "Detail Client", models.RoleClient)
	lawyer := newUser(t, "Detail Counsel", models.RoleLawyer)
	other := newUser(t, "Other Counsel", models.RoleLawyer)
	newAcceptedCase(t, client, other, "Already taken")

	_, c, rec := setupEcho(http.MethodGet, "/client/lawyers/"+lawyer.ID, nil)
	require.NoError(t, LawyerDetailHandler(withParam(asUser(c, client), "id", lawyer.ID)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Already taken")
	assert.Contains(t, rec.Body.String(), "Open a case first")
}

func TestClientDetailHandler(t *testing.T) {
	setupTestDB(t)
	client := newUser(t, "Known Client", models.RoleClient)
	lawyer := newUser(t, "Knowing Lawyer", models.RoleLawyer)
	newAcceptedCase(t, client, lawyer, "Shared matter")

	_, c, rec := setupEcho(http.MethodGet, "/lawyer/clients/"+client.ID, nil)
	require.NoError(t, ClientDetailHandler(withParam(asUser(c, lawyer), "id", client.ID)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Shared matter")

	_, c, rec = setupEcho(http.MethodGet, "/lawyer/clients/missing", nil)
	require.NoError(t, ClientDetailHandler(withParam(asUser(c, lawyer), "id", "missing")))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAvatarHandlerMissing(t *testing.T) {
	setupTestDB(t)
	client := newUser(t, "Faceless", models.RoleClient)

	_, c, _ := setupEcho(http.MethodGet, "/media/avatars/"+client.ID, nil)
	err := AvatarHandler(withParam(c, "id", client.ID))
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}
