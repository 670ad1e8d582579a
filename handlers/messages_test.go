package handlers

import (
	"encoding/json"
	"lawconnect/db"
	"lawconnect/models"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartThreadHandlerWithoutAcceptedCase(t *testing.T) {
	setupTestDB(t)
	client := newUser(t, "Lonely Client", models.RoleClient)
	lawyer := newUser(t, "Busy Lawyer", models.RoleLawyer)

	c, rec := formRequest("/client/messages/start", url.Values{"user_id": {lawyer.ID}})
	require.NoError(t, StartThreadHandler(asUser(c, client)))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/client/messages", loc.Path)
	assert.NotEmpty(t, loc.Query().Get("error"))

	var count int64
	db.DB.Model(&models.Thread{}).Count(&count)
	assert.Zero(t, count)

	c, _ = jsonRequest(http.MethodPost, "/api/threads", `{"user":"`+lawyer.ID+`"}`)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, APIStartThreadHandler(asUser(c, client))))
}

func TestSendMessageThenList(t *testing.T) {
	setupTestDB(t)
	client := newUser(t, "Talk Client", models.RoleClient)
	lawyer := newUser(t, "Talk Lawyer", models.RoleLawyer)
	res := newAcceptedCase(t, client, lawyer, "Talk")
	threadID := res.Thread.ID

	c, rec := formRequest("/client/messages/"+threadID, url.Values{"content": {"When is the hearing?"}})
	require.NoError(t, SendMessageHandler(htmx(withParam(asUser(c, client), "id", threadID))))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "When is the hearing?")

	_, c, rec = setupEcho(http.MethodGet, "/lawyer/messages/"+threadID+"/list", nil)
	require.NoError(t, MessageListHandler(withParam(asUser(c, lawyer), "id", threadID)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "When is the hearing?")
	assert.Contains(t, rec.Body.String(), `id="message-list"`)

	c, rec = jsonRequest(http.MethodGet, "/api/messages?thread="+threadID, "")
	require.NoError(t, APIListMessagesHandler(asUser(c, lawyer)))
	var messages []models.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &messages))
	require.Len(t, messages, 1)
	assert.Equal(t, client.ID, messages[0].SenderID)

	t.Run("blank message", func(t *testing.T) {
		c, rec := formRequest("/client/messages/"+threadID, url.Values{"content": {"   "}})
		require.NoError(t, SendMessageHandler(htmx(withParam(asUser(c, client), "id", threadID))))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("outsider", func(t *testing.T) {
		outsider := newUser(t, "Nosy Client", models.RoleClient)
		c, _ := jsonRequest(http.MethodPost, "/api/messages", `{"thread":"`+threadID+`","content":"hi"}`)
		assert.Equal(t, http.StatusForbidden, statusOf(t, APISendMessageHandler(asUser(c, outsider))))
	})
}

func TestMessagesPageListsThreads(t *testing.T) {
	setupTestDB(t)
	client := newUser(t, "Page Client", models.RoleClient)
	lawyer := newUser(t, "Page Lawyer", models.RoleLawyer)
	res := newAcceptedCase(t, client, lawyer, "Paged")

	_, c, rec := setupEcho(http.MethodGet, "/client/messages/"+res.Thread.ID, nil)
	require.NoError(t, MessagesHandler(withParam(asUser(c, client), "id", res.Thread.ID)))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Page Lawyer")
	assert.Contains(t, body, `data-ws="/ws/threads/`+res.Thread.ID+`"`)
}
