package handlers

import (
	"encoding/json"
	"lawconnect/middleware"
	"lawconnect/models"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginHandler(t *testing.T) {
	setupTestDB(t)
	_, c, rec := setupEcho(http.MethodGet, "/login", nil)

	require.NoError(t, LoginHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/login"`)

	t.Run("signed in users go to their dashboard", func(t *testing.T) {
		lawyer := newUser(t, "Signed Lawyer", models.RoleLawyer)
		_, c, rec := setupEcho(http.MethodGet, "/login", nil)
		require.NoError(t, LoginHandler(asUser(c, lawyer)))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/lawyer/dashboard", rec.Header().Get("Location"))
	})
}

func TestLoginPostHandler(t *testing.T) {
	setupTestDB(t)
	client := newUser(t, "Login Client", models.RoleClient)

	t.Run("valid credentials", func(t *testing.T) {
		c, rec := formRequest("/login", url.Values{"email": {client.Email}, "password": {testPassword}})
		require.NoError(t, LoginPostHandler(c))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/client/dashboard", rec.Header().Get("Location"))
		assert.Contains(t, rec.Header().Get("Set-Cookie"), middleware.SessionCookieName+"=")
	})

	t.Run("HTMX login redirects with a header", func(t *testing.T) {
		c, rec := formRequest("/login", url.Values{"email": {client.Email}, "password": {testPassword}})
		require.NoError(t, LoginPostHandler(htmx(c)))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "/client/dashboard", rec.Header().Get("HX-Redirect"))
	})

	t.Run("wrong password re-renders the form", func(t *testing.T) {
		c, rec := formRequest("/login", url.Values{"email": {client.Email}, "password": {"wrong"}})
		require.NoError(t, LoginPostHandler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid email or password")
		assert.Empty(t, rec.Header().Get("Set-Cookie"))
	})
}

func TestRegisterPostHandler(t *testing.T) {
	setupTestDB(t)

	t.Run("mismatched passwords", func(t *testing.T) {
		c, rec := formRequest("/register", url.Values{
			"username":         {"Mismatch"},
			"email":            {"mismatch@example.com"},
			"password":         {testPassword},
			"confirm_password": {testPassword + "x"},
			"role":             {models.RoleClient},
		})
		require.NoError(t, RegisterPostHandler(htmx(c)))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Passwords do not match.")
	})

	t.Run("lawyer sign up", func(t *testing.T) {
		c, rec := formRequest("/register", url.Values{
			"username":         {"New Counsel"},
			"email":            {"counsel@example.com"},
			"password":         {testPassword},
			"confirm_password": {testPassword},
			"role":             {models.RoleLawyer},
			"specialization":   {"Tax"},
			"license":          {"TX-1"},
		})
		require.NoError(t, RegisterPostHandler(c))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/lawyer/dashboard", rec.Header().Get("Location"))
	})

	t.Run("duplicate email keeps the form values", func(t *testing.T) {
		c, rec := formRequest("/register", url.Values{
			"username":         {"Again"},
			"email":            {"counsel@example.com"},
			"password":         {testPassword},
			"confirm_password": {testPassword},
			"role":             {models.RoleClient},
		})
		require.NoError(t, RegisterPostHandler(c))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), `value="Again"`)
	})
}

func TestAPILoginHandler(t *testing.T) {
	setupTestDB(t)
	lawyer := newUser(t, "Api Lawyer", models.RoleLawyer)

	c, rec := jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"`+lawyer.Email+`","password":"`+testPassword+`"}`)
	require.NoError(t, APILoginHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body authResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, lawyer.ID, body.User.ID)

	c, _ = jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"`+lawyer.Email+`","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, APILoginHandler(c)))
}
