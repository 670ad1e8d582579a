package middleware

import (
	"lawconnect/db"
	"lawconnect/models"
	"lawconnect/services"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := "file:mw_" + uuid.New().String() + "?mode=memory&cache=shared"
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, testDB.AutoMigrate(models.AllModels()...))

	// Set the global DB variable used by middleware
	db.DB = testDB
	return testDB
}

func createUserWithSession(t *testing.T, testDB *gorm.DB, role string, active bool) (*models.User, *models.Session) {
	t.Helper()
	user := &models.User{Name: role + " user", Email: uuid.New().String()[:8] + "@example.com", Password: "x", Role: role, IsActive: true}
	require.NoError(t, testDB.Create(user).Error)
	if !active {
		testDB.Model(user).Update("is_active", false)
	}
	session, err := services.CreateSession(testDB, user.ID, "127.0.0.1", "test-agent")
	require.NoError(t, err)
	return user, session
}

var okHandler = func(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func TestRequireAuth(t *testing.T) {
	testDB := setupTestDB(t)
	e := echo.New()
	user, session := createUserWithSession(t, testDB, models.RoleClient, true)
	_, inactive := createUserWithSession(t, testDB, models.RoleClient, false)

	t.Run("ValidSession", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/client/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.Token})
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, RequireAuth()(okHandler)(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, user.ID, GetCurrentUser(c).ID)
		assert.Equal(t, session.ID, GetCurrentSession(c).ID)
	})

	t.Run("NoSessionRedirectsToLogin", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/lawyer/cases", nil), rec)

		require.NoError(t, RequireAuth()(okHandler)(c))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("HTMXGetsHXRedirect", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/client/messages", nil)
		req.Header.Set("HX-Request", "true")
		rec := httptest.NewRecorder()

		require.NoError(t, RequireAuth()(okHandler)(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("HX-Redirect"))
	})

	t.Run("InvalidCookieIsCleared", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/client/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "bogus"})
		rec := httptest.NewRecorder()

		require.NoError(t, RequireAuth()(okHandler)(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Contains(t, rec.Header().Get("Set-Cookie"), SessionCookieName+"=;")
	})

	t.Run("InactiveUser", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/client/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: inactive.Token})
		rec := httptest.NewRecorder()

		require.NoError(t, RequireAuth()(okHandler)(e.NewContext(req, rec)))
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})
}

func TestRequireRole(t *testing.T) {
	testDB := setupTestDB(t)
	e := echo.New()
	_, lawyerSession := createUserWithSession(t, testDB, models.RoleLawyer, true)
	_, clientSession := createUserWithSession(t, testDB, models.RoleClient, true)

	guarded := func(role string) echo.HandlerFunc {
		return RequireAuth()(RequireRole(role)(okHandler))
	}
	visit := func(path, token string, h echo.HandlerFunc) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
		rec := httptest.NewRecorder()
		require.NoError(t, h(e.NewContext(req, rec)))
		return rec
	}

	t.Run("LawyerOnClientPath", func(t *testing.T) {
		rec := visit("/client/cases", lawyerSession.Token, guarded(models.RoleClient))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/lawyer/dashboard", rec.Header().Get("Location"))
	})

	t.Run("ClientOnLawyerPath", func(t *testing.T) {
		rec := visit("/lawyer/cases", clientSession.Token, guarded(models.RoleLawyer))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/client/dashboard", rec.Header().Get("Location"))
	})

	t.Run("MatchingRole", func(t *testing.T) {
		rec := visit("/lawyer/cases", lawyerSession.Token, guarded(models.RoleLawyer))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("NoUserInContext", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.NoError(t, RequireRole(models.RoleClient)(okHandler)(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)))
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})
}

func TestRequireAPIAuth(t *testing.T) {
	testDB := setupTestDB(t)
	e := echo.New()
	user, session := createUserWithSession(t, testDB, models.RoleClient, true)

	call := func(auth string, h echo.HandlerFunc) (echo.Context, error) {
		req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
		if auth != "" {
			req.Header.Set(echo.HeaderAuthorization, auth)
		}
		c := e.NewContext(req, httptest.NewRecorder())
		return c, h(c)
	}

	t.Run("Bearer", func(t *testing.T) {
		c, err := call("Bearer "+session.Token, RequireAPIAuth()(okHandler))
		require.NoError(t, err)
		assert.Equal(t, user.ID, GetCurrentUser(c).ID)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := call("", RequireAPIAuth()(okHandler))
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("WrongRole", func(t *testing.T) {
		_, err := call("Bearer "+session.Token, RequireAPIAuth()(RequireAPIRole(models.RoleLawyer)(okHandler)))
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusForbidden, he.Code)
	})
}

func TestSessionToken(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Token abc")
	assert.Equal(t, "abc", SessionToken(e.NewContext(req, nil)))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "from-cookie"})
	assert.Equal(t, "from-cookie", SessionToken(e.NewContext(req, nil)))

	assert.Equal(t, "", SessionToken(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), nil)))
}
