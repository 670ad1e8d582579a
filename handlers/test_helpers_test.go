package handlers

import (
	"context"
	"io"
	"lawconnect/config"
	"lawconnect/db"
	"lawconnect/middleware"
	"lawconnect/models"
	"lawconnect/services"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "Corr3ct-Horse-Battery"

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Use unique shared memory name to isolate tests while allowing shared cache for async tasks
	dbName := "mem_" + uuid.New().String()
	testDB, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared&_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, testDB.AutoMigrate(models.AllModels()...))

	services.Storage = services.NewLocalStorage(t.TempDir())
	db.DB = testDB
	return testDB
}

func testConfig() *config.Config {
	return &config.Config{
		Environment:    "test",
		AppURL:         "http://localhost:8080",
		EmailTestMode:  true,
		InvoiceDueDays: 30,
		TOTPIssuer:     "LawConnect",
	}
}

func setupEcho(method, path string, body io.Reader) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, body)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("config", testConfig())
	return e, c, rec
}

// formRequest builds a urlencoded POST context
func formRequest(path string, form url.Values) (echo.Context, *httptest.ResponseRecorder) {
	_, c, rec := setupEcho(http.MethodPost, path, strings.NewReader(form.Encode()))
	c.Request().Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return c, rec
}

// jsonRequest builds a JSON request context
func jsonRequest(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	_, c, rec := setupEcho(method, path, strings.NewReader(body))
	c.Request().Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return c, rec
}

func asUser(c echo.Context, u *models.User) echo.Context {
	c.Set(middleware.ContextKeyUser, u)
	return c
}

func htmx(c echo.Context) echo.Context {
	c.Request().Header.Set("HX-Request", "true")
	return c
}

func withParam(c echo.Context, name, value string) echo.Context {
	c.SetParamNames(name)
	c.SetParamValues(value)
	return c
}

func newUser(t *testing.T, name, role string) *models.User {
	t.Helper()
	in := services.RegistrationInput{
		Username:        name,
		Email:           strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Password:        testPassword,
		ConfirmPassword: testPassword,
		Role:            role,
	}
	if role == models.RoleLawyer {
		in.Specialization = "Family Law"
		in.License = "LIC-" + name
	}
	u, err := services.RegisterUser(context.Background(), db.DB, in)
	require.NoError(t, err)
	return u
}

func newAcceptedCase(t *testing.T, client, lawyer *models.User, title string) *services.AcceptCaseResult {
	t.Helper()
	k, err := services.CreateCase(db.DB, client, services.CaseInput{Title: title, Description: "About " + title, Type: "civil"})
	require.NoError(t, err)
	res, err := services.AcceptCase(db.DB, lawyer, k.ID)
	require.NoError(t, err)
	return res
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %v", err)
	return he.Code
}
