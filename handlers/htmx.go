package handlers

import (
	"lawconnect/config"
	"lawconnect/db"
	"lawconnect/middleware"
	"lawconnect/models"
	"lawconnect/services"
	"lawconnect/templates/pages"
	"lawconnect/templates/partials"
	"log"
	"net/http"
	"net/url"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

func isHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}

// appConfig returns the config injected by the server middleware
func appConfig(c echo.Context) *config.Config {
	if cfg, ok := c.Get("config").(*config.Config); ok && cfg != nil {
		return cfg
	}
	return &config.Config{Environment: "development"}
}

// render writes a component with the given status
func render(c echo.Context, status int, component templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(status)
	return component.Render(c.Request().Context(), c.Response().Writer)
}

// renderPage renders a full page, or only its content for HTMX navigation
func renderPage(c echo.Context, name string, data interface{}) error {
	if isHTMX(c) && c.Request().Method == http.MethodGet {
		return render(c, http.StatusOK, pages.Content(name, data))
	}
	return render(c, http.StatusOK, pages.Render(name, data))
}

// shell fills the layout data for the current request
func shell(c echo.Context, title, active string) pages.Shell {
	s := pages.Shell{
		Title:      title,
		User:       middleware.GetCurrentUser(c),
		CSRF:       middleware.GetCSRFToken(c),
		Nonce:      middleware.GetNonce(c.Request().Context()),
		Active:     active,
		CSSVersion: middleware.AssetVersion("css/app.css"),
		JSVersion:  middleware.AssetVersion("js/app.js"),
	}
	if c.QueryParam("saved") != "" {
		s.Flash = "Your changes were saved."
	}
	if s.User != nil {
		if n, err := services.UnreadNotificationCount(db.DB, s.User.ID); err == nil {
			s.UnreadNotifications = n
		}
		if n, err := services.UnreadMessageCount(db.DB, s.User.ID); err == nil {
			s.UnreadMessages = n
		}
	}
	return s
}

// area is the URL prefix of the current user's subtree
func area(c echo.Context) string {
	return partials.Area(middleware.GetCurrentUser(c))
}

// alert renders an inline message fragment
func alert(c echo.Context, status int, kind, message string) error {
	return render(c, status, partials.AlertBox(kind, message))
}

// fail reports err to the browser: an alert fragment for HTMX requests,
// otherwise a redirect back to `back` carrying the message.
func fail(c echo.Context, err error, back string) error {
	status, message := errorStatus(err), errorMessage(err)
	if status == http.StatusInternalServerError {
		log.Printf("[WARNING] %s %s: %v", c.Request().Method, c.Path(), err)
	}
	if isHTMX(c) {
		return alert(c, status, "error", message)
	}
	return c.Redirect(http.StatusSeeOther, withQuery(back, "error", message))
}

// done finishes a successful form post: HX-Redirect for HTMX, 303 otherwise
func done(c echo.Context, to string) error {
	if isHTMX(c) {
		c.Response().Header().Set("HX-Redirect", to)
		return c.NoContent(http.StatusOK)
	}
	return c.Redirect(http.StatusSeeOther, to)
}

// pageError renders the error page for a failed page load
func pageError(c echo.Context, err error) error {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("[WARNING] %s %s: %v", c.Request().Method, c.Path(), err)
	}
	data := pages.ErrorPage{Shell: shell(c, http.StatusText(status), ""), Code: status, Message: errorMessage(err)}
	if isHTMX(c) {
		return render(c, status, pages.Content("error", data))
	}
	return render(c, status, pages.Render("error", data))
}

func withQuery(path, key, value string) string {
	u, err := url.Parse(path)
	if err != nil {
		return path
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

// mustUser returns the authenticated user. Routes using it sit behind
// RequireAuth or RequireAPIAuth.
func mustUser(c echo.Context) *models.User {
	return middleware.GetCurrentUser(c)
}
